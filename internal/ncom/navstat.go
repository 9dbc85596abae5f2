package ncom

// NavStatReserved is the label for any code without a defined meaning.
const NavStatReserved = "Reserved"

var navStatLabels = [...]string{
	0:  "0: All quantities in the packet are invalid",
	1:  "1: Raw IMU measurements",
	2:  "2: Initialising",
	3:  "3: Locking",
	4:  "4: Locked",
	5:  `5: Reserved for "unlocked" navigation output`,
	6:  "6: Expired firmware",
	7:  "7: Blocked firmware",
	10: "10: Status only",
	11: "11: Internal Use. Do not use any values from this message.",
	20: `20: Trigger packet while "initialising"`,
	21: `21: Trigger packet while "locking"`,
	22: `22: Trigger packet while "locked"`,
}

// NavStatLabel returns the descriptive label for a navigation status code.
func NavStatLabel(code uint8) string {
	if int(code) < len(navStatLabels) && navStatLabels[code] != "" {
		return navStatLabels[code]
	}
	return NavStatReserved
}

// NavStatKnown reports whether code has a defined label.
func NavStatKnown(code uint8) bool {
	return NavStatLabel(code) != NavStatReserved
}
