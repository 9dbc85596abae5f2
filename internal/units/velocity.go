// Package units converts speeds from the m/s the decoder produces.
package units

import (
	"fmt"
	"strings"
)

// SpeedUnit names a unit of speed.
type SpeedUnit string

// Unit constants
const (
	MPS   SpeedUnit = "mps"
	MPH   SpeedUnit = "mph"
	KPH   SpeedUnit = "kph"
	Knots SpeedUnit = "kn"
)

// ValidUnits contains all valid unit values
var ValidUnits = []SpeedUnit{MPS, MPH, KPH, Knots}

// ParseSpeedUnit accepts a unit name case-insensitively; "kmph" is an alias
// for kph and "" means m/s.
func ParseSpeedUnit(s string) (SpeedUnit, error) {
	switch u := SpeedUnit(strings.ToLower(strings.TrimSpace(s))); u {
	case "":
		return MPS, nil
	case "kmph":
		return KPH, nil
	case MPS, MPH, KPH, Knots:
		return u, nil
	default:
		return "", fmt.Errorf("unknown speed unit %q (valid: %s)", s, validUnitsString())
	}
}

func validUnitsString() string {
	names := make([]string, len(ValidUnits))
	for i, u := range ValidUnits {
		names[i] = string(u)
	}
	return strings.Join(names, ", ")
}

// Factor is the multiplier from m/s to u.
func (u SpeedUnit) Factor() float64 {
	switch u {
	case MPH:
		return 2.2369362920544
	case KPH:
		return 3.6
	case Knots:
		return 1.9438444924406
	default:
		return 1
	}
}

// ConvertSpeed converts a speed from meters per second to u.
func (u SpeedUnit) ConvertSpeed(speedMPS float64) float64 {
	return speedMPS * u.Factor()
}
