package ncom

import "fmt"

// NCOM packet constants
const (
	PacketSize = 71   // Bytes in one navigation status packet
	SyncByte   = 0xE7 // First byte of every well-formed packet
)

// Encoding describes how the bytes of a field are interpreted.
type Encoding int

const (
	Unsigned Encoding = iota // little-endian unsigned integer
	Signed                   // little-endian two's complement integer
	Float64                  // little-endian IEEE-754 double
	Bytes                    // opaque byte sequence
)

func (e Encoding) String() string {
	switch e {
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	case Float64:
		return "float64"
	case Bytes:
		return "bytes"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// FieldID identifies a packet field independently of its position.
type FieldID int

const (
	FieldSync FieldID = iota
	FieldTime
	FieldAccX
	FieldAccY
	FieldAccZ
	FieldAngX
	FieldAngY
	FieldAngZ
	FieldNavStat
	FieldChecksum1
	FieldLat
	FieldLong
	FieldAlti
	FieldVelNorth
	FieldVelEast
	FieldVelDown
	FieldHeading
	FieldPitch
	FieldRoll
	FieldChecksum2
	FieldStatusChannel
	FieldStatus

	NumFields = int(FieldStatus) + 1
)

// FieldSpec is one row of the layout table.
type FieldSpec struct {
	ID       FieldID
	Name     string
	Offset   int
	Width    int
	Encoding Encoding
}

// End returns the offset one past the last byte of the field.
func (f FieldSpec) End() int { return f.Offset + f.Width }

// Layout is an ordered field table. Order is part of the record contract.
type Layout []FieldSpec

// DefaultLayout is the 71-byte NCOM status packet.
var DefaultLayout = Layout{
	{FieldSync, "Sync", 0, 1, Unsigned},
	{FieldTime, "Time", 1, 2, Unsigned},
	{FieldAccX, "AccX", 3, 3, Signed},
	{FieldAccY, "AccY", 6, 3, Signed},
	{FieldAccZ, "AccZ", 9, 3, Signed},
	{FieldAngX, "AngX", 12, 3, Signed},
	{FieldAngY, "AngY", 15, 3, Signed},
	{FieldAngZ, "AngZ", 18, 3, Signed},
	{FieldNavStat, "NavStat", 21, 1, Unsigned},
	{FieldChecksum1, "Checksum_1", 22, 1, Unsigned},
	{FieldLat, "Lat", 23, 8, Float64},
	{FieldLong, "Long", 31, 8, Float64},
	{FieldAlti, "Alti", 39, 4, Unsigned},
	{FieldVelNorth, "Vel_North", 43, 3, Signed},
	{FieldVelEast, "Vel_East", 46, 3, Signed},
	{FieldVelDown, "Vel_Down", 49, 3, Signed},
	{FieldHeading, "Heading", 52, 3, Signed},
	{FieldPitch, "Pitch", 55, 3, Unsigned},
	{FieldRoll, "Roll", 58, 3, Unsigned},
	{FieldChecksum2, "Checksum_2", 61, 1, Unsigned},
	{FieldStatusChannel, "Status_channel", 62, 1, Unsigned},
	{FieldStatus, "Status", 63, 8, Bytes},
}

// fieldFormats pins the width and encoding of each field. RawPacket has a
// concrete Go type per field, so a layout may not change either.
var fieldFormats = [NumFields]struct {
	width    int
	encoding Encoding
}{
	FieldSync:          {1, Unsigned},
	FieldTime:          {2, Unsigned},
	FieldAccX:          {3, Signed},
	FieldAccY:          {3, Signed},
	FieldAccZ:          {3, Signed},
	FieldAngX:          {3, Signed},
	FieldAngY:          {3, Signed},
	FieldAngZ:          {3, Signed},
	FieldNavStat:       {1, Unsigned},
	FieldChecksum1:     {1, Unsigned},
	FieldLat:           {8, Float64},
	FieldLong:          {8, Float64},
	FieldAlti:          {4, Unsigned},
	FieldVelNorth:      {3, Signed},
	FieldVelEast:       {3, Signed},
	FieldVelDown:       {3, Signed},
	FieldHeading:       {3, Signed},
	FieldPitch:         {3, Unsigned},
	FieldRoll:          {3, Unsigned},
	FieldChecksum2:     {1, Unsigned},
	FieldStatusChannel: {1, Unsigned},
	FieldStatus:        {8, Bytes},
}

// Size returns the sum of all field widths.
func (l Layout) Size() int {
	n := 0
	for _, f := range l {
		n += f.Width
	}
	return n
}

// Lookup returns the spec for the named field.
func (l Layout) Lookup(name string) (FieldSpec, bool) {
	for _, f := range l {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks that the table lists every field once in packet order,
// that offsets are cumulative, that widths and encodings match the packet
// definition, and that the table covers exactly PacketSize bytes.
func (l Layout) Validate() error {
	if len(l) != NumFields {
		return fmt.Errorf("layout has %d fields, expected %d", len(l), NumFields)
	}
	offset := 0
	for i, f := range l {
		if f.ID != FieldID(i) {
			return fmt.Errorf("field %d (%s): id %d out of order", i, f.Name, f.ID)
		}
		if f.Name == "" {
			return fmt.Errorf("field %d: empty name", i)
		}
		if f.Offset != offset {
			return fmt.Errorf("field %s: offset %d, expected %d", f.Name, f.Offset, offset)
		}
		want := fieldFormats[f.ID]
		if f.Width != want.width {
			return fmt.Errorf("field %s: width %d, expected %d", f.Name, f.Width, want.width)
		}
		if f.Encoding != want.encoding {
			return fmt.Errorf("field %s: encoding %s, expected %s", f.Name, f.Encoding, want.encoding)
		}
		offset += f.Width
	}
	if offset != PacketSize {
		return fmt.Errorf("layout covers %d bytes, packet is %d", offset, PacketSize)
	}
	return nil
}
