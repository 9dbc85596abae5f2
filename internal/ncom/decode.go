package ncom

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Physical measurement conversion constants
const (
	ACC_SCALE = 1e-4 // raw acceleration to m/s²
	ANG_SCALE = 1e-5 // raw angular rate to deg/s
	VEL_SCALE = 1e-4 // raw velocity to m/s
	IMU_SCALE = 1e-6 // raw heading/pitch/roll to radians

	RAD_TO_DEG     = 180 / math.Pi
	ATTITUDE_SCALE = IMU_SCALE * RAD_TO_DEG // raw heading/pitch/roll to degrees
)

// Decoder turns raw packets into Records using a validated layout table.
// A Decoder holds no mutable state and is safe for concurrent use.
type Decoder struct {
	layout Layout
}

// NewDecoder validates layout and returns a decoder for it. A table that
// does not describe a PacketSize-byte packet is rejected here so that
// decode-time failures are limited to bad input.
func NewDecoder(layout Layout) (*Decoder, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ncom layout: %w", err)
	}
	l := make(Layout, len(layout))
	copy(l, layout)
	return &Decoder{layout: l}, nil
}

var defaultDecoder = mustNewDecoder(DefaultLayout)

func mustNewDecoder(layout Layout) *Decoder {
	d, err := NewDecoder(layout)
	if err != nil {
		panic(err)
	}
	return d
}

// DefaultDecoder returns the shared decoder for DefaultLayout.
func DefaultDecoder() *Decoder { return defaultDecoder }

// Layout returns a copy of the decoder's field table.
func (d *Decoder) Layout() Layout {
	l := make(Layout, len(d.layout))
	copy(l, d.layout)
	return l
}

// Decode decodes buf with the default decoder.
func Decode(buf []byte) (*Record, error) {
	return defaultDecoder.Decode(buf)
}

// Extract extracts raw field values from buf with the default decoder.
func Extract(buf []byte) (RawPacket, error) {
	return defaultDecoder.Extract(buf)
}

// Decode extracts, validates and scales one packet. On error no record is
// returned. buf is not retained.
func (d *Decoder) Decode(buf []byte) (*Record, error) {
	raw, err := d.Extract(buf)
	if err != nil {
		return nil, err
	}
	rec := Scale(raw)
	return &rec, nil
}

// Extract reads every field of buf according to the layout and checks the
// sync byte. Values are left unscaled.
func (d *Decoder) Extract(buf []byte) (RawPacket, error) {
	if len(buf) != PacketSize {
		return RawPacket{}, &LengthMismatchError{Got: len(buf), Want: PacketSize}
	}

	var raw RawPacket
	for _, f := range d.layout {
		b := buf[f.Offset:f.End()]
		switch f.Encoding {
		case Unsigned:
			raw.setUnsigned(f.ID, readUnsigned(b))
		case Signed:
			*raw.signedField(f.ID) = readSigned(b)
		case Float64:
			*raw.floatField(f.ID) = math.Float64frombits(binary.LittleEndian.Uint64(b))
		case Bytes:
			copy(raw.Status[:], b)
		}
	}

	if raw.Sync != SyncByte {
		return RawPacket{}, &SyncMismatchError{Got: raw.Sync}
	}
	return raw, nil
}

func readUnsigned(b []byte) uint32 {
	switch len(b) {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	case 3:
		return Uint24(b)
	default:
		return binary.LittleEndian.Uint32(b)
	}
}

func readSigned(b []byte) int32 {
	switch len(b) {
	case 1:
		return int32(int8(b[0]))
	case 2:
		return int32(int16(binary.LittleEndian.Uint16(b)))
	case 3:
		return Int24(b)
	default:
		return int32(binary.LittleEndian.Uint32(b))
	}
}

// Scale converts raw values to physical units and resolves NavStat.
func Scale(raw RawPacket) Record {
	return Record{
		Sync:          raw.Sync,
		Time:          raw.Time,
		AccX:          float64(raw.AccX) * ACC_SCALE,
		AccY:          float64(raw.AccY) * ACC_SCALE,
		AccZ:          float64(raw.AccZ) * ACC_SCALE,
		AngX:          float64(raw.AngX) * ANG_SCALE,
		AngY:          float64(raw.AngY) * ANG_SCALE,
		AngZ:          float64(raw.AngZ) * ANG_SCALE,
		NavStat:       NavStatLabel(raw.NavStat),
		Checksum1:     raw.Checksum1,
		Lat:           raw.Lat * RAD_TO_DEG,
		Long:          raw.Long * RAD_TO_DEG,
		Alti:          raw.Alti,
		VelNorth:      float64(raw.VelNorth) * VEL_SCALE,
		VelEast:       float64(raw.VelEast) * VEL_SCALE,
		VelDown:       float64(raw.VelDown) * VEL_SCALE,
		Heading:       float64(raw.Heading) * ATTITUDE_SCALE,
		Pitch:         float64(raw.Pitch) * ATTITUDE_SCALE,
		Roll:          float64(raw.Roll) * ATTITUDE_SCALE,
		Checksum2:     raw.Checksum2,
		StatusChannel: raw.StatusChannel,
		Status:        raw.Status,
		navStatCode:   raw.NavStat,
	}
}
