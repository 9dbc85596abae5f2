package ncom

import (
	"encoding/binary"
	"math"
)

// Encode writes raw into a new PacketSize-byte buffer using the default
// layout. It is the inverse of Extract.
func Encode(raw RawPacket) []byte {
	return defaultDecoder.Encode(raw)
}

// Encode writes raw into a new buffer according to the decoder's layout.
// Integer values wider than their field are truncated to the field width.
func (d *Decoder) Encode(raw RawPacket) []byte {
	buf := make([]byte, PacketSize)
	for _, f := range d.layout {
		b := buf[f.Offset:f.End()]
		switch f.Encoding {
		case Unsigned:
			writeUnsigned(b, raw.unsigned(f.ID))
		case Signed:
			writeUnsigned(b, uint32(*raw.signedField(f.ID)))
		case Float64:
			binary.LittleEndian.PutUint64(b, math.Float64bits(*raw.floatField(f.ID)))
		case Bytes:
			copy(b, raw.Status[:])
		}
	}
	return buf
}

func writeUnsigned(b []byte, v uint32) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 3:
		PutUint24(b, v)
	default:
		binary.LittleEndian.PutUint32(b, v)
	}
}

// Unscale converts a record back to raw units, rounding each scaled value
// to the nearest integer step.
func Unscale(rec *Record) RawPacket {
	return RawPacket{
		Sync:          rec.Sync,
		Time:          rec.Time,
		AccX:          roundInt32(rec.AccX / ACC_SCALE),
		AccY:          roundInt32(rec.AccY / ACC_SCALE),
		AccZ:          roundInt32(rec.AccZ / ACC_SCALE),
		AngX:          roundInt32(rec.AngX / ANG_SCALE),
		AngY:          roundInt32(rec.AngY / ANG_SCALE),
		AngZ:          roundInt32(rec.AngZ / ANG_SCALE),
		NavStat:       rec.navStatCode,
		Checksum1:     rec.Checksum1,
		Lat:           rec.Lat / RAD_TO_DEG,
		Long:          rec.Long / RAD_TO_DEG,
		Alti:          rec.Alti,
		VelNorth:      roundInt32(rec.VelNorth / VEL_SCALE),
		VelEast:       roundInt32(rec.VelEast / VEL_SCALE),
		VelDown:       roundInt32(rec.VelDown / VEL_SCALE),
		Heading:       roundInt32(rec.Heading / ATTITUDE_SCALE),
		Pitch:         uint32(math.Round(rec.Pitch / ATTITUDE_SCALE)),
		Roll:          uint32(math.Round(rec.Roll / ATTITUDE_SCALE)),
		Checksum2:     rec.Checksum2,
		StatusChannel: rec.StatusChannel,
		Status:        rec.Status,
	}
}

func roundInt32(v float64) int32 {
	return int32(math.Round(v))
}
