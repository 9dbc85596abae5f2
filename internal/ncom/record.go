package ncom

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math"
)

// Record is a decoded packet in physical units. Field order follows
// DefaultLayout.
type Record struct {
	Sync          uint8
	Time          uint16
	AccX          float64 // m/s²
	AccY          float64
	AccZ          float64
	AngX          float64 // deg/s
	AngY          float64
	AngZ          float64
	NavStat       string
	Checksum1     uint8
	Lat           float64 // degrees
	Long          float64 // degrees
	Alti          uint32
	VelNorth      float64 // m/s
	VelEast       float64
	VelDown       float64
	Heading       float64 // degrees
	Pitch         float64 // degrees
	Roll          float64 // degrees
	Checksum2     uint8
	StatusChannel uint8
	Status        [8]byte

	navStatCode uint8
}

// NavStatCode returns the numeric status code NavStat was resolved from.
func (r *Record) NavStatCode() uint8 { return r.navStatCode }

// SetNavStat sets the status code and its label together.
func (r *Record) SetNavStat(code uint8) {
	r.navStatCode = code
	r.NavStat = NavStatLabel(code)
}

// Field is a named record value.
type Field struct {
	Name  string
	Value any
}

// Value returns the value of the field with the given id.
func (r *Record) Value(id FieldID) any {
	switch id {
	case FieldSync:
		return r.Sync
	case FieldTime:
		return r.Time
	case FieldAccX:
		return r.AccX
	case FieldAccY:
		return r.AccY
	case FieldAccZ:
		return r.AccZ
	case FieldAngX:
		return r.AngX
	case FieldAngY:
		return r.AngY
	case FieldAngZ:
		return r.AngZ
	case FieldNavStat:
		return r.NavStat
	case FieldChecksum1:
		return r.Checksum1
	case FieldLat:
		return r.Lat
	case FieldLong:
		return r.Long
	case FieldAlti:
		return r.Alti
	case FieldVelNorth:
		return r.VelNorth
	case FieldVelEast:
		return r.VelEast
	case FieldVelDown:
		return r.VelDown
	case FieldHeading:
		return r.Heading
	case FieldPitch:
		return r.Pitch
	case FieldRoll:
		return r.Roll
	case FieldChecksum2:
		return r.Checksum2
	case FieldStatusChannel:
		return r.StatusChannel
	case FieldStatus:
		return r.Status
	}
	return nil
}

// Fields returns all values as (name, value) pairs in layout order.
func (r *Record) Fields() []Field {
	fields := make([]Field, 0, len(DefaultLayout))
	for _, f := range DefaultLayout {
		fields = append(fields, Field{Name: f.Name, Value: r.Value(f.ID)})
	}
	return fields
}

// Field looks up a value by its layout name, e.g. "Vel_North".
func (r *Record) Field(name string) (any, bool) {
	f, ok := DefaultLayout.Lookup(name)
	if !ok {
		return nil, false
	}
	return r.Value(f.ID), true
}

// MarshalJSON encodes the record as an object whose keys follow layout
// order. Status is a hex string; non-finite floats become null.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var v any = f.Value
		switch x := f.Value.(type) {
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				v = nil
			}
		case [8]byte:
			v = hex.EncodeToString(x[:])
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
