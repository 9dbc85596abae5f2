package ncom

// RawPacket holds the unscaled field values of one packet, as extracted
// from the wire.
type RawPacket struct {
	Sync          uint8
	Time          uint16 // milliseconds into the GPS minute
	AccX          int32  // 1e-4 m/s²
	AccY          int32
	AccZ          int32
	AngX          int32 // 1e-5 deg/s
	AngY          int32
	AngZ          int32
	NavStat       uint8
	Checksum1     uint8
	Lat           float64 // radians
	Long          float64 // radians
	Alti          uint32
	VelNorth      int32 // 1e-4 m/s
	VelEast       int32
	VelDown       int32
	Heading       int32  // 1e-6 radians
	Pitch         uint32 // 1e-6 radians
	Roll          uint32 // 1e-6 radians
	Checksum2     uint8
	StatusChannel uint8
	Status        [8]byte
}

// NewRawPacket returns a RawPacket with the sync byte set.
func NewRawPacket() RawPacket {
	return RawPacket{Sync: SyncByte}
}

func (r *RawPacket) setUnsigned(id FieldID, v uint32) {
	switch id {
	case FieldSync:
		r.Sync = uint8(v)
	case FieldTime:
		r.Time = uint16(v)
	case FieldNavStat:
		r.NavStat = uint8(v)
	case FieldChecksum1:
		r.Checksum1 = uint8(v)
	case FieldAlti:
		r.Alti = v
	case FieldPitch:
		r.Pitch = v
	case FieldRoll:
		r.Roll = v
	case FieldChecksum2:
		r.Checksum2 = uint8(v)
	case FieldStatusChannel:
		r.StatusChannel = uint8(v)
	}
}

func (r *RawPacket) unsigned(id FieldID) uint32 {
	switch id {
	case FieldSync:
		return uint32(r.Sync)
	case FieldTime:
		return uint32(r.Time)
	case FieldNavStat:
		return uint32(r.NavStat)
	case FieldChecksum1:
		return uint32(r.Checksum1)
	case FieldAlti:
		return r.Alti
	case FieldPitch:
		return r.Pitch
	case FieldRoll:
		return r.Roll
	case FieldChecksum2:
		return uint32(r.Checksum2)
	case FieldStatusChannel:
		return uint32(r.StatusChannel)
	}
	return 0
}

// signedField returns a pointer to the 24-bit signed field with the given id.
func (r *RawPacket) signedField(id FieldID) *int32 {
	switch id {
	case FieldAccX:
		return &r.AccX
	case FieldAccY:
		return &r.AccY
	case FieldAccZ:
		return &r.AccZ
	case FieldAngX:
		return &r.AngX
	case FieldAngY:
		return &r.AngY
	case FieldAngZ:
		return &r.AngZ
	case FieldVelNorth:
		return &r.VelNorth
	case FieldVelEast:
		return &r.VelEast
	case FieldVelDown:
		return &r.VelDown
	case FieldHeading:
		return &r.Heading
	}
	return nil
}

func (r *RawPacket) floatField(id FieldID) *float64 {
	switch id {
	case FieldLat:
		return &r.Lat
	case FieldLong:
		return &r.Long
	}
	return nil
}
