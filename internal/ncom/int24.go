package ncom

// Uint24 assembles three little-endian bytes into an unsigned value.
func Uint24(b []byte) uint32 {
	_ = b[2] // bounds check hint
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// Int24 assembles three little-endian bytes into a two's complement value.
// The 24-bit pattern is shifted into the top of an int32 and arithmetically
// shifted back so bit 23 fills the upper byte.
func Int24(b []byte) int32 {
	return int32(Uint24(b)<<8) >> 8
}

// PutUint24 writes the low 24 bits of v in little-endian order.
func PutUint24(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// PutInt24 writes v as a 24-bit two's complement value. Values outside
// [MinInt24, MaxInt24] are truncated to their low 24 bits.
func PutInt24(b []byte, v int32) {
	PutUint24(b, uint32(v))
}

const (
	MaxInt24  = 1<<23 - 1
	MinInt24  = -1 << 23
	MaxUint24 = 1<<24 - 1
)
