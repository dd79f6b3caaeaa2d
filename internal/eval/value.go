package eval

import "quarry/internal/symbols"

// Value is a resolved variable value: its raw bytes, its type, and
// where the bytes came from. Register is -1 unless the value lives
// directly in a register.
type Value struct {
	Type symbols.Type
	Data []byte

	Address    uint64
	HasAddress bool
	Register   int32
}

// Uint reads the bytes as a little-endian unsigned integer.
func (v Value) Uint() uint64 {
	var out uint64
	n := len(v.Data)
	if n > 8 {
		n = 8
	}
	for i := n - 1; i >= 0; i-- {
		out = out<<8 | uint64(v.Data[i])
	}
	return out
}

// Int reads the bytes as a little-endian signed integer of the data's
// own width.
func (v Value) Int() int64 {
	out := v.Uint()
	bits := uint(len(v.Data) * 8)
	if bits == 0 || bits >= 64 {
		return int64(out)
	}
	shift := 64 - bits
	return int64(out<<shift) >> shift
}
