package setenvram

import (
	"encoding/binary"
	"math/bits"
)

// The w and l widths apply the socket style conversions to a value loaded in
// host order. ntohs and htonl are both a swap on little endian hosts and the
// identity on big endian ones, so either way the result is the bytes read as
// big endian. They are kept as two names because scripts document them that way.

func (c *Command) ntohs(x uint16) uint16 {
	if bigEndian(c.hostOrder) {
		return x
	}
	return bits.ReverseBytes16(x)
}

func (c *Command) htonl(x uint32) uint32 {
	if bigEndian(c.hostOrder) {
		return x
	}
	return bits.ReverseBytes32(x)
}

func bigEndian(o binary.ByteOrder) bool {
	var b [2]byte
	o.PutUint16(b[:], 1)
	return b[1] == 1
}
