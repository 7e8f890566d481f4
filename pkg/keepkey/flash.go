package keepkey

import (
	"fmt"
	"math"
)

// MaxDumpSize is the largest block the firmware returns for one request
const MaxDumpSize = 1024

// FlashDump reads length bytes of device memory starting at addr
func (kk *Keepkey) FlashDump(addr, length uint32) ([]byte, error) {
	out := make([]byte, 0, length)
	for length > 0 {
		l := min(MaxDumpSize, length)
		_, reply, err := kk.exchange(flashDumpRequest(addr, l), typeDebugLinkFlashDumpResponse)
		if err != nil {
			return out, err
		}
		bufs, _, err := fields(reply)
		if err != nil {
			return out, fmt.Errorf("keepkey: bad flash dump response: %v", err)
		}
		data := bufs[1]
		if len(data) == 0 {
			return out, fmt.Errorf("keepkey: empty flash dump at 0x%08x", addr)
		}
		if uint32(len(data)) > l {
			data = data[:l]
		}
		out = append(out, data...)

		length -= uint32(len(data))
		addr += uint32(len(data))
	}
	return out, nil
}

// ReadMemory implements memory.Reader over the debug link. The device has
// a 32 bit address space.
func (kk *Keepkey) ReadMemory(addr uint64, data []byte) (int, error) {
	if addr > math.MaxUint32 || addr+uint64(len(data)) > math.MaxUint32+1 {
		return 0, fmt.Errorf("keepkey: address 0x%x outside 32 bit address space", addr)
	}
	buf, err := kk.FlashDump(uint32(addr), uint32(len(data)))
	n := copy(data, buf)
	if err != nil && n == 0 {
		return 0, err
	}
	return n, nil
}

func min(x, y uint32) uint32 {
	if x < y {
		return x
	}
	return y
}
