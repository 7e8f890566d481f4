package memory

import (
	"errors"
	"fmt"
)

// ErrUnmapped is returned when an address is not backed by any region
var ErrUnmapped = errors.New("memory: address not mapped")

// ErrShortRead is returned by ReadFull when fewer bytes than requested are available
var ErrShortRead = errors.New("memory: short read")

// Reader reads target memory at an absolute address. Implementations must
// never touch bytes outside the region they own.
//
// ReadMemory returns the number of bytes read, which may be less than
// len(data) when the request runs past the end of a region. An address that
// is not backed at all is an error.
type Reader interface {
	ReadMemory(addr uint64, data []byte) (int, error)
}

// ReadFull reads exactly n bytes starting at addr
func ReadFull(r Reader, addr uint64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("memory: negative length %d", n)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: 0x%x, no memory attached", ErrUnmapped, addr)
	}
	buf := make([]byte, n)
	got, err := r.ReadMemory(addr, buf)
	if err != nil {
		return nil, err
	}
	if got != n {
		return nil, fmt.Errorf("%w: 0x%x wanted %d bytes, got %d", ErrShortRead, addr, n, got)
	}
	return buf, nil
}

// Buffer is a single contiguous region of memory, usually the contents of an
// image file loaded at a base address.
type Buffer struct {
	Base uint64
	Data []byte
}

// NewBuffer returns a region of data starting at base
func NewBuffer(base uint64, data []byte) *Buffer {
	return &Buffer{Base: base, Data: data}
}

// ReadMemory implements Reader
func (b *Buffer) ReadMemory(addr uint64, data []byte) (int, error) {
	if !b.Contains(addr) {
		return 0, fmt.Errorf("%w: 0x%x outside 0x%x-0x%x", ErrUnmapped, addr, b.Base, b.End())
	}
	off := addr - b.Base
	return copy(data, b.Data[off:]), nil
}

// Contains reports whether addr falls inside the region
func (b *Buffer) Contains(addr uint64) bool {
	return addr >= b.Base && addr-b.Base < uint64(len(b.Data))
}

// End returns the address just past the last byte of the region
func (b *Buffer) End() uint64 {
	return b.Base + uint64(len(b.Data))
}

// Map is a set of non-overlapping regions forming a sparse address space
type Map struct {
	regions []*Buffer
}

// NewMap builds a map out of the given regions
func NewMap(regions ...*Buffer) (*Map, error) {
	m := new(Map)
	for _, r := range regions {
		if err := m.Add(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add inserts a region, rejecting any overlap with existing regions
func (m *Map) Add(r *Buffer) error {
	for _, cur := range m.regions {
		if r.Base < cur.End() && cur.Base < r.End() {
			return fmt.Errorf("memory: region 0x%x-0x%x overlaps 0x%x-0x%x", r.Base, r.End(), cur.Base, cur.End())
		}
	}
	m.regions = append(m.regions, r)
	return nil
}

// ReadMemory implements Reader. Reads never span two regions.
func (m *Map) ReadMemory(addr uint64, data []byte) (int, error) {
	for _, r := range m.regions {
		if r.Contains(addr) {
			return r.ReadMemory(addr, data)
		}
	}
	return 0, fmt.Errorf("%w: 0x%x", ErrUnmapped, addr)
}
