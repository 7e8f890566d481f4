package memory

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DevMemPath is the physical memory device
const DevMemPath = "/dev/mem"

// DevMem reads physical memory through /dev/mem. Each read maps the pages
// covering the request and unmaps them before returning.
type DevMem struct {
	Path string
}

// NewDevMem returns a reader over the system's physical memory device
func NewDevMem() *DevMem {
	return &DevMem{Path: DevMemPath}
}

// ReadMemory implements Reader
func (d *DevMem) ReadMemory(addr uint64, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	f, err := os.OpenFile(d.Path, os.O_RDONLY|os.O_SYNC, 0)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	page := uint64(os.Getpagesize())
	start := addr &^ (page - 1)
	off := addr - start
	size := int(off) + len(data)

	mem, err := unix.Mmap(int(f.Fd()), int64(start), size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return 0, fmt.Errorf("%w: mmap 0x%x: %v", ErrUnmapped, addr, err)
	}
	defer unix.Munmap(mem)

	return copy(data, mem[off:]), nil
}
