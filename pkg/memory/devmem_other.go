//go:build !linux
// +build !linux

package memory

import "errors"

// DevMemPath is the physical memory device
const DevMemPath = "/dev/mem"

// DevMem is only supported on linux
type DevMem struct {
	Path string
}

// NewDevMem returns a reader that always fails on this platform
func NewDevMem() *DevMem {
	return &DevMem{Path: DevMemPath}
}

// ReadMemory implements Reader
func (d *DevMem) ReadMemory(addr uint64, data []byte) (int, error) {
	return 0, errors.New("memory: /dev/mem access is only supported on linux")
}
