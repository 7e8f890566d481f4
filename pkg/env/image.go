package env

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io/ioutil"
	"os"
)

// DefaultSize is the size of the environment area in flash
const DefaultSize = 0x4000

// Image is an environment backed by a U-Boot style binary image:
//
//	crc32 (little endian) | [flags] | name=value\0 ... name=value\0 \0 | zero padding
//
// The checksum covers everything after the header. Redundant environments
// carry one extra flags byte between the checksum and the data.
type Image struct {
	*Map
	Path      string
	Size      int
	Redundant bool
	Flags     byte
	logger
}

// NewImage returns an empty environment that will be saved to path
func NewImage(path string, size int, redundant bool) *Image {
	if size <= 0 {
		size = DefaultSize
	}
	return &Image{Map: NewMap(), Path: path, Size: size, Redundant: redundant}
}

// OpenImage loads the image at path. A missing file yields an empty
// environment so that the first saveenv creates it.
func OpenImage(path string, size int, redundant bool) (*Image, error) {
	img := NewImage(path, size, redundant)
	buf, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return img, nil
	}
	if err != nil {
		return nil, err
	}
	if err := img.Decode(buf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func (img *Image) header() int {
	if img.Redundant {
		return crc32.Size + 1
	}
	return crc32.Size
}

// Decode replaces the variables with the contents of buf
func (img *Image) Decode(buf []byte) error {
	hdr := img.header()
	if len(buf) <= hdr {
		return fmt.Errorf("env: image too small (%d bytes)", len(buf))
	}
	data := buf[hdr:]
	want := binary.LittleEndian.Uint32(buf[:crc32.Size])
	if got := crc32.ChecksumIEEE(data); got != want {
		return fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrBadCRC, want, got)
	}
	if img.Redundant {
		img.Flags = buf[crc32.Size]
	}

	vars := NewMap()
	for len(data) > 0 && data[0] != 0 {
		end := bytes.IndexByte(data, 0)
		if end < 0 {
			return fmt.Errorf("env: unterminated entry at end of image")
		}
		entry := data[:end]
		data = data[end+1:]

		eq := bytes.IndexByte(entry, '=')
		if eq <= 0 {
			img.log("env: skipping malformed entry %q", entry)
			continue
		}
		vars.vars[string(entry[:eq])] = string(entry[eq+1:])
	}
	img.Map = vars
	return nil
}

// Encode renders the variables into an image of Size bytes
func (img *Image) Encode() ([]byte, error) {
	hdr := img.header()
	buf := make([]byte, img.Size)
	data := buf[hdr:]

	off := 0
	for _, name := range img.Names() {
		entry := name + "=" + img.vars[name]
		// keep room for this entry's NUL and the final terminator
		if off+len(entry)+2 > len(data) {
			return nil, fmt.Errorf("%w: %d bytes available", ErrEnvFull, len(data))
		}
		off += copy(data[off:], entry)
		off++
	}

	binary.LittleEndian.PutUint32(buf[:crc32.Size], crc32.ChecksumIEEE(data))
	if img.Redundant {
		buf[crc32.Size] = img.Flags
	}
	return buf, nil
}

// Save writes the image back to Path
func (img *Image) Save() error {
	buf, err := img.Encode()
	if err != nil {
		return err
	}
	img.log("env: saving %d variables to %s", img.Len(), img.Path)
	return ioutil.WriteFile(img.Path, buf, 0644)
}

// SetLogger sets where diagnostic output is written
func (img *Image) SetLogger(l logger) {
	img.logger = l
}

func (img *Image) log(str string, args ...interface{}) {
	if img.logger != nil {
		img.logger.Printf(str, args...)
	}
}

// logger is a simple printf style output interface
type logger interface {
	Printf(string, ...interface{})
}
