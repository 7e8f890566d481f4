package memory

import (
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"
)

// LoadImage reads a raw memory image from disk and places it at base
func LoadImage(path string, base uint64) (*Buffer, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("memory: image %s is empty", path)
	}
	return NewBuffer(base, data), nil
}

// SplitBase splits "thing@hexbase" into its parts. A missing base is zero.
func SplitBase(s string) (string, uint64, error) {
	i := strings.LastIndex(s, "@")
	if i < 0 {
		return s, 0, nil
	}
	hex := strings.TrimPrefix(strings.TrimPrefix(s[i+1:], "0x"), "0X")
	base, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return "", 0, fmt.Errorf("memory: bad base address %q: %v", s[i+1:], err)
	}
	return s[:i], base, nil
}
