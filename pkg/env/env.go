package env

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrBadName is returned for names the bootloader cannot store
	ErrBadName = errors.New("env: invalid variable name")
	// ErrBadCRC is returned when an environment image fails its checksum
	ErrBadCRC = errors.New("env: bad CRC")
	// ErrEnvFull is returned when the variables no longer fit the image
	ErrEnvFull = errors.New("env: environment too large")
)

// Setter is the only operation setenvram needs from the store
type Setter interface {
	Set(name, value string) error
}

// Store is a bootloader environment
type Store interface {
	Setter
	Get(name string) (string, bool)
	Delete(name string) error
	Names() []string
}

// ValidName reports whether name can be stored. Names may not be empty or
// contain '=' or NUL since those delimit entries in the stored image.
func ValidName(name string) error {
	if name == "" || strings.ContainsAny(name, "=\x00") {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

// Map is an in-memory environment
type Map struct {
	vars map[string]string
}

// NewMap returns an empty environment
func NewMap() *Map {
	return &Map{vars: make(map[string]string)}
}

// Set creates or overwrites name
func (m *Map) Set(name, value string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	if strings.IndexByte(value, 0) >= 0 {
		return fmt.Errorf("env: value for %q contains NUL", name)
	}
	m.vars[name] = value
	return nil
}

// Get returns the value of name
func (m *Map) Get(name string) (string, bool) {
	v, ok := m.vars[name]
	return v, ok
}

// Delete removes name. Deleting a missing variable is not an error.
func (m *Map) Delete(name string) error {
	delete(m.vars, name)
	return nil
}

// Names returns all variable names in sorted order
func (m *Map) Names() []string {
	names := make([]string, 0, len(m.vars))
	for k := range m.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of variables
func (m *Map) Len() int {
	return len(m.vars)
}
