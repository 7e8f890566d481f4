package env

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/term"
)

// DefaultBaud is the console speed most boards come up with
const DefaultBaud = 115200

// Console forwards environment writes to a bootloader running on the other
// end of a serial line by typing setenv commands at its prompt.
type Console struct {
	conn     io.ReadWriteCloser
	AutoSave bool // Follow every write with saveenv
	logger
}

// OpenConsole opens the serial device in raw mode at the given speed
func OpenConsole(device string, baud int) (*Console, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	t, err := term.Open(device, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("env: open console %s: %v", device, err)
	}
	return NewConsole(t), nil
}

// NewConsole wraps an already open connection
func NewConsole(conn io.ReadWriteCloser) *Console {
	return &Console{conn: conn}
}

// Set sends "setenv name value" to the remote bootloader
func (c *Console) Set(name, value string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	if err := c.send("setenv " + name + " " + quote(value)); err != nil {
		return err
	}
	if c.AutoSave {
		return c.Save()
	}
	return nil
}

// Delete clears name on the remote bootloader
func (c *Console) Delete(name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	return c.send("setenv " + name)
}

// Save persists the remote environment
func (c *Console) Save() error {
	return c.send("saveenv")
}

// Close closes the serial line
func (c *Console) Close() error {
	return c.conn.Close()
}

// SetLogger sets where the echoed command lines are written
func (c *Console) SetLogger(l logger) {
	c.logger = l
}

func (c *Console) send(line string) error {
	if c.logger != nil {
		c.logger.Printf("console: %s", line)
	}
	_, err := io.WriteString(c.conn, line+"\r")
	return err
}

// quote protects values the bootloader's parser would otherwise split or expand
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t;'\"$\\") {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}
