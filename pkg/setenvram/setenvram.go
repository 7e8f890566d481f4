// Package setenvram implements the bootloader command that copies a value
// out of memory into an environment variable.
//
//	setenvram.w return_var 0x1800        (memory 0x1800: 00 08)
//	  return_var = 0x8
//	setenvram.wd return_dec 0x1800
//	  return_dec = 8
//	setenvram.s return_str 0x1900 0x02   (memory 0x1900: 6a 34)
//	  return_str = j4
package setenvram

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/solipsis/go-bootenv/pkg/env"
	"github.com/solipsis/go-bootenv/pkg/memory"
)

// BufferSize bounds the number of bytes a string read may copy
const BufferSize = 200

// Usage is the help text printed on every usage error
const Usage = "setenvram name addr {len}\n" +
	"[.b, .w, .l, .s, .k] name address {max_length}\n" +
	"    - set environment variable 'name' from addr 'addr'\n"

var (
	// ErrUsage is matched by every argument error
	ErrUsage = errors.New("usage")
	// ErrBadAddress means the address argument is not hexadecimal
	ErrBadAddress = fmt.Errorf("%w: bad address", ErrUsage)
	// ErrZeroAddress means the address argument parsed to zero
	ErrZeroAddress = fmt.Errorf("%w: zero address", ErrUsage)
	// ErrBadLength means the length is missing, not hexadecimal, zero or too large
	ErrBadLength = fmt.Errorf("%w: bad length", ErrUsage)
	// ErrUnknownWidth means the verb named a width code that does not exist.
	// Run treats it as success without touching the environment.
	ErrUnknownWidth = errors.New("unknown width")
	// ErrMemory wraps failures of the memory reader
	ErrMemory = errors.New("memory read failed")
)

// Command is a setenvram instance bound to a memory and an environment
type Command struct {
	mem       memory.Reader
	env       env.Setter
	out       io.Writer
	hostOrder binary.ByteOrder
	logger
}

// Option configures a Command
type Option func(*Command)

// WithOutput sets where usage text is printed
func WithOutput(w io.Writer) Option {
	return func(c *Command) { c.out = w }
}

// WithHostOrder sets the byte order of the machine whose memory is read
func WithHostOrder(o binary.ByteOrder) Option {
	return func(c *Command) { c.hostOrder = o }
}

// WithLogger sets where diagnostics are written
func WithLogger(l logger) Option {
	return func(c *Command) { c.logger = l }
}

// New returns a command reading from mem and writing into e
func New(mem memory.Reader, e env.Setter, opts ...Option) *Command {
	c := &Command{
		mem:       mem,
		env:       e,
		out:       os.Stdout,
		hostOrder: binary.LittleEndian,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes one invocation and returns its exit status: 0 on success or
// an unknown width code, 1 otherwise. Usage text is printed on argument
// errors.
func (c *Command) Run(args []string) int {
	err := c.Exec(args)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUnknownWidth):
		c.log("setenvram: %v, nothing stored", err)
		return 0
	case errors.Is(err, ErrUsage):
		c.log("setenvram: %v", err)
		c.usage()
		return 1
	}
	fmt.Fprintln(c.out, color.RedString("setenvram: %v", err))
	return 1
}

// Exec executes one invocation. args[0] is the verb carrying the width
// suffix, followed by name, addr and an optional len.
func (c *Command) Exec(args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("%w: expected 3 or 4 arguments, got %d", ErrUsage, len(args))
	}

	addr, err := ParseHex(args[2])
	if err != nil {
		return fmt.Errorf("%w %q", ErrBadAddress, args[2])
	}
	if addr == 0 {
		return ErrZeroAddress
	}

	length := 0
	if len(args) == 4 {
		n, err := ParseHex(args[3])
		if err != nil || n == 0 || n >= BufferSize {
			return fmt.Errorf("%w %q", ErrBadLength, args[3])
		}
		length = int(n)
	}

	v, err := ParseVerb(args[0])
	if err != nil {
		return err
	}
	return c.Store(args[1], v, addr, length)
}

// Store reads the value selected by v at addr and writes it to name.
// length is only used by string reads.
func (c *Command) Store(name string, v Variant, addr uint64, length int) error {
	val, err := c.Read(v, addr, length)
	if err != nil {
		return err
	}
	c.log("setenvram: %s = %s (%s at 0x%x)", name, val, v, addr)
	return c.env.Set(name, val)
}

// Read returns the rendered value selected by v at addr
func (c *Command) Read(v Variant, addr uint64, length int) (string, error) {
	if !v.Width.Known() {
		return "", fmt.Errorf("%w %q", ErrUnknownWidth, v.Width)
	}

	if v.Width == WidthString {
		if length <= 0 || length >= BufferSize {
			return "", fmt.Errorf("%w: string reads need a length below 0x%x", ErrBadLength, BufferSize)
		}
		raw, err := c.read(addr, length)
		if err != nil {
			return "", err
		}
		// the value ends at the first NUL, as the bootloader's buffer did
		if i := bytes.IndexByte(raw, 0); i >= 0 {
			raw = raw[:i]
		}
		return string(raw), nil
	}

	raw, err := c.read(addr, v.Width.Size())
	if err != nil {
		return "", err
	}

	var val uint32
	switch v.Width {
	case WidthByte:
		val = uint32(raw[0])
	case WidthWord:
		val = uint32(c.ntohs(c.hostOrder.Uint16(raw)))
	case WidthLong:
		val = c.htonl(c.hostOrder.Uint32(raw))
	case WidthNative:
		val = c.hostOrder.Uint32(raw)
	}

	// decimal is rendered signed, so a word with the top bit set reads negative
	if v.Format == FormatDecimal {
		return strconv.FormatInt(int64(int32(val)), 10), nil
	}
	return "0x" + strconv.FormatUint(uint64(val), 16), nil
}

func (c *Command) read(addr uint64, n int) ([]byte, error) {
	raw, err := memory.ReadFull(c.mem, addr, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMemory, err)
	}
	return raw, nil
}

func (c *Command) usage() {
	fmt.Fprint(c.out, color.YellowString("Usage:\n%s\n", Usage))
}

func (c *Command) log(str string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(str, args...)
	}
}

// logger is a simple printf style output interface
type logger interface {
	Printf(string, ...interface{})
}
