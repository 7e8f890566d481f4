package setenvram

import (
	"fmt"
	"strconv"
	"strings"
)

// Width selects how many bytes are read and how they are interpreted
type Width byte

// Width codes accepted after the '.' in the command verb
const (
	WidthByte   Width = 'b' // 1 byte
	WidthWord   Width = 'w' // 2 bytes, network to host order
	WidthLong   Width = 'l' // 4 bytes, host to network order
	WidthNative Width = 'k' // 4 bytes, host order
	WidthString Width = 's' // length bytes copied verbatim
)

// Size returns the number of bytes a numeric width reads, or 0 for strings
// and unknown codes.
func (w Width) Size() int {
	switch w {
	case WidthByte:
		return 1
	case WidthWord:
		return 2
	case WidthLong, WidthNative:
		return 4
	}
	return 0
}

// Known reports whether w is one of the supported width codes
func (w Width) Known() bool {
	return w == WidthString || w.Size() > 0
}

func (w Width) String() string {
	return string(rune(w))
}

// Format selects how a numeric value is rendered
type Format byte

// Format codes
const (
	FormatDefault Format = 0   // no code given, hexadecimal
	FormatDecimal Format = 'd' // signed 32-bit decimal
)

func (f Format) String() string {
	if f == FormatDefault {
		return ""
	}
	return string(rune(f))
}

// Variant is the fully resolved form of a setenvram invocation
type Variant struct {
	Width  Width
	Format Format
}

func (v Variant) String() string {
	return "." + v.Width.String() + v.Format.String()
}

// ParseVerb resolves the variant from the command verb. The verb ends in
// either ".<width>" or ".<width><format>", for example "setenvram.w" or
// "setenvram.wd".
func ParseVerb(verb string) (Variant, error) {
	n := len(verb)
	switch {
	case n > 2 && verb[n-3] == '.':
		return Variant{Width: Width(verb[n-2]), Format: Format(verb[n-1])}, nil
	case n > 2 && verb[n-2] == '.':
		return Variant{Width: Width(verb[n-1])}, nil
	}
	return Variant{}, fmt.Errorf("%w: %q has no width suffix", ErrUsage, verb)
}

// ParseVariant builds a variant from separate option values, as given on a
// command line with --width and --format. An empty or "x" format selects hex.
func ParseVariant(width, format string) (Variant, error) {
	if len(width) != 1 {
		return Variant{}, fmt.Errorf("%w: width must be one of b, w, l, k, s", ErrUsage)
	}
	v := Variant{Width: Width(width[0])}
	if !v.Width.Known() {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownWidth, width)
	}
	switch format {
	case "", "x":
	case "d":
		v.Format = FormatDecimal
	default:
		return Variant{}, fmt.Errorf("%w: format must be d or x", ErrUsage)
	}
	return v, nil
}

// ParseHex parses a hexadecimal argument. A leading 0x is accepted.
func ParseHex(s string) (uint64, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if t == "" {
		return 0, fmt.Errorf("empty hex value %q", s)
	}
	return strconv.ParseUint(t, 16, 64)
}
