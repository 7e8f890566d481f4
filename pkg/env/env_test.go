package env

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMapSet(t *testing.T) {
	m := NewMap()
	if err := m.Set("rev", "0x8"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set("rev", "8"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, ok := m.Get("rev"); !ok || v != "8" {
		t.Errorf("Get(rev) = %q, %v", v, ok)
	}

	for _, name := range []string{"", "a=b", "nul\x00"} {
		if err := m.Set(name, "x"); !errors.Is(err, ErrBadName) {
			t.Errorf("Set(%q) = %v, want ErrBadName", name, err)
		}
	}
	if m.Len() != 1 {
		t.Errorf("rejected names must not be stored, have %v", m.Names())
	}
}

// Build an image the way the bootloader's default environment is generated
func makeImage(size int, vars string) []byte {
	buf := make([]byte, size)
	copy(buf[crc32.Size:], strings.Replace(vars, "\n", "\x00", -1))
	binary.LittleEndian.PutUint32(buf, crc32.ChecksumIEEE(buf[crc32.Size:]))
	return buf
}

func TestImageDecode(t *testing.T) {
	raw := makeImage(0x200, "baudrate=115200\nbootcmd=run readmac sfboot\nloadaddr=0x82000000\n")

	img := NewImage("", 0x200, false)
	if err := img.Decode(raw); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []string{"baudrate", "bootcmd", "loadaddr"}
	if diff := cmp.Diff(want, img.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	if v, _ := img.Get("bootcmd"); v != "run readmac sfboot" {
		t.Errorf("bootcmd = %q", v)
	}

	// the encoder sorts entries so an already sorted image is reproduced exactly
	out, err := img.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(raw, out) {
		t.Errorf("re-encoded image differs from original")
	}
}

func TestImageBadCRC(t *testing.T) {
	raw := makeImage(0x100, "a=1\n")
	raw[10] ^= 0xff

	img := NewImage("", 0x100, false)
	if err := img.Decode(raw); !errors.Is(err, ErrBadCRC) {
		t.Fatalf("Decode = %v, want ErrBadCRC", err)
	}
}

func TestImageRedundant(t *testing.T) {
	img := NewImage("", 0x100, true)
	img.Flags = 1
	img.Set("serial#", "A1B2")

	raw, err := img.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if raw[crc32.Size] != 1 {
		t.Errorf("flags byte = %d, want 1", raw[crc32.Size])
	}
	if !bytes.HasPrefix(raw[crc32.Size+1:], []byte("serial#=A1B2\x00\x00")) {
		t.Errorf("unexpected data area %q", raw[crc32.Size+1:crc32.Size+16])
	}

	back := NewImage("", 0x100, true)
	if err := back.Decode(raw); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v, _ := back.Get("serial#"); v != "A1B2" || back.Flags != 1 {
		t.Errorf("got %q flags %d", v, back.Flags)
	}
}

func TestImageFull(t *testing.T) {
	img := NewImage("", 16, false)
	img.Set("long", strings.Repeat("x", 20))
	if _, err := img.Encode(); !errors.Is(err, ErrEnvFull) {
		t.Errorf("Encode = %v, want ErrEnvFull", err)
	}
}

func TestImageSaveAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uboot.env")

	img, err := OpenImage(path, 0x400, false)
	if err != nil {
		t.Fatalf("OpenImage on missing file: %v", err)
	}
	img.Set("return_var", "0x8")
	if err := img.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 0x400 {
		t.Errorf("image size = %d, want 0x400", len(raw))
	}

	again, err := OpenImage(path, 0x400, false)
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	if v, ok := again.Get("return_var"); !ok || v != "0x8" {
		t.Errorf("return_var = %q, %v", v, ok)
	}
}

type fakeConn struct {
	bytes.Buffer
	closed bool
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestConsole(t *testing.T) {
	conn := new(fakeConn)
	c := NewConsole(conn)
	c.AutoSave = true

	if err := c.Set("return_str", "j4"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("args", "console=ttyS0 quiet"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete("old"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	c.Close()

	want := "setenv return_str j4\rsaveenv\r" +
		"setenv args 'console=ttyS0 quiet'\rsaveenv\r" +
		"setenv old\r"
	if diff := cmp.Diff(want, conn.String()); diff != "" {
		t.Errorf("console output mismatch (-want +got):\n%s", diff)
	}
	if !conn.closed {
		t.Errorf("Close did not close the connection")
	}
}

func TestMirror(t *testing.T) {
	conn := new(fakeConn)
	m := &Mirror{Store: NewMap(), Remote: NewConsole(conn)}

	if err := m.Set("rev", "0x8"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set("bad=name", "x"); !errors.Is(err, ErrBadName) {
		t.Errorf("Set bad name = %v", err)
	}
	if err := m.Delete("rev"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, ok := m.Get("rev"); ok {
		t.Errorf("rev still present locally")
	}
	if diff := cmp.Diff("setenv rev 0x8\rsetenv rev\rsaveenv\r", conn.String()); diff != "" {
		t.Errorf("console output mismatch (-want +got):\n%s", diff)
	}
}

func TestMirrorSavesBoth(t *testing.T) {
	conn := new(fakeConn)
	path := filepath.Join(t.TempDir(), "uboot.env")
	m := &Mirror{Store: NewImage(path, 0x100, false), Remote: NewConsole(conn)}

	if err := m.Set("bootcmd", "run a; run b"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if diff := cmp.Diff("setenv bootcmd 'run a; run b'\rsaveenv\r", conn.String()); diff != "" {
		t.Errorf("console output mismatch (-want +got):\n%s", diff)
	}
	img, err := OpenImage(path, 0x100, false)
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	if got, _ := img.Get("bootcmd"); got != "run a; run b" {
		t.Errorf("local image bootcmd = %q", got)
	}
}
