package keepkey

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"
)

// fakeDevice answers DebugLinkFlashDump requests out of a memory image.
// Requests are parsed as they are written; replies are streamed back
// through a pipe so reads block like a real interface.
type fakeDevice struct {
	mem  []byte
	base uint32

	mu       sync.Mutex
	pending  []byte
	requests []uint32 // lengths of each dump request
	r        *io.PipeReader
	w        *io.PipeWriter
}

func newFakeDevice(base uint32, mem []byte) *fakeDevice {
	r, w := io.Pipe()
	return &fakeDevice{mem: mem, base: base, r: r, w: w}
}

func (d *fakeDevice) Read(p []byte) (int, error) { return d.r.Read(p) }

func (d *fakeDevice) Close() error {
	d.w.Close()
	return nil
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	if len(p) != reportSize || p[0] != reportID {
		return 0, errors.New("bad report")
	}
	d.mu.Lock()
	d.pending = append(d.pending, p[1:]...)
	if len(d.pending) < headerSize {
		d.mu.Unlock()
		return len(p), nil
	}
	size := int(binary.BigEndian.Uint32(d.pending[4:8]))
	if len(d.pending) < headerSize+size {
		d.mu.Unlock()
		return len(p), nil
	}
	kind := binary.BigEndian.Uint16(d.pending[2:4])
	body := append([]byte(nil), d.pending[headerSize:headerSize+size]...)
	d.pending = nil
	d.mu.Unlock()

	go d.reply(kind, body)
	return len(p), nil
}

func (d *fakeDevice) reply(kind uint16, body []byte) {
	if kind != typeDebugLinkFlashDump {
		writeMessage(d.w, stringMessage(typeFailure, 2, "Unknown message"))
		return
	}
	_, ints, _ := fields(body)
	addr, length := uint32(ints[1]), uint32(ints[2])

	d.mu.Lock()
	d.requests = append(d.requests, length)
	d.mu.Unlock()

	if addr < d.base || addr-d.base+length > uint32(len(d.mem)) {
		writeMessage(d.w, stringMessage(typeFailure, 2, "Invalid address"))
		return
	}
	off := addr - d.base
	writeMessage(d.w, message{
		kind: typeDebugLinkFlashDumpResponse,
		body: protowire.AppendBytes(protowire.AppendTag(nil, 1, protowire.BytesType), d.mem[off:off+length]),
	})
}

func TestFraming(t *testing.T) {
	var buf bytes.Buffer
	body := bytes.Repeat([]byte{0xab}, 100)
	if err := writeMessage(&buf, message{kind: typeDebugLinkFlashDumpResponse, body: body}); err != nil {
		t.Fatal(err)
	}
	// 8 byte header + 100 byte body spread over 63 byte payloads
	if buf.Len() != 2*reportSize {
		t.Fatalf("wrote %d bytes, want %d", buf.Len(), 2*reportSize)
	}
	raw := buf.Bytes()
	if raw[0] != reportID || raw[1] != '#' || raw[2] != '#' || raw[reportSize] != reportID {
		t.Errorf("unexpected report headers % x / % x", raw[:3], raw[reportSize])
	}

	resp, err := readMessage(&buf)
	if err != nil {
		t.Fatalf("readMessage: %v", err)
	}
	if resp.kind != typeDebugLinkFlashDumpResponse {
		t.Errorf("kind = %s", Name(resp.kind))
	}
	if diff := cmp.Diff(body, resp.reply); diff != "" {
		t.Errorf("reply mismatch (-want +got):\n%s", diff)
	}
}

func TestReadMessageBadHeader(t *testing.T) {
	chunk := make([]byte, reportSize)
	chunk[0] = reportID
	if _, err := readMessage(bytes.NewReader(chunk)); err == nil {
		t.Errorf("expected error for missing ## header")
	}
}

func TestFlashDumpChunks(t *testing.T) {
	mem := make([]byte, 3000)
	for i := range mem {
		mem[i] = byte(i)
	}
	conn, debug := newFakeDevice(0, nil), newFakeDevice(0x08000000, mem)
	kk := NewFromTransport(conn, debug, &Config{})
	defer kk.Close()

	got, err := kk.FlashDump(0x08000010, 2500)
	if err != nil {
		t.Fatalf("FlashDump: %v", err)
	}
	if !bytes.Equal(got, mem[0x10:0x10+2500]) {
		t.Errorf("dumped data does not match device memory")
	}
	if diff := cmp.Diff([]uint32{1024, 1024, 452}, debug.requests); diff != "" {
		t.Errorf("request sizes (-want +got):\n%s", diff)
	}
}

func TestReadMemory(t *testing.T) {
	debug := newFakeDevice(0x1800, []byte{0x00, 0x08, 0x6a, 0x34})
	kk := NewFromTransport(newFakeDevice(0, nil), debug, &Config{})
	defer kk.Close()

	buf := make([]byte, 2)
	n, err := kk.ReadMemory(0x1802, buf)
	if err != nil || n != 2 {
		t.Fatalf("ReadMemory = %d, %v", n, err)
	}
	if string(buf) != "j4" {
		t.Errorf("read %q, want j4", buf)
	}

	_, err = kk.ReadMemory(0x9000, buf)
	if err == nil || !strings.Contains(err.Error(), "Invalid address") {
		t.Errorf("expected device failure, got %v", err)
	}

	if _, err := kk.ReadMemory(1<<32, buf); err == nil {
		t.Errorf("expected error for address beyond 32 bits")
	}
}

func TestFlashDumpNeedsDebugLink(t *testing.T) {
	kk := NewFromTransport(newFakeDevice(0, nil), nil, &Config{})
	defer kk.Close()

	if _, err := kk.FlashDump(0x1000, 4); err == nil {
		t.Errorf("expected error without debug link")
	}
}

func TestFailureMessage(t *testing.T) {
	body := protowire.AppendVarint(protowire.AppendTag(nil, 1, protowire.VarintType), 9)
	if got := failureMessage(body); got != "failure code 9" {
		t.Errorf("failureMessage = %q", got)
	}
	body = stringMessage(typeFailure, 2, "Action cancelled by user").body
	if got := failureMessage(body); got != "Action cancelled by user" {
		t.Errorf("failureMessage = %q", got)
	}
}
