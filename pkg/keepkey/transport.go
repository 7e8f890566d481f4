package keepkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HID report framing
const (
	reportSize = 64
	reportID   = 0x3f
	headerSize = 8 // "##" + type + length
)

// ErrClosed is returned when the device stops answering
var ErrClosed = errors.New("keepkey: connection closed")

// writeMessage frames a message and streams it to the device in
// fixed size reports, padding the final report with zeroes
func writeMessage(w io.Writer, msg message) error {
	payload := make([]byte, headerSize+len(msg.body))
	copy(payload, []byte{0x23, 0x23}) // ## header
	binary.BigEndian.PutUint16(payload[2:], msg.kind)
	binary.BigEndian.PutUint32(payload[4:], uint32(len(msg.body)))
	copy(payload[headerSize:], msg.body)

	chunk := make([]byte, reportSize)
	chunk[0] = reportID
	for len(payload) > 0 {
		n := copy(chunk[1:], payload)
		for i := 1 + n; i < reportSize; i++ {
			chunk[i] = 0
		}
		payload = payload[n:]
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// readMessage reassembles one message from the device's reports
func readMessage(r io.Reader) (*deviceResponse, error) {
	chunk := make([]byte, reportSize)
	var reply []byte
	var kind uint16
	for first := true; ; first = false {
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, err
		}

		var payload []byte
		if first {
			if chunk[1] != 0x23 || chunk[2] != 0x23 {
				return nil, fmt.Errorf("keepkey: bad message header % x", chunk[:3])
			}
			kind = binary.BigEndian.Uint16(chunk[3:5])
			reply = make([]byte, 0, int(binary.BigEndian.Uint32(chunk[5:9])))
			payload = chunk[1+headerSize:]
		} else {
			payload = chunk[1:]
		}

		// Append to the reply and stop when filled up
		if left := cap(reply) - len(reply); left > len(payload) {
			reply = append(reply, payload...)
		} else {
			reply = append(reply, payload[:left]...)
			return &deviceResponse{reply: reply, kind: kind}, nil
		}
	}
}

// passively listen for messages on an interface until it fails
func listenForMessages(in io.Reader, out chan *deviceResponse) {
	defer close(out)
	for {
		resp, err := readMessage(in)
		if err != nil {
			return
		}
		out <- resp
	}
}

// exchange sends a request to the device and waits for one of the wanted
// reply types. Button, pin and passphrase requests are answered along
// the way. The reply payload and its type are returned.
func (kk *Keepkey) exchange(req message, want ...uint16) (uint16, []byte, error) {
	kk.log("Sending %s (%d bytes) to device", Name(req.kind), len(req.body))

	conn, queue := kk.transport.conn, kk.deviceQueue
	if isDebugMessage(req.kind) {
		if kk.transport.debug == nil {
			return 0, nil, errors.New("keepkey: " + Name(req.kind) + " requires the debug link")
		}
		conn, queue = kk.transport.debug, kk.debugQueue
	}
	if conn == nil {
		return 0, nil, ErrClosed
	}
	if err := writeMessage(conn, req); err != nil {
		return 0, nil, err
	}

	// decisions are fire and forget
	if req.kind == typeDebugLinkDecision {
		return 0, nil, nil
	}

	resp, ok := <-queue
	if !ok {
		return 0, nil, ErrClosed
	}
	kk.log("Received %s (%d bytes) from device", Name(resp.kind), len(resp.reply))

	switch resp.kind {
	case typeFailure:
		return 0, nil, errors.New("keepkey: " + failureMessage(resp.reply))
	case typeButtonRequest, typePinMatrixRequest, typePassphraseRequest:
		if resp.kind == typeButtonRequest && kk.autoButton && kk.transport.debug != nil {
			if _, _, err := kk.exchange(decisionMessage(true)); err != nil {
				return 0, nil, err
			}
		}
		ack, err := kk.answer(resp.kind)
		if err != nil {
			return 0, nil, err
		}
		return kk.exchange(ack, want...)
	}

	for _, w := range want {
		if resp.kind == w {
			return resp.kind, resp.reply, nil
		}
	}
	expected := make([]string, len(want))
	for i, w := range want {
		expected[i] = Name(w)
	}
	return 0, nil, fmt.Errorf("keepkey: expected reply types %s, got %s", expected, Name(resp.kind))
}
