package keepkey

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message type identifiers from the device protocol
const (
	typeFailure                    uint16 = 3
	typePinMatrixRequest           uint16 = 18
	typePinMatrixAck               uint16 = 19
	typeButtonRequest              uint16 = 26
	typeButtonAck                  uint16 = 27
	typePassphraseRequest          uint16 = 41
	typePassphraseAck              uint16 = 42
	typeDebugLinkDecision          uint16 = 100
	typeDebugLinkFlashDump         uint16 = 112
	typeDebugLinkFlashDumpResponse uint16 = 113
)

var typeNames = map[uint16]string{
	typeFailure:                    "Failure",
	typePinMatrixRequest:           "PinMatrixRequest",
	typePinMatrixAck:               "PinMatrixAck",
	typeButtonRequest:              "ButtonRequest",
	typeButtonAck:                  "ButtonAck",
	typePassphraseRequest:          "PassphraseRequest",
	typePassphraseAck:              "PassphraseAck",
	typeDebugLinkDecision:          "DebugLinkDecision",
	typeDebugLinkFlashDump:         "DebugLinkFlashDump",
	typeDebugLinkFlashDumpResponse: "DebugLinkFlashDumpResponse",
}

// Name returns the protocol name of a message type
func Name(kind uint16) string {
	if n, ok := typeNames[kind]; ok {
		return n
	}
	return fmt.Sprintf("MessageType(%d)", kind)
}

// message is a request ready to be framed and sent
type message struct {
	kind uint16
	body []byte
}

func flashDumpRequest(addr, length uint32) message {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(addr))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(length))
	return message{kind: typeDebugLinkFlashDump, body: b}
}

func stringMessage(kind uint16, field protowire.Number, s string) message {
	var b []byte
	b = protowire.AppendTag(b, field, protowire.BytesType)
	b = protowire.AppendString(b, s)
	return message{kind: kind, body: b}
}

func decisionMessage(yes bool) message {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(yes))
	return message{kind: typeDebugLinkDecision, body: b}
}

// isDebugMessage reports whether the message goes over the debug interface
func isDebugMessage(kind uint16) bool {
	return kind == typeDebugLinkDecision || kind == typeDebugLinkFlashDump
}

// fields decodes the scalar and bytes fields of a flat message
func fields(b []byte) (map[protowire.Number][]byte, map[protowire.Number]uint64, error) {
	bufs := make(map[protowire.Number][]byte)
	ints := make(map[protowire.Number]uint64)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, nil, protowire.ParseError(n)
			}
			ints[num] = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, nil, protowire.ParseError(n)
			}
			bufs[num] = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return bufs, ints, nil
}

// failureMessage extracts the text of a Failure reply
func failureMessage(reply []byte) string {
	bufs, ints, err := fields(reply)
	if err != nil {
		return "unparseable failure: " + err.Error()
	}
	if msg, ok := bufs[2]; ok {
		return string(msg)
	}
	return fmt.Sprintf("failure code %d", ints[1])
}
