package keepkey

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type scriptedPrompter struct {
	pin, passphrase string
	err             error
	presses         int
}

func (p *scriptedPrompter) Button()                     { p.presses++ }
func (p *scriptedPrompter) Pin() (string, error)        { return p.pin, p.err }
func (p *scriptedPrompter) Passphrase() (string, error) { return p.passphrase, p.err }

func TestAnswer(t *testing.T) {
	p := &scriptedPrompter{pin: "7391", passphrase: "hunter2"}
	kk := newKeepkeyFromConfig(&Config{Prompter: p})

	tests := []struct {
		request uint16
		want    message
	}{
		{typeButtonRequest, message{kind: typeButtonAck}},
		{typePinMatrixRequest, stringMessage(typePinMatrixAck, 1, "7391")},
		{typePassphraseRequest, stringMessage(typePassphraseAck, 1, "hunter2")},
	}
	for _, tt := range tests {
		got, err := kk.answer(tt.request)
		if err != nil {
			t.Fatalf("answer(%s): %v", Name(tt.request), err)
		}
		if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(message{})); diff != "" {
			t.Errorf("answer(%s) mismatch (-want +got):\n%s", Name(tt.request), diff)
		}
	}
	if p.presses != 1 {
		t.Errorf("button prompted %d times, want 1", p.presses)
	}

	if _, err := kk.answer(typeFailure); err == nil {
		t.Errorf("answer(Failure) should fail")
	}

	p.err = errors.New("^C")
	if _, err := kk.answer(typePinMatrixRequest); err != p.err {
		t.Errorf("answer with aborted prompt = %v, want %v", err, p.err)
	}
}

func TestValidPin(t *testing.T) {
	for pin, ok := range map[string]bool{
		"1":          true,
		"987654321":  true,
		"":           false,
		"1234567891": false,
		"1203":       false,
		"12a":        false,
	} {
		if err := validPin(pin); (err == nil) != ok {
			t.Errorf("validPin(%q) = %v, want ok=%v", pin, err, ok)
		}
	}
}

func TestTerminalPrompterButton(t *testing.T) {
	var out bytes.Buffer
	TerminalPrompter{Out: &out}.Button()
	if !strings.Contains(out.String(), "Confirm on the device") {
		t.Errorf("button prompt wrote %q", out.String())
	}
}
