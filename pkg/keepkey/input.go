package keepkey

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

// Prompter supplies the user input a device can ask for while it serves a
// request.
type Prompter interface {
	Button()
	Pin() (string, error)
	Passphrase() (string, error)
}

// TerminalPrompter asks on the terminal. Out defaults to stdout.
type TerminalPrompter struct {
	Out io.Writer
}

// pinRows is the layout of the scrambled matrix shown on the device
var pinRows = []string{"7 | 8 | 9", "4 | 5 | 6", "1 | 2 | 3"}

func (p TerminalPrompter) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

// Button tells the user the device is waiting for a press
func (p TerminalPrompter) Button() {
	color.New(color.FgCyan, color.Bold).Fprintln(p.out(), "Confirm on the device to continue")
}

// Pin reads the pin as positions of the matrix on the device screen
func (p TerminalPrompter) Pin() (string, error) {
	w := p.out()
	color.New(color.FgMagenta).Fprintln(w, "Enter your pin using the positions shown on the device")
	rows := color.New(color.FgCyan)
	for _, row := range pinRows {
		rows.Fprintln(w, row)
	}
	fmt.Fprintln(w)

	prompt := promptui.Prompt{Label: "Pin", Mask: '*', Validate: validPin}
	return prompt.Run()
}

// Passphrase reads the wallet passphrase
func (p TerminalPrompter) Passphrase() (string, error) {
	prompt := promptui.Prompt{Label: "Passphrase", Mask: '*'}
	return prompt.Run()
}

// a pin is 1 to 9 matrix positions
func validPin(in string) error {
	if in == "" || len(in) > 9 {
		return errors.New("pin must be 1 to 9 digits")
	}
	if strings.Trim(in, "123456789") != "" {
		return errors.New("pin digits are matrix positions 1-9")
	}
	return nil
}

// answer asks the user for what a device request needs and returns the
// acknowledgement to send back
func (kk *Keepkey) answer(kind uint16) (message, error) {
	switch kind {
	case typeButtonRequest:
		kk.prompt.Button()
		return message{kind: typeButtonAck}, nil
	case typePinMatrixRequest:
		pin, err := kk.prompt.Pin()
		if err != nil {
			return message{}, err
		}
		return stringMessage(typePinMatrixAck, 1, pin), nil
	case typePassphraseRequest:
		pass, err := kk.prompt.Passphrase()
		if err != nil {
			return message{}, err
		}
		return stringMessage(typePassphraseAck, 1, pass), nil
	}
	return message{}, fmt.Errorf("keepkey: %s needs no answer", Name(kind))
}
