// Package shell is a small bootloader style command prompt around the
// environment and memory commands.
package shell

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/shlex"
	"github.com/manifoldco/promptui"
	"github.com/solipsis/go-bootenv/pkg/env"
	"github.com/solipsis/go-bootenv/pkg/memory"
	"github.com/solipsis/go-bootenv/pkg/setenvram"
)

// DefaultPrompt is shown before every line in interactive mode
const DefaultPrompt = "=>"

// Shell dispatches command lines to registered commands
type Shell struct {
	reg       *registry
	env       env.Store
	mem       memory.Reader
	out       io.Writer
	hostOrder binary.ByteOrder
	Prompt    string
	logger
}

// Option configures a Shell
type Option func(*Shell)

// WithOutput sets where command output is written
func WithOutput(w io.Writer) Option {
	return func(s *Shell) { s.out = w }
}

// WithHostOrder sets the byte order of the target whose memory is read
func WithHostOrder(o binary.ByteOrder) Option {
	return func(s *Shell) { s.hostOrder = o }
}

// WithLogger sets where diagnostics are written
func WithLogger(l logger) Option {
	return func(s *Shell) { s.logger = l }
}

// New returns a shell with the built-in commands registered
func New(mem memory.Reader, e env.Store, opts ...Option) *Shell {
	s := &Shell{
		reg:       newRegistry(),
		env:       e,
		mem:       mem,
		out:       os.Stdout,
		hostOrder: binary.LittleEndian,
		Prompt:    DefaultPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, cmd := range builtins() {
		if err := s.reg.register(cmd); err != nil {
			panic(err)
		}
	}
	return s
}

// Setenvram returns the setenvram command bound to this shell's memory and environment
func (s *Shell) Setenvram() *setenvram.Command {
	opts := []setenvram.Option{
		setenvram.WithOutput(s.out),
		setenvram.WithHostOrder(s.hostOrder),
	}
	if s.logger != nil {
		opts = append(opts, setenvram.WithLogger(s.logger))
	}
	return setenvram.New(s.mem, s.env, opts...)
}

// RunLine tokenizes and runs one command line, returning its exit status.
// Several commands may be separated by ';'. Blank lines and comments succeed.
func (s *Shell) RunLine(line string) int {
	status := 0
	for _, part := range splitCommands(line) {
		args, err := shlex.Split(part)
		if err != nil {
			fmt.Fprintf(s.out, "syntax error: %v\n", err)
			return 1
		}
		if len(args) == 0 {
			continue
		}
		status = s.Run(args)
	}
	return status
}

// splitCommands cuts a line at every ';' outside quotes. Quoting and
// escapes are left in place for the tokenizer.
func splitCommands(line string) []string {
	var (
		parts []string
		quote rune
		start int
	)
	escaped := false
	for i, r := range line {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ';':
			parts = append(parts, line[start:i])
			start = i + 1
		}
	}
	return append(parts, line[start:])
}

// Run dispatches an already tokenized command
func (s *Shell) Run(args []string) int {
	cmd, ok := s.reg.resolve(args[0])
	if !ok {
		fmt.Fprintf(s.out, "Unknown command '%s' - try 'help'\n", args[0])
		return 1
	}
	s.log("shell: %s", strings.Join(args, " "))
	return cmd.Run(s, args)
}

// Loop reads lines from the terminal until EOF or interrupt
func (s *Shell) Loop() error {
	for {
		p := promptui.Prompt{Label: s.Prompt}
		line, err := p.Run()
		if errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrInterrupt) {
			return nil
		}
		if err != nil {
			return err
		}
		s.RunLine(line)
	}
}

func (s *Shell) usage(cmd command) int {
	fmt.Fprintf(s.out, "Usage:\n%s\n", cmd.Usage)
	return 1
}

func (s *Shell) log(str string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(str, args...)
	}
}

// logger is a simple printf style output interface
type logger interface {
	Printf(string, ...interface{})
}
