package shell

import (
	"fmt"
	"sort"
	"strings"
)

// cmdFunc runs a command. args[0] is the verb as typed, including any
// .suffix. The return value is the command's exit status.
type cmdFunc func(s *Shell, args []string) int

type command struct {
	Name  string
	Usage string
	Desc  string
	Run   cmdFunc
}

type registry struct {
	commands map[string]command
}

func newRegistry() *registry {
	return &registry{commands: make(map[string]command)}
}

func (r *registry) register(cmd command) error {
	if cmd.Name == "" || strings.ContainsAny(cmd.Name, ". \t") {
		return fmt.Errorf("shell registry: bad command name %q", cmd.Name)
	}
	if cmd.Run == nil {
		return fmt.Errorf("shell registry: %q has no handler", cmd.Name)
	}
	if _, ok := r.commands[cmd.Name]; ok {
		return fmt.Errorf("shell registry: duplicate command %q", cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// resolve finds the command for a verb, ignoring any size suffix
// so that "md.w" and "setenvram.wd" reach md and setenvram
func (r *registry) resolve(verb string) (command, bool) {
	if i := strings.IndexByte(verb, '.'); i >= 0 {
		verb = verb[:i]
	}
	cmd, ok := r.commands[verb]
	return cmd, ok
}

func (r *registry) names() []string {
	out := make([]string, 0, len(r.commands))
	for name := range r.commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
