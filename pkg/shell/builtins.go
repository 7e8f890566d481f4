package shell

import (
	"fmt"
	"strings"

	"github.com/solipsis/go-bootenv/pkg/memory"
	"github.com/solipsis/go-bootenv/pkg/setenvram"
)

// defaultDumpCount is the number of units md shows when no count is given
const defaultDumpCount = 0x40

// maxDumpBytes bounds a single md
const maxDumpBytes = 0x10000

type saver interface {
	Save() error
}

func builtins() []command {
	return []command{
		{
			Name:  "setenvram",
			Usage: setenvram.Usage,
			Desc:  "set environment variable from ram",
			Run: func(s *Shell, args []string) int {
				return s.Setenvram().Run(args)
			},
		},
		{
			Name:  "setenv",
			Usage: "setenv name value ...\n    - set environment variable 'name' to 'value ...'\nsetenv name\n    - delete environment variable 'name'",
			Desc:  "set environment variables",
			Run:   runSetenv,
		},
		{
			Name:  "printenv",
			Usage: "printenv [name ...]\n    - print value of environment variable 'name'",
			Desc:  "print environment variables",
			Run:   runPrintenv,
		},
		{
			Name:  "saveenv",
			Usage: "saveenv",
			Desc:  "save environment variables to persistent storage",
			Run:   runSaveenv,
		},
		{
			Name:  "md",
			Usage: "md [.b, .w, .l] address [# of objects]",
			Desc:  "memory display",
			Run:   runMd,
		},
		{
			Name:  "help",
			Usage: "help [command ...]",
			Desc:  "print command description/usage",
			Run:   runHelp,
		},
	}
}

func runSetenv(s *Shell, args []string) int {
	cmd, _ := s.reg.resolve("setenv")
	if len(args) < 2 {
		return s.usage(cmd)
	}
	var err error
	if len(args) == 2 {
		err = s.env.Delete(args[1])
	} else {
		err = s.env.Set(args[1], strings.Join(args[2:], " "))
	}
	if err != nil {
		fmt.Fprintf(s.out, "## Error: %v\n", err)
		return 1
	}
	return 0
}

func runPrintenv(s *Shell, args []string) int {
	if len(args) == 1 {
		names := s.env.Names()
		for _, name := range names {
			v, _ := s.env.Get(name)
			fmt.Fprintf(s.out, "%s=%s\n", name, v)
		}
		fmt.Fprintf(s.out, "\nEnvironment size: %d\n", len(names))
		return 0
	}

	status := 0
	for _, name := range args[1:] {
		v, ok := s.env.Get(name)
		if !ok {
			fmt.Fprintf(s.out, "## Error: \"%s\" not defined\n", name)
			status = 1
			continue
		}
		fmt.Fprintf(s.out, "%s=%s\n", name, v)
	}
	return status
}

func runSaveenv(s *Shell, args []string) int {
	sv, ok := s.env.(saver)
	if !ok {
		fmt.Fprintln(s.out, "## Error: environment has no persistent storage")
		return 1
	}
	fmt.Fprintln(s.out, "Saving Environment...")
	if err := sv.Save(); err != nil {
		fmt.Fprintf(s.out, "## Error: %v\n", err)
		return 1
	}
	return 0
}

func runMd(s *Shell, args []string) int {
	cmd, _ := s.reg.resolve("md")
	if len(args) < 2 || len(args) > 3 {
		return s.usage(cmd)
	}

	size := 4
	if i := strings.IndexByte(args[0], '.'); i >= 0 {
		switch args[0][i+1:] {
		case "b":
			size = 1
		case "w":
			size = 2
		case "l":
			size = 4
		default:
			return s.usage(cmd)
		}
	}

	addr, err := setenvram.ParseHex(args[1])
	if err != nil {
		return s.usage(cmd)
	}
	count := uint64(defaultDumpCount)
	if len(args) == 3 {
		if count, err = setenvram.ParseHex(args[2]); err != nil || count == 0 {
			return s.usage(cmd)
		}
	}
	if count > maxDumpBytes/uint64(size) {
		fmt.Fprintf(s.out, "## Error: md is limited to 0x%x bytes\n", maxDumpBytes)
		return 1
	}

	data, err := memory.ReadFull(s.mem, addr, int(count)*size)
	if err != nil {
		fmt.Fprintf(s.out, "## Error: %v\n", err)
		return 1
	}
	s.dump(addr, data, size)
	return 0
}

// dump prints data as lines of 16 bytes with an ASCII column
func (s *Shell) dump(addr uint64, data []byte, size int) {
	const perLine = 16
	for off := 0; off < len(data); off += perLine {
		line := data[off:]
		if len(line) > perLine {
			line = line[:perLine]
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%08x:", addr+uint64(off))
		for i := 0; i+size <= len(line); i += size {
			unit := line[i : i+size]
			switch size {
			case 1:
				fmt.Fprintf(&b, " %02x", unit[0])
			case 2:
				fmt.Fprintf(&b, " %04x", s.hostOrder.Uint16(unit))
			case 4:
				fmt.Fprintf(&b, " %08x", s.hostOrder.Uint32(unit))
			}
		}
		b.WriteString("    ")
		for _, c := range line {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			b.WriteByte(c)
		}
		fmt.Fprintln(s.out, b.String())
	}
}

func runHelp(s *Shell, args []string) int {
	if len(args) == 1 {
		for _, name := range s.reg.names() {
			cmd, _ := s.reg.resolve(name)
			fmt.Fprintf(s.out, "%-10s- %s\n", name, cmd.Desc)
		}
		return 0
	}

	status := 0
	for _, name := range args[1:] {
		cmd, ok := s.reg.resolve(name)
		if !ok {
			fmt.Fprintf(s.out, "Unknown command '%s' - try 'help' without arguments for list of all known commands\n", name)
			status = 1
			continue
		}
		fmt.Fprintf(s.out, "%s - %s\n\nUsage:\n%s\n", cmd.Name, cmd.Desc, cmd.Usage)
	}
	return status
}
