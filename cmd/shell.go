package cmd

import (
	"github.com/solipsis/go-bootenv/pkg/env"
	"github.com/solipsis/go-bootenv/pkg/memory"
	"github.com/solipsis/go-bootenv/pkg/shell"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(execCmd)
}

func newShell(mem memory.Reader, store env.Store) (*shell.Shell, error) {
	order, err := byteOrder()
	if err != nil {
		return nil, err
	}
	return shell.New(mem, store, shell.WithHostOrder(order), shell.WithLogger(logger)), nil
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive bootloader prompt",
	Long: `Start an interactive prompt accepting bootloader commands such as
setenvram.wd, setenv, printenv, saveenv and md. Changes to an environment
image are only written by saveenv.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mem, release, err := openMemory(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		store, closeEnv, err := openEnv()
		if err != nil {
			return err
		}
		defer closeEnv()

		sh, err := newShell(mem, store)
		if err != nil {
			return err
		}
		return sh.Loop()
	},
}

var execCmd = &cobra.Command{
	Use:   "exec [command] [args...]",
	Short: "Run a single bootloader command",
	Long: `Run one bootloader command exactly as it would be typed at the
prompt, for example:

  go-bootenv -m ram.bin@1800 -e uboot.env exec setenvram.wd return_dec 1800

The process exits with the command's status. The environment image is saved
if the command succeeded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBootCommand(cmd, args)
	},
}
