package cmd

import (
	"fmt"

	"github.com/solipsis/go-bootenv/pkg/setenvram"
	"github.com/spf13/cobra"
)

var width, format string

func init() {
	setenvramCmd.Flags().StringVarP(&width, "width", "w", "", "width code: b, w, l, k or s")
	setenvramCmd.Flags().StringVarP(&format, "format", "f", "", "format code: d for decimal, x for hex (default)")
	setenvramCmd.MarkFlagRequired("width")
	rootCmd.AddCommand(setenvramCmd)
}

var setenvramCmd = &cobra.Command{
	Use:   "setenvram [name] [addr] [len]",
	Short: "Set an environment variable from memory",
	Long: `Read a value from target memory and store it in an environment variable.

  go-bootenv -m ram.bin@1800 -e uboot.env setenvram -w w return_var 0x1800

Widths: b (1 byte), w (2 bytes, network to host order), l (4 bytes, host to
network order), k (4 bytes, host order), s (len bytes as a string).
addr and len are hexadecimal. The environment image is saved on success.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := setenvram.ParseVariant(width, format)
		if err != nil {
			return err
		}
		// hand over to the bootloader form so every argument check applies
		return runBootCommand(cmd, append([]string{"setenvram" + v.String()}, args...))
	},
}

// runBootCommand runs one bootloader command line against the configured
// memory and environment and saves the environment image if it succeeded
func runBootCommand(cmd *cobra.Command, args []string) error {
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
	status = sh.Run(args)
	if status != 0 {
		return nil
	}
	if err := persist(store); err != nil {
		status = 1
		return fmt.Errorf("saving environment: %v", err)
	}
	return nil
}
