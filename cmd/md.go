package cmd

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"

	"github.com/solipsis/go-bootenv/pkg/memory"
	"github.com/solipsis/go-bootenv/pkg/setenvram"
	"github.com/spf13/cobra"
)

var (
	file   string
	length uint32
)

func init() {
	mdCmd.Flags().StringVarP(&file, "file", "f", "", "store result to file")
	mdCmd.Flags().Uint32VarP(&length, "length", "l", 256, "length of memory to dump")
	rootCmd.AddCommand(mdCmd)
}

var mdCmd = &cobra.Command{
	Use:   "md [addr]",
	Short: "Dump a section of target memory",
	Long: `Dump --length bytes of target memory starting at addr (hex). The bytes
are printed as hex or written raw to --file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := setenvram.ParseHex(args[0])
		if err != nil {
			return fmt.Errorf("bad address %q: %v", args[0], err)
		}

		mem, release, err := openMemory(cmd.Context())
		if err != nil {
			return err
		}
		defer release()
		if mem == nil {
			return errNoMemory
		}

		data, err := memory.ReadFull(mem, addr, int(length))
		if err != nil {
			return err
		}

		if file != "" {
			return ioutil.WriteFile(file, data, 0644)
		}
		fmt.Println(hex.EncodeToString(data))
		return nil
	},
}
