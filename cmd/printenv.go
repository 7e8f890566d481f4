package cmd

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(printenvCmd)
}

var printenvCmd = &cobra.Command{
	Use:   "printenv [name...]",
	Short: "Print environment variables",
	Long:  "Print all variables of the environment image, or only the named ones.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeEnv, err := openEnv()
		if err != nil {
			return err
		}
		defer closeEnv()

		sh, err := newShell(nil, store)
		if err != nil {
			return err
		}
		status = sh.Run(append([]string{"printenv"}, args...))
		return nil
	},
}
