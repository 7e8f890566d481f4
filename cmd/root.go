package cmd

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	memSource string // where target memory is read from
	memBase   string // load address for image sources without an @base
	envFile   string // U-Boot environment image
	envSize   int
	redundant bool
	console   string // serial device of a live bootloader
	baud      int
	autoSave  bool
	hostOrder string
	logLevel  string
)

// exit status of the last bootloader command run
var status int

var logger = log.New()

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&memSource, "mem", "m", "", "memory source: file:<path>[@<base>], devmem, keepkey or github:<owner>/<repo>@<tag>/<asset>")
	pf.StringVar(&memBase, "base", "0", "load address (hex) of image sources")
	pf.StringVarP(&envFile, "env", "e", "", "environment image file")
	pf.IntVar(&envSize, "env-size", 0x4000, "size of the environment image in bytes")
	pf.BoolVar(&redundant, "redundant", false, "environment image has a redundant flags byte")
	pf.StringVar(&console, "console", "", "serial device of a running bootloader to send setenv to")
	pf.IntVar(&baud, "baud", 115200, "console baud rate")
	pf.BoolVar(&autoSave, "save", false, "run saveenv after every change")
	pf.StringVar(&hostOrder, "host-order", "little", "byte order of the target: little or big")
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

var rootCmd = &cobra.Command{
	Use:   "go-bootenv",
	Short: "Bootloader environment tools",
	Long: `Read values out of target memory and store them in a bootloader
environment, either an environment image on disk or a live bootloader
on a serial console.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		if level, err := log.ParseLevel(logLevel); err == nil {
			logger.SetLevel(level)
		} else {
			logger.Warnf("invalid log level %s, defaulting to info", logLevel)
			logger.SetLevel(log.InfoLevel)
		}
	},
}

// Execute runs the command line and exits with the bootloader command's status
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	os.Exit(status)
}

func byteOrder() (binary.ByteOrder, error) {
	switch hostOrder {
	case "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("unknown host byte order %q", hostOrder)
}
