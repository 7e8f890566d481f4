package keepkey

import (
	"io"
	"io/ioutil"
	"log"
)

var (
	vendorID   uint16 = 0x2B24
	productIDs        = []uint16{0x0001, 0x0002}
)

// Keepkey represents an open connection to a device and possibly a
// connection to its debug link if enabled in the firmware. Memory reads
// are only available over the debug link.
type Keepkey struct {
	transport  *transport
	autoButton bool // Automatically send button presses. DebugLink must be enabled in the firmware
	serial     string
	prompt     Prompter
	logger
	deviceQueue, debugQueue chan *deviceResponse // for subscribing to responses over different interfaces
}

// transport contains handles to the primary and debug interfaces of the target device
type transport struct {
	conn  io.ReadWriteCloser // primary interface to device
	debug io.ReadWriteCloser // debug link connection to device if enabled
}

// deviceResponse contains the protobuf response from the device as well as the integer
// representing its type
type deviceResponse struct {
	reply []byte
	kind  uint16
}

// Config specifies various attributes that can be set on a Keepkey connection such as
// where to write debug logs and whether to automatically push the button on a debugLink enabled device
type Config struct {
	Logger     logger
	AutoButton bool     // Automatically send button presses. DebugLink must be enabled in the firmware
	Prompter   Prompter // Asks for pin, passphrase and button presses. Defaults to the terminal
}

// logger is a simple printf style output interface
type logger interface {
	Printf(string, ...interface{})
}

// SetLogger sets the logging device for this keepkey
func (kk *Keepkey) SetLogger(l logger) {
	kk.logger = l
}

func (kk *Keepkey) log(str string, args ...interface{}) {
	if kk.logger != nil {
		kk.logger.Printf(str, args...)
	}
}

// Serial returns the serial id of the device
func (kk *Keepkey) Serial() string {
	return kk.serial
}

// HasDebugLink reports whether the debug interface is connected
func (kk *Keepkey) HasDebugLink() bool {
	return kk.transport.debug != nil
}

func newKeepkeyFromConfig(cfg *Config) *Keepkey {
	kk := &Keepkey{
		transport:   new(transport),
		autoButton:  cfg.AutoButton,
		prompt:      cfg.Prompter,
		logger:      cfg.Logger,
		deviceQueue: make(chan *deviceResponse, 1),
		debugQueue:  make(chan *deviceResponse, 1),
	}
	if kk.logger == nil {
		kk.logger = log.New(ioutil.Discard, "", 0)
	}
	if kk.prompt == nil {
		kk.prompt = TerminalPrompter{}
	}
	return kk
}

// NewFromTransport wraps already open device interfaces. debug may be nil.
func NewFromTransport(conn, debug io.ReadWriteCloser, cfg *Config) *Keepkey {
	kk := newKeepkeyFromConfig(cfg)
	kk.transport.conn = conn
	go listenForMessages(conn, kk.deviceQueue)
	if debug != nil {
		kk.transport.debug = debug
		go listenForMessages(debug, kk.debugQueue)
	}
	return kk
}

// Close closes the transport connection and unassociates that interface
// with the calling Keepkey
func (kk *Keepkey) Close() {
	if kk.transport.conn != nil {
		kk.transport.conn.Close()
		kk.transport.conn = nil
	}
	if kk.transport.debug != nil {
		kk.transport.debug.Close()
		kk.transport.debug = nil
	}
}
