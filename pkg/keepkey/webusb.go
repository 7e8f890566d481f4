package keepkey

import (
	"sync"

	"github.com/google/gousb"
)

// usbEndpoint names an interface of the device and the endpoint pair on it
type usbEndpoint struct {
	iface, number int
}

var (
	walletEndpoint = usbEndpoint{iface: 0, number: 1}
	debugEndpoint  = usbEndpoint{iface: 1, number: 2}
)

// usbConfig is the active configuration shared by the wallet and debug
// links. It is released when the last link closes.
type usbConfig struct {
	mu    sync.Mutex
	cfg   *gousb.Config
	users int
}

func (c *usbConfig) release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users--
	if c.users > 0 {
		return nil
	}
	return c.cfg.Close()
}

// usbLink is one claimed interface used as an io.ReadWriteCloser
type usbLink struct {
	cfg  *usbConfig
	intf *gousb.Interface
	in   *gousb.InEndpoint
	out  *gousb.OutEndpoint
}

func (l *usbLink) Read(p []byte) (int, error)  { return l.in.Read(p) }
func (l *usbLink) Write(p []byte) (int, error) { return l.out.Write(p) }

func (l *usbLink) Close() error {
	l.intf.Close()
	return l.cfg.release()
}

func claimLink(cfg *usbConfig, ep usbEndpoint) (*usbLink, error) {
	intf, err := cfg.cfg.Interface(ep.iface, 0)
	if err != nil {
		return nil, err
	}
	in, err := intf.InEndpoint(ep.number)
	if err != nil {
		intf.Close()
		return nil, err
	}
	out, err := intf.OutEndpoint(ep.number)
	if err != nil {
		intf.Close()
		return nil, err
	}

	cfg.mu.Lock()
	cfg.users++
	cfg.mu.Unlock()
	return &usbLink{cfg: cfg, intf: intf, in: in, out: out}, nil
}

// openUSB claims the wallet interface of d and, when the firmware exposes
// it, the debug link
func openUSB(d *gousb.Device) (*transport, error) {
	c, err := d.Config(1)
	if err != nil {
		return nil, err
	}
	cfg := &usbConfig{cfg: c}

	conn, err := claimLink(cfg, walletEndpoint)
	if err != nil {
		c.Close()
		return nil, err
	}
	t := &transport{conn: conn}
	if debug, err := claimLink(cfg, debugEndpoint); err == nil {
		t.debug = debug
	}
	return t, nil
}

// enumerateWebUSB opens every attached device speaking WebUSB. The last
// error seen is returned alongside the devices that did open.
func enumerateWebUSB() ([]*transport, error) {
	ctx := gousb.NewContext()
	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == vendorID && knownProduct(uint16(desc.Product))
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	transports := make([]*transport, 0, len(devices))
	for _, d := range devices {
		t, err := openUSB(d)
		if err != nil {
			d.Close()
			lastErr = err
			continue
		}
		transports = append(transports, t)
	}
	return transports, lastErr
}
