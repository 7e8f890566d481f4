package keepkey

import (
	"errors"
	"strings"

	"github.com/karalabe/hid"
)

// HID interface descriptors
const (
	HIDInterfaceStandard = "0"
	HIDInterfaceDebug    = "1"
)

// tuple of keepkey and optionally its debug interface
type hidInterfaces struct {
	device, debug hid.DeviceInfo
}

// enumerateHID searches advertised hid interfaces for devices
// that appear to be keepkeys, keyed by serial number
func enumerateHID() map[string]*hidInterfaces {
	deviceMap := make(map[string]*hidInterfaces)
	for _, info := range hid.Enumerate(vendorID, 0) {
		if !knownProduct(info.ProductID) {
			continue
		}
		pathKey := info.Serial
		if deviceMap[pathKey] == nil {
			deviceMap[pathKey] = new(hidInterfaces)
		}

		// separate connection to the debug HID interface if debug link is enabled
		if strings.HasSuffix(info.Path, HIDInterfaceDebug) {
			deviceMap[pathKey].debug = info
		} else if strings.HasSuffix(info.Path, HIDInterfaceStandard) {
			deviceMap[pathKey].device = info
		}
	}
	return deviceMap
}

func knownProduct(pid uint16) bool {
	for _, p := range productIDs {
		if p == pid {
			return true
		}
	}
	return false
}

// GetDevices connects to every available device over WebUSB and HID
func GetDevices(cfg *Config) ([]*Keepkey, error) {
	devices := make([]*Keepkey, 0)

	webUSB, err := enumerateWebUSB()
	if err != nil && cfg.Logger != nil {
		cfg.Logger.Printf("keepkey: webusb enumeration failed: %v", err)
	}
	for _, t := range webUSB {
		devices = append(devices, NewFromTransport(t.conn, t.debug, cfg))
	}

	for serial, ifaces := range enumerateHID() {
		if ifaces.device.Path == "" {
			continue
		}
		device, err := ifaces.device.Open()
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Printf("keepkey: unable to open HID %s: %v", ifaces.device.Path, err)
			}
			continue
		}
		var debug *hid.Device
		if ifaces.debug.Path != "" {
			if debug, err = ifaces.debug.Open(); err != nil && cfg.Logger != nil {
				cfg.Logger.Printf("keepkey: unable to open debug link: %v", err)
			}
		}

		var kk *Keepkey
		if debug != nil {
			kk = NewFromTransport(device, debug, cfg)
		} else {
			kk = NewFromTransport(device, nil, cfg)
		}
		kk.serial = serial
		devices = append(devices, kk)
	}

	if len(devices) < 1 {
		return nil, errors.New("No keepkeys detected")
	}
	return devices, nil
}

// GetDevice returns the first device that has its debug link enabled
func GetDevice(cfg *Config) (*Keepkey, error) {
	kks, err := GetDevices(cfg)
	if err != nil {
		return nil, err
	}
	var found *Keepkey
	for _, kk := range kks {
		if found == nil && kk.HasDebugLink() {
			found = kk
			continue
		}
		kk.Close()
	}
	if found == nil {
		return nil, errors.New("keepkey: no device with debug link enabled")
	}
	return found, nil
}
