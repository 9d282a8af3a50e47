// Package discovery enumerates capture devices and resolves the one the
// operator asked for.
package discovery

import (
	"errors"
	"fmt"
	"net/netip"
	"sort"

	"github.com/google/gopacket/pcap"
)

// ErrDeviceNotFound is returned when no capture device has the requested name.
var ErrDeviceNotFound = errors.New("wirecrab: device not found")

// Device is a network interface usable for capture.
type Device struct {
	Name        string
	Description string
	Addresses   []netip.Addr
}

var findAllDevs = pcap.FindAllDevs

// ListDevices returns every capture device, sorted by name.
func ListDevices() ([]Device, error) {
	ifs, err := findAllDevs()
	if err != nil {
		return nil, fmt.Errorf("could not list devices: %w", err)
	}

	devices := make([]Device, 0, len(ifs))
	for _, i := range ifs {
		d := Device{Name: i.Name, Description: i.Description}
		for _, a := range i.Addresses {
			if addr, ok := netip.AddrFromSlice(a.IP); ok {
				d.Addresses = append(d.Addresses, addr.Unmap())
			}
		}
		devices = append(devices, d)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Name < devices[j].Name
	})
	return devices, nil
}

// FindDevice returns the device called name.
func FindDevice(name string) (Device, error) {
	devices, err := ListDevices()
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}
