// Package capture reads packets from capture handles, decodes them and emits
// typed events for the control loop.
package capture

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// ErrDevice marks a capture device that cannot be opened or filtered.
var ErrDevice = errors.New("wirecrab: capture device error")

// Source yields raw frames. *pcap.Handle satisfies it.
type Source interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// Handle is a filtered capture source that can be closed to stop its loop.
type Handle interface {
	Source
	Close()
}

// Options configures Open.
type Options struct {
	Device      string
	PcapFile    string // replay this file instead of Device when set
	SnapLen     int
	Promiscuous bool
	Timeout     time.Duration
	Filter      string
}

// Open opens a live handle on opts.Device, or an offline handle on
// opts.PcapFile, and applies the BPF filter.
func Open(opts Options) (Handle, error) {
	var (
		handle *pcap.Handle
		err    error
	)
	if opts.PcapFile != "" {
		handle, err = pcap.OpenOffline(opts.PcapFile)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrDevice, opts.PcapFile, err)
		}
	} else {
		handle, err = pcap.OpenLive(opts.Device, int32(opts.SnapLen), opts.Promiscuous, opts.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrDevice, opts.Device, err)
		}
	}

	if err := checkLinkType(handle.LinkType()); err != nil {
		handle.Close()
		return nil, err
	}

	if opts.Filter != "" {
		if err := handle.SetBPFFilter(opts.Filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("%w: filter %q: %v", ErrDevice, opts.Filter, err)
		}
	}
	return handle, nil
}

// checkLinkType rejects handles whose frames do not start with an Ethernet
// header, such as the Linux "any" device, raw IP or loopback captures.
func checkLinkType(lt layers.LinkType) error {
	if lt != layers.LinkTypeEthernet {
		return fmt.Errorf("%w: link type %s is not supported, only Ethernet", ErrDevice, lt)
	}
	return nil
}

// PortFilter builds a BPF expression matching packets sent from any of ports.
func PortFilter(ports []int) string {
	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		parts = append(parts, fmt.Sprintf("src port %d", p))
	}
	return strings.Join(parts, " or ")
}
