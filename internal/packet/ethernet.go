// Package packet decodes Ethernet, IPv4, IPv6 and UDP headers. Payloads are
// views into the caller's buffer; nothing is copied except address fields.
package packet

import (
	"net"

	"wirecrab/internal/wire"
)

const (
	ethernetHeaderLen = 14
	vlanTagLen        = 4

	EtherTypeIPv4 = 0x0800
	EtherTypeIPv6 = 0x86DD
	EtherTypeVLAN = 0x8100 // 802.1Q
	EtherTypeQinQ = 0x88A8 // 802.1ad
)

// EthernetFrame is a decoded link-layer header.
type EthernetFrame struct {
	Dst       net.HardwareAddr
	Src       net.HardwareAddr
	EtherType uint16
	// InnerType is the ethertype following a single VLAN tag. Zero when untagged.
	InnerType uint16
	Payload   []byte
}

// Tagged reports whether the frame carried an 802.1Q or 802.1ad tag.
func (f EthernetFrame) Tagged() bool {
	return f.EtherType == EtherTypeVLAN || f.EtherType == EtherTypeQinQ
}

// PayloadType is the ethertype describing Payload.
func (f EthernetFrame) PayloadType() uint16 {
	if f.Tagged() {
		return f.InnerType
	}
	return f.EtherType
}

// DecodeEthernet decodes a frame. A tagged frame's payload starts at byte 18.
func DecodeEthernet(data []byte) (EthernetFrame, error) {
	c := wire.NewCursor(data, "ethernet")

	dst, err := c.Take("destination", 6)
	if err != nil {
		return EthernetFrame{}, err
	}
	src, err := c.Take("source", 6)
	if err != nil {
		return EthernetFrame{}, err
	}
	etherType, err := c.ReadU16("ethertype")
	if err != nil {
		return EthernetFrame{}, err
	}

	frame := EthernetFrame{
		Dst:       net.HardwareAddr(dst),
		Src:       net.HardwareAddr(src),
		EtherType: etherType,
	}

	if frame.Tagged() {
		if _, err := c.ReadU16("vlan tci"); err != nil {
			return EthernetFrame{}, err
		}
		inner, err := c.ReadU16("vlan ethertype")
		if err != nil {
			return EthernetFrame{}, err
		}
		frame.InnerType = inner
	}

	frame.Payload = c.Rest()
	return frame, nil
}
