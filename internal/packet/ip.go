package packet

import (
	"net/netip"

	"wirecrab/internal/wire"
)

const (
	ipv4MinHeaderLen = 20
	ipv6HeaderLen    = 40

	ProtocolTCP = 6
	ProtocolUDP = 17
)

// IPPacket is the part of an IPv4 or IPv6 packet the capture loops need.
type IPPacket interface {
	Source() netip.Addr
	Destination() netip.Addr
	// Transport is the IPv4 protocol or IPv6 next header.
	Transport() uint8
	Body() []byte
}

// IPv4Packet is a decoded IPv4 header. Options and Payload borrow the input.
type IPv4Packet struct {
	Version        uint8
	IHL            uint8
	ServiceType    uint8
	TotalLength    uint16
	Identification uint16
	Flags          uint8  // 3 bits
	FragmentOffset uint16 // 13 bits
	TTL            uint8
	Protocol       uint8
	Checksum       uint16
	Src            netip.Addr
	Dst            netip.Addr
	Options        []byte
	Payload        []byte
}

func (p IPv4Packet) Source() netip.Addr      { return p.Src }
func (p IPv4Packet) Destination() netip.Addr { return p.Dst }
func (p IPv4Packet) Transport() uint8        { return p.Protocol }
func (p IPv4Packet) Body() []byte            { return p.Payload }

// DecodeIPv4 decodes an IPv4 header. The payload starts at IHL*4 and is cut at
// the total length when that length fits in data, dropping link-layer padding.
func DecodeIPv4(data []byte) (IPv4Packet, error) {
	c := wire.NewCursor(data, "ipv4")
	var p IPv4Packet

	vihl, err := c.ReadU8("version/ihl")
	if err != nil {
		return p, err
	}
	p.Version = vihl >> 4
	p.IHL = vihl & 0x0f
	headerLen := int(p.IHL) * 4
	if headerLen < ipv4MinHeaderLen {
		return p, wire.Errorf("ipv4", "ihl", 0, "header length %d below minimum", headerLen)
	}
	if len(data) < headerLen {
		return p, &wire.FormatError{Layer: "ipv4", Field: "header", Offset: 0, Need: headerLen, Have: len(data)}
	}

	if p.ServiceType, err = c.ReadU8("service type"); err != nil {
		return p, err
	}
	if p.TotalLength, err = c.ReadU16("total length"); err != nil {
		return p, err
	}
	if p.Identification, err = c.ReadU16("identification"); err != nil {
		return p, err
	}
	flagsFrag, err := c.ReadU16("flags/fragment offset")
	if err != nil {
		return p, err
	}
	p.Flags = uint8(flagsFrag >> 13)
	p.FragmentOffset = flagsFrag & 0x1fff
	if p.TTL, err = c.ReadU8("ttl"); err != nil {
		return p, err
	}
	if p.Protocol, err = c.ReadU8("protocol"); err != nil {
		return p, err
	}
	if p.Checksum, err = c.ReadU16("checksum"); err != nil {
		return p, err
	}
	src, err := c.Take("source", 4)
	if err != nil {
		return p, err
	}
	dst, err := c.Take("destination", 4)
	if err != nil {
		return p, err
	}
	p.Src = netip.AddrFrom4([4]byte(src))
	p.Dst = netip.AddrFrom4([4]byte(dst))

	if headerLen > ipv4MinHeaderLen {
		if p.Options, err = c.Take("options", headerLen-ipv4MinHeaderLen); err != nil {
			return p, err
		}
	}

	end := len(data)
	if total := int(p.TotalLength); total >= headerLen && total < end {
		end = total
	}
	p.Payload = data[headerLen:end:end]
	return p, nil
}

// IPv6Packet is a decoded fixed IPv6 header. Extension headers are not
// interpreted: Payload starts right after the 40 byte header.
type IPv6Packet struct {
	Version       uint8
	TrafficClass  uint8
	FlowLabel     uint32
	PayloadLength uint16
	NextHeader    uint8
	HopLimit      uint8
	Src           netip.Addr
	Dst           netip.Addr
	Payload       []byte
}

func (p IPv6Packet) Source() netip.Addr      { return p.Src }
func (p IPv6Packet) Destination() netip.Addr { return p.Dst }
func (p IPv6Packet) Transport() uint8        { return p.NextHeader }
func (p IPv6Packet) Body() []byte            { return p.Payload }

// DecodeIPv6 decodes the fixed IPv6 header.
func DecodeIPv6(data []byte) (IPv6Packet, error) {
	c := wire.NewCursor(data, "ipv6")
	var p IPv6Packet

	word, err := c.ReadU32("version/class/flow")
	if err != nil {
		return p, err
	}
	p.Version = uint8(word >> 28)
	p.TrafficClass = uint8(word >> 20)
	p.FlowLabel = word & 0x000fffff

	if p.PayloadLength, err = c.ReadU16("payload length"); err != nil {
		return p, err
	}
	if p.NextHeader, err = c.ReadU8("next header"); err != nil {
		return p, err
	}
	if p.HopLimit, err = c.ReadU8("hop limit"); err != nil {
		return p, err
	}
	src, err := c.Take("source", 16)
	if err != nil {
		return p, err
	}
	dst, err := c.Take("destination", 16)
	if err != nil {
		return p, err
	}
	p.Src = netip.AddrFrom16([16]byte(src))
	p.Dst = netip.AddrFrom16([16]byte(dst))

	end := len(data)
	if total := ipv6HeaderLen + int(p.PayloadLength); total < end {
		end = total
	}
	p.Payload = data[ipv6HeaderLen:end:end]
	return p, nil
}
