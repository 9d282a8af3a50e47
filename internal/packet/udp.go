package packet

import "wirecrab/internal/wire"

const udpHeaderLen = 8

// UDPDatagram is a decoded UDP header. The checksum is kept but never verified.
type UDPDatagram struct {
	SrcPort  uint16
	DstPort  uint16
	Length   uint16
	Checksum uint16
	Data     []byte
}

// DecodeUDP decodes a datagram. The bytes after the header must match the
// declared length exactly.
func DecodeUDP(data []byte) (UDPDatagram, error) {
	c := wire.NewCursor(data, "udp")
	var d UDPDatagram
	var err error

	if d.SrcPort, err = c.ReadU16("source port"); err != nil {
		return d, err
	}
	if d.DstPort, err = c.ReadU16("destination port"); err != nil {
		return d, err
	}
	if d.Length, err = c.ReadU16("length"); err != nil {
		return d, err
	}
	if d.Checksum, err = c.ReadU16("checksum"); err != nil {
		return d, err
	}
	if d.Length < udpHeaderLen {
		return d, wire.Errorf("udp", "length", 4, "declared length %d below header size", d.Length)
	}
	if want := int(d.Length) - udpHeaderLen; c.Remaining() != want {
		return d, wire.Errorf("udp", "data", udpHeaderLen, "declared %d data bytes, have %d", want, c.Remaining())
	}
	d.Data = c.Rest()
	return d, nil
}
