package dns

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	mdns "github.com/miekg/dns"
)

// ReverseQueryID is the fixed ID carried by reverse queries.
const ReverseQueryID uint16 = 0x1234

const hexDigits = "0123456789abcdef"

// ReverseLabels returns the QNAME labels for a PTR query of addr: the octets
// reversed under in-addr.arpa for IPv4, the nibbles reversed under ip6.arpa for IPv6.
func ReverseLabels(addr netip.Addr) []string {
	addr = addr.Unmap()
	if addr.Is4() {
		b := addr.As4()
		labels := make([]string, 0, 6)
		for i := len(b) - 1; i >= 0; i-- {
			labels = append(labels, strconv.Itoa(int(b[i])))
		}
		return append(labels, "in-addr", "arpa")
	}

	b := addr.As16()
	labels := make([]string, 0, 34)
	for i := len(b) - 1; i >= 0; i-- {
		labels = append(labels, string(hexDigits[b[i]&0x0f]), string(hexDigits[b[i]>>4]))
	}
	return append(labels, "ip6", "arpa")
}

// NewReverseQuery returns a standard recursive PTR query for addr.
func NewReverseQuery(addr netip.Addr) *mdns.Msg {
	return &mdns.Msg{
		MsgHdr: mdns.MsgHdr{Id: ReverseQueryID, RecursionDesired: true},
		Question: []mdns.Question{{
			Name:   mdns.Fqdn(strings.Join(ReverseLabels(addr), ".")),
			Qtype:  mdns.TypePTR,
			Qclass: mdns.ClassINET,
		}},
	}
}

// BuildReverseQuery encodes the query returned by NewReverseQuery.
func BuildReverseQuery(addr netip.Addr) ([]byte, error) {
	b, err := NewReverseQuery(addr).Pack()
	if err != nil {
		return nil, fmt.Errorf("pack reverse query for %s: %w", addr, err)
	}
	return b, nil
}
