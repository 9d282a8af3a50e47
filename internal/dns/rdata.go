package dns

import (
	"fmt"
	"net/netip"

	"wirecrab/internal/wire"
)

// Record types with a typed RData.
const (
	TypeA     uint16 = 1
	TypeCNAME uint16 = 5
	TypePTR   uint16 = 12
	TypeAAAA  uint16 = 28

	ClassINET uint16 = 1
)

// RData is the typed payload of a resource record: A, AAAA, CNAME, PTR or
// Unimplemented.
type RData interface {
	rdata()
	String() string
}

// A is an IPv4 host address.
type A struct{ Addr netip.Addr }

// AAAA is an IPv6 host address.
type AAAA struct{ Addr netip.Addr }

// CNAME names the canonical target of an alias.
type CNAME struct{ Target string }

// PTR names the host an address-derived name points to.
type PTR struct{ Target string }

// Unimplemented keeps the type code of a record this package does not decode.
type Unimplemented struct{ Type uint16 }

func (A) rdata()             {}
func (AAAA) rdata()          {}
func (CNAME) rdata()         {}
func (PTR) rdata()           {}
func (Unimplemented) rdata() {}

func (r A) String() string             { return "A " + r.Addr.String() }
func (r AAAA) String() string          { return "AAAA " + r.Addr.String() }
func (r CNAME) String() string         { return "CNAME " + r.Target }
func (r PTR) String() string           { return "PTR " + r.Target }
func (r Unimplemented) String() string { return fmt.Sprintf("TYPE%d", r.Type) }

// decodeRData types raw, the rdlength bytes found at offset start of msg.
// Names are decoded against the whole message since they may be compressed.
func decodeRData(msg []byte, start int, rtype uint16, raw []byte) (RData, error) {
	switch rtype {
	case TypeA:
		if len(raw) < 4 {
			return nil, &wire.FormatError{Layer: layer, Field: "A rdata", Offset: start, Need: 4, Have: len(raw)}
		}
		return A{Addr: netip.AddrFrom4([4]byte(raw[:4]))}, nil
	case TypeAAAA:
		if len(raw) < 16 {
			return nil, &wire.FormatError{Layer: layer, Field: "AAAA rdata", Offset: start, Need: 16, Have: len(raw)}
		}
		return AAAA{Addr: netip.AddrFrom16([16]byte(raw[:16]))}, nil
	case TypeCNAME:
		name, err := readNameWithin(msg, start, start+len(raw))
		if err != nil {
			return nil, err
		}
		return CNAME{Target: name}, nil
	case TypePTR:
		name, err := readNameWithin(msg, start, start+len(raw))
		if err != nil {
			return nil, err
		}
		return PTR{Target: name}, nil
	default:
		return Unimplemented{Type: rtype}, nil
	}
}
