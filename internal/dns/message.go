// Package dns decodes DNS messages observed on the wire and issues reverse
// (PTR) lookups against a configured resolver.
package dns

import (
	"wirecrab/internal/wire"
)

const (
	headerLen = 12
	layer     = "dns"

	// FlagResponse is the QR bit of the header flags.
	FlagResponse = 0x8000
	// FlagRecursionDesired is the RD bit of the header flags.
	FlagRecursionDesired = 0x0100
)

// Header is the fixed 12 byte DNS header.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// Response reports whether the QR bit is set.
func (h Header) Response() bool { return h.Flags&FlagResponse != 0 }

// Question is one entry of the question section.
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// ResourceRecord is one entry of the answer, authority or additional section.
type ResourceRecord struct {
	Name     string
	Type     uint16
	Class    uint16
	TTL      uint32
	RDLength uint16
	Data     RData
}

// Message is a decoded DNS message. Only Answers feed host resolution; the
// other sections are decoded to keep the cursor honest.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []ResourceRecord
	Authorities []ResourceRecord
	Additional  []ResourceRecord
}

// Parse decodes a complete DNS message. Any out of bounds read aborts with a
// wire.FormatError.
func Parse(data []byte) (*Message, error) {
	c := wire.NewCursor(data, layer)
	m := &Message{}

	h, err := parseHeader(c)
	if err != nil {
		return nil, err
	}
	m.Header = h

	m.Questions = make([]Question, 0, min(int(h.QDCount), maxPrealloc(c)))
	for range h.QDCount {
		q, err := parseQuestion(c)
		if err != nil {
			return nil, err
		}
		m.Questions = append(m.Questions, q)
	}

	if m.Answers, err = parseRecords(c, h.ANCount); err != nil {
		return nil, err
	}
	if m.Authorities, err = parseRecords(c, h.NSCount); err != nil {
		return nil, err
	}
	if m.Additional, err = parseRecords(c, h.ARCount); err != nil {
		return nil, err
	}
	return m, nil
}

func parseHeader(c *wire.Cursor) (Header, error) {
	var h Header
	var err error
	if h.ID, err = c.ReadU16("id"); err != nil {
		return h, err
	}
	if h.Flags, err = c.ReadU16("flags"); err != nil {
		return h, err
	}
	if h.QDCount, err = c.ReadU16("qdcount"); err != nil {
		return h, err
	}
	if h.ANCount, err = c.ReadU16("ancount"); err != nil {
		return h, err
	}
	if h.NSCount, err = c.ReadU16("nscount"); err != nil {
		return h, err
	}
	if h.ARCount, err = c.ReadU16("arcount"); err != nil {
		return h, err
	}
	return h, nil
}

func parseQuestion(c *wire.Cursor) (Question, error) {
	var q Question
	var err error
	if q.Name, err = readName(c); err != nil {
		return q, err
	}
	if q.Type, err = c.ReadU16("qtype"); err != nil {
		return q, err
	}
	if q.Class, err = c.ReadU16("qclass"); err != nil {
		return q, err
	}
	return q, nil
}

func parseRecords(c *wire.Cursor, count uint16) ([]ResourceRecord, error) {
	records := make([]ResourceRecord, 0, min(int(count), maxPrealloc(c)))
	for range count {
		rr, err := parseRecord(c)
		if err != nil {
			return nil, err
		}
		records = append(records, rr)
	}
	return records, nil
}

// parseRecord leaves the cursor at rdata start + rdlength no matter how many
// bytes the typed decode of the rdata consumed.
func parseRecord(c *wire.Cursor) (ResourceRecord, error) {
	var rr ResourceRecord
	var err error
	if rr.Name, err = readName(c); err != nil {
		return rr, err
	}
	if rr.Type, err = c.ReadU16("type"); err != nil {
		return rr, err
	}
	if rr.Class, err = c.ReadU16("class"); err != nil {
		return rr, err
	}
	if rr.TTL, err = c.ReadU32("ttl"); err != nil {
		return rr, err
	}
	if rr.RDLength, err = c.ReadU16("rdlength"); err != nil {
		return rr, err
	}

	start := c.Pos()
	raw, err := c.Take("rdata", int(rr.RDLength))
	if err != nil {
		return rr, err
	}
	if rr.Data, err = decodeRData(c.Bytes(), start, rr.Type, raw); err != nil {
		return rr, err
	}
	if err := c.Seek("rdata end", start+int(rr.RDLength)); err != nil {
		return rr, err
	}
	return rr, nil
}

// maxPrealloc caps slice preallocation by what the remaining bytes could hold,
// so a forged count cannot force a large allocation.
func maxPrealloc(c *wire.Cursor) int {
	return c.Remaining()/4 + 1
}
