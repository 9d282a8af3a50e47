package wire

import "encoding/binary"

// Cursor reads big-endian fields from a borrowed buffer. Every read is bounds
// checked; a failed read leaves the position unchanged.
type Cursor struct {
	buf   []byte
	pos   int
	layer string
}

// NewCursor returns a cursor at offset 0 of buf. layer names the protocol in errors.
func NewCursor(buf []byte, layer string) *Cursor {
	return &Cursor{buf: buf, layer: layer}
}

// Pos returns the current offset from the start of the buffer.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the size of the whole buffer.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes after Pos.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Bytes returns the whole underlying buffer.
func (c *Cursor) Bytes() []byte { return c.buf }

// Seek moves to an absolute offset. Seeking to Len() is allowed.
func (c *Cursor) Seek(field string, pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return &FormatError{Layer: c.layer, Field: field, Offset: pos, Need: pos, Have: len(c.buf)}
	}
	c.pos = pos
	return nil
}

func (c *Cursor) need(field string, n int) error {
	if n < 0 || c.Remaining() < n {
		return &FormatError{Layer: c.layer, Field: field, Offset: c.pos, Need: n, Have: c.Remaining()}
	}
	return nil
}

// ReadU8 reads one byte. field names the value in a FormatError.
func (c *Cursor) ReadU8(field string) (uint8, error) {
	if err := c.need(field, 1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// ReadU16 reads a big-endian uint16.
func (c *Cursor) ReadU16(field string) (uint16, error) {
	if err := c.need(field, 2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32 reads a big-endian uint32.
func (c *Cursor) ReadU32(field string) (uint32, error) {
	if err := c.need(field, 4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// Take returns the next n bytes as a view into the buffer.
func (c *Cursor) Take(field string, n int) ([]byte, error) {
	if err := c.need(field, n); err != nil {
		return nil, err
	}
	v := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return v, nil
}

// Rest returns everything after the current position and moves to the end.
func (c *Cursor) Rest() []byte {
	v := c.buf[c.pos:]
	c.pos = len(c.buf)
	return v
}

// PeekU8 reads the byte at an absolute offset without moving.
func (c *Cursor) PeekU8(field string, at int) (uint8, error) {
	if at < 0 || at >= len(c.buf) {
		return 0, &FormatError{Layer: c.layer, Field: field, Offset: at, Need: 1, Have: max(len(c.buf)-at, 0)}
	}
	return c.buf[at], nil
}
