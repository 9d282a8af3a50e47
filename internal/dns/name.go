package dns

import (
	"strings"

	"wirecrab/internal/wire"
)

const (
	pointerMask = 0xC0
	maxNameLen  = 255
)

// readName decodes a possibly compressed domain name at the cursor. The cursor
// ends after the terminator, or after the first 2 byte pointer when the name is
// compressed. The labels are joined with '.', the root name is "".
func readName(c *wire.Cursor) (string, error) {
	return decodeName(c.Bytes(), c)
}

// readNameAt decodes a name starting at an absolute offset of msg.
func readNameAt(msg []byte, offset int) (string, error) {
	c := wire.NewCursor(msg, layer)
	if err := c.Seek("name", offset); err != nil {
		return "", err
	}
	return decodeName(msg, c)
}

// readNameWithin decodes a name at offset that must end by limit. Pointers may
// still lead anywhere in msg; only the bytes read at offset are bounded.
func readNameWithin(msg []byte, offset, limit int) (string, error) {
	c := wire.NewCursor(msg, layer)
	if err := c.Seek("name", offset); err != nil {
		return "", err
	}
	name, err := decodeName(msg, c)
	if err != nil {
		return "", err
	}
	if c.Pos() > limit {
		return "", wire.Errorf(layer, "rdata name", offset, "name ends at %d past rdata end %d", c.Pos(), limit)
	}
	return name, nil
}

// decodeName follows compression pointers inside msg. Pointer hops are capped at
// len(msg): a longer chain must revisit an offset and is rejected as a loop.
func decodeName(msg []byte, c *wire.Cursor) (string, error) {
	var (
		sb     strings.Builder
		pos    = c.Pos()
		jumped bool
		hops   int
		wlen   = 1
		end    = -1
	)

	for {
		length, err := c.PeekU8("label length", pos)
		if err != nil {
			return "", err
		}

		switch {
		case length == 0:
			pos++
			if end < 0 {
				end = pos
			}
			if err := c.Seek("name", end); err != nil {
				return "", err
			}
			return sb.String(), nil

		case length&pointerMask == pointerMask:
			lo, err := c.PeekU8("pointer", pos+1)
			if err != nil {
				return "", err
			}
			target := int(length&^pointerMask)<<8 | int(lo)
			if !jumped {
				end = pos + 2
				jumped = true
			}
			hops++
			if hops > len(msg) {
				return "", wire.Errorf(layer, "pointer", pos, "compression loop after %d hops", hops-1)
			}
			if target >= len(msg) {
				return "", wire.Errorf(layer, "pointer", pos, "target %d outside message of %d bytes", target, len(msg))
			}
			pos = target

		case length&pointerMask != 0:
			return "", wire.Errorf(layer, "label length", pos, "reserved label type 0x%02x", length&pointerMask)

		default:
			start := pos + 1
			if start+int(length) > len(msg) {
				return "", &wire.FormatError{Layer: layer, Field: "label", Offset: start, Need: int(length), Have: max(len(msg)-start, 0)}
			}
			if wlen += int(length) + 1; wlen > maxNameLen {
				return "", wire.Errorf(layer, "name", pos, "name longer than %d bytes", maxNameLen)
			}
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
			sb.Write(msg[start : start+int(length)])
			pos = start + int(length)
		}
	}
}
