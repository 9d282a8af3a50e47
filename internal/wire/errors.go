// Package wire provides a bounds-checked cursor for decoding network byte order
// fields out of untrusted buffers.
package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat marks malformed or truncated input at any codec layer.
	ErrFormat = errors.New("wirecrab: malformed packet")

	// ErrUnsupported marks an ethertype or record type this decoder does not handle.
	ErrUnsupported = errors.New("wirecrab: unsupported protocol")
)

// FormatError describes which field of which layer could not be decoded.
type FormatError struct {
	Layer  string
	Field  string
	Offset int
	Need   int
	Have   int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s at offset %d: %s", e.Layer, e.Field, e.Offset, e.Reason)
	}
	return fmt.Sprintf("%s: %s at offset %d: need %d bytes, have %d", e.Layer, e.Field, e.Offset, e.Need, e.Have)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// Errorf builds a FormatError that is not a plain short read.
func Errorf(layer, field string, offset int, format string, args ...any) error {
	return &FormatError{Layer: layer, Field: field, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// LayerOf reports the layer a decode error came from, or "" when err is not a FormatError.
func LayerOf(err error) string {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Layer
	}
	return ""
}
