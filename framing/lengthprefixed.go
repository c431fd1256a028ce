package framing

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/spf13/cast"
	"github.com/tubekit/tubes/diag"
	"github.com/tubekit/tubes/tube"
)

// LengthPrefixed builds the 8-/16-/32-bit big-endian length-prefixed
// framing named in spec.md §6. width is coerced with spf13/cast.ToInt so
// callers can configure it straight from JSON/YAML/flag values.
func LengthPrefixed(width any) (decode tube.Divertable, encode tube.Tube, err error) {
	bits := cast.ToInt(width)
	switch bits {
	case 8, 16, 32:
	default:
		return nil, nil, fmt.Errorf("framing: length-prefixed width must be 8, 16, or 32 bits, got %d", bits)
	}
	return &lengthPrefixedDecode{bits: bits}, &lengthPrefixedEncode{bits: bits}, nil
}

// LengthPrefixedFromConfig builds a LengthPrefixed pair from a raw JSON
// config blob (e.g. a framing stanza loaded off disk), pulling out the
// "width" field with diag.ParseWidth instead of requiring callers to
// unmarshal a struct first.
func LengthPrefixedFromConfig(configJSON []byte) (decode tube.Divertable, encode tube.Tube, err error) {
	width, err := diag.ParseWidth(configJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("framing: reading width from config: %w", err)
	}
	return LengthPrefixed(width)
}

func prefixLen(bits int) int { return bits / 8 }

func readPrefix(bits int, buf []byte) uint32 {
	switch bits {
	case 8:
		return uint32(buf[0])
	case 16:
		return uint32(binary.BigEndian.Uint16(buf))
	default:
		return binary.BigEndian.Uint32(buf)
	}
}

func appendPrefix(bits int, dst []byte, n int) []byte {
	switch bits {
	case 8:
		return append(dst, byte(n))
	case 16:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(n))
		return append(dst, b[:]...)
	default:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		return append(dst, b[:]...)
	}
}

type lengthPrefixedDecode struct {
	tube.BaseTube
	bits int
	buf  []byte
}

func (t *lengthPrefixedDecode) InputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Segment{}), true
}

func (t *lengthPrefixedDecode) OutputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Frame{}), true
}

func (t *lengthPrefixedDecode) Received(item any) (tube.Outputs, error) {
	seg, ok := item.(tube.Segment)
	if !ok {
		return nil, fmt.Errorf("framing: length-prefixed decode expects tube.Segment, got %T", item)
	}
	t.buf = append(t.buf, seg...)

	hdr := prefixLen(t.bits)
	var frames []any
	for {
		if len(t.buf) < hdr {
			break
		}
		n := int(readPrefix(t.bits, t.buf))
		if len(t.buf) < hdr+n {
			break
		}
		payload := t.buf[hdr : hdr+n]
		frames = append(frames, tube.Frame(append([]byte(nil), payload...)))
		t.buf = t.buf[hdr+n:]
	}
	return tube.Of(frames...), nil
}

// Reassemble re-encodes already-emitted frames with their length prefixes
// and appends whatever is still unparsed in the buffer.
func (t *lengthPrefixedDecode) Reassemble(buffered []any) ([]any, error) {
	var out []byte
	for _, item := range buffered {
		frame, ok := item.(tube.Frame)
		if !ok {
			return nil, fmt.Errorf("framing: length-prefixed reassemble expects tube.Frame, got %T", item)
		}
		out = appendPrefix(t.bits, out, len(frame))
		out = append(out, frame...)
	}
	out = append(out, t.buf...)
	return []any{tube.Segment(out)}, nil
}

type lengthPrefixedEncode struct {
	tube.BaseTube
	bits int
}

func (t *lengthPrefixedEncode) InputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Frame{}), true
}

func (t *lengthPrefixedEncode) OutputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Segment{}), true
}

func (t *lengthPrefixedEncode) Received(item any) (tube.Outputs, error) {
	frame, ok := item.(tube.Frame)
	if !ok {
		return nil, fmt.Errorf("framing: length-prefixed encode expects tube.Frame, got %T", item)
	}
	out := appendPrefix(t.bits, nil, len(frame))
	out = append(out, frame...)
	return tube.Of(tube.Segment(out)), nil
}
