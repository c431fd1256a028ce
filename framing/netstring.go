// Package framing provides the reference Transport/Framing collaborators
// named in spec.md §6: tube.Tube implementations converting a byte stream
// (tube.Segment) to discrete messages (tube.Frame) and back, for the three
// literal wire encodings the spec documents.
package framing

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/tubekit/tubes/tube"
)

// netstringDecode parses DJB-style netstrings (<decimal-length>:<bytes>,)
// out of a byte stream, one tube.Frame per complete netstring.
type netstringDecode struct {
	tube.BaseTube
	buf []byte
}

// NetstringDecode converts tube.Segment byte chunks into tube.Frame
// messages framed as netstrings.
func NetstringDecode() tube.Divertable { return &netstringDecode{} }

func (t *netstringDecode) InputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Segment{}), true
}

func (t *netstringDecode) OutputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Frame{}), true
}

func (t *netstringDecode) Received(item any) (tube.Outputs, error) {
	seg, ok := item.(tube.Segment)
	if !ok {
		return nil, fmt.Errorf("framing: netstring decode expects tube.Segment, got %T", item)
	}
	t.buf = append(t.buf, seg...)

	var frames []any
	for {
		colon := indexByte(t.buf, ':')
		if colon < 0 {
			break
		}
		n, err := strconv.Atoi(string(t.buf[:colon]))
		if err != nil {
			return nil, fmt.Errorf("framing: malformed netstring length: %w", err)
		}
		need := colon + 1 + n + 1 // "len:" + payload + trailing ","
		if len(t.buf) < need {
			break
		}
		payload := t.buf[colon+1 : colon+1+n]
		if t.buf[colon+1+n] != ',' {
			return nil, fmt.Errorf("framing: netstring missing trailing comma")
		}
		frames = append(frames, tube.Frame(append([]byte(nil), payload...)))
		t.buf = t.buf[need:]
	}
	return tube.Of(frames...), nil
}

// Reassemble re-encodes already-emitted frames back into netstring form,
// then appends whatever raw bytes are still sitting unparsed in the
// internal buffer, returning a single tube.Segment that reproduces an
// equivalent input prefix.
func (t *netstringDecode) Reassemble(buffered []any) ([]any, error) {
	var out []byte
	for _, item := range buffered {
		frame, ok := item.(tube.Frame)
		if !ok {
			return nil, fmt.Errorf("framing: netstring reassemble expects tube.Frame, got %T", item)
		}
		out = append(out, encodeNetstring(frame)...)
	}
	out = append(out, t.buf...)
	return []any{tube.Segment(out)}, nil
}

// netstringEncode is the inverse: wraps each received tube.Frame in
// netstring framing.
type netstringEncode struct {
	tube.BaseTube
}

// NetstringEncode converts tube.Frame messages into tube.Segment byte
// chunks framed as netstrings.
func NetstringEncode() tube.Tube { return &netstringEncode{} }

func (t *netstringEncode) InputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Frame{}), true
}

func (t *netstringEncode) OutputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Segment{}), true
}

func (t *netstringEncode) Received(item any) (tube.Outputs, error) {
	frame, ok := item.(tube.Frame)
	if !ok {
		return nil, fmt.Errorf("framing: netstring encode expects tube.Frame, got %T", item)
	}
	return tube.Of(tube.Segment(encodeNetstring(frame))), nil
}

func encodeNetstring(frame []byte) []byte {
	out := strconv.AppendInt(nil, int64(len(frame)), 10)
	out = append(out, ':')
	out = append(out, frame...)
	out = append(out, ',')
	return out
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
