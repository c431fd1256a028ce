package framing

import (
	"fmt"
	"reflect"

	"github.com/tubekit/tubes/tube"
)

// lineDecode splits a byte stream on LF, stripping a trailing CR so both
// CRLF and LF delimiters work.
type lineDecode struct {
	tube.BaseTube
	buf []byte
}

// LineDecode converts tube.Segment byte chunks into tube.Frame messages
// delimited by LF (with an optional trailing CR stripped).
func LineDecode() tube.Divertable { return &lineDecode{} }

func (t *lineDecode) InputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Segment{}), true
}

func (t *lineDecode) OutputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Frame{}), true
}

func (t *lineDecode) Received(item any) (tube.Outputs, error) {
	seg, ok := item.(tube.Segment)
	if !ok {
		return nil, fmt.Errorf("framing: line decode expects tube.Segment, got %T", item)
	}
	t.buf = append(t.buf, seg...)

	var frames []any
	for {
		nl := indexByte(t.buf, '\n')
		if nl < 0 {
			break
		}
		line := t.buf[:nl]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		frames = append(frames, tube.Frame(append([]byte(nil), line...)))
		t.buf = t.buf[nl+1:]
	}
	return tube.Of(frames...), nil
}

// Reassemble terminates each already-emitted frame with LF and appends
// whatever is still unparsed in the buffer, returning a single tube.Segment.
func (t *lineDecode) Reassemble(buffered []any) ([]any, error) {
	var out []byte
	for _, item := range buffered {
		frame, ok := item.(tube.Frame)
		if !ok {
			return nil, fmt.Errorf("framing: line reassemble expects tube.Frame, got %T", item)
		}
		out = append(out, frame...)
		out = append(out, '\n')
	}
	out = append(out, t.buf...)
	return []any{tube.Segment(out)}, nil
}

// lineEncode appends an LF after every received tube.Frame.
type lineEncode struct {
	tube.BaseTube
}

// LineEncode converts tube.Frame messages into tube.Segment byte chunks,
// LF-terminated.
func LineEncode() tube.Tube { return &lineEncode{} }

func (t *lineEncode) InputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Frame{}), true
}

func (t *lineEncode) OutputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Segment{}), true
}

func (t *lineEncode) Received(item any) (tube.Outputs, error) {
	frame, ok := item.(tube.Frame)
	if !ok {
		return nil, fmt.Errorf("framing: line encode expects tube.Frame, got %T", item)
	}
	out := append(append([]byte(nil), frame...), '\n')
	return tube.Of(tube.Segment(out)), nil
}
