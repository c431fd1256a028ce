// Package diag provides lightweight, allocation-conscious introspection
// helpers for the pipeline: hand-rolled byte-level JSON append helpers (in
// the teacher's style of avoiding encoding/json reflection on hot paths),
// a length-capped Segment/Frame payload dumper for logging, and a
// concurrent counter Registry that a Siphon built with siphon.WithStats
// publishes its pending-queue depth and pause state to. No other component
// publishes to it.
package diag

import (
	"encoding/hex"
	"strconv"
)

const hextable = "0123456789abcdef"

// maxDumpBytes caps how many payload bytes AppendPayloadDump renders as hex
// before truncating: a multi-kilobyte tube.Segment would otherwise swamp a
// log line that's only meant to show what a frame boundary landed on.
const maxDumpBytes = 32

// AppendPayloadDump appends a tube.Segment or tube.Frame's raw bytes as a
// diagnostic JSON object: {"len":N,"hex":"0x...","truncated":true}, the
// trailing field present only when len(payload) exceeds maxDumpBytes. A nil
// payload dumps as {"len":0,"hex":null}, an empty one as {"len":0,"hex":""}.
func AppendPayloadDump(dst []byte, payload []byte) []byte {
	dst = append(dst, `{"len":`...)
	dst = AppendInt(dst, int64(len(payload)))
	dst = append(dst, `,"hex":`...)
	switch {
	case payload == nil:
		dst = append(dst, `null`...)
	case len(payload) == 0:
		dst = append(dst, `""`...)
	default:
		preview, truncated := payload, false
		if len(preview) > maxDumpBytes {
			preview, truncated = preview[:maxDumpBytes], true
		}
		dst = appendHexString(dst, preview)
		if truncated {
			dst = append(dst, `,"truncated":true`...)
		}
	}
	return append(dst, '}')
}

func appendHexString(dst []byte, src []byte) []byte {
	dst = append(dst, `"0x`...)
	for _, v := range src {
		dst = append(dst, hextable[v>>4], hextable[v&0x0f])
	}
	return append(dst, '"')
}

// DecodeHex strips the optional "0x" prefix from a quoted hex string (such
// as the "hex" field AppendPayloadDump writes, when untruncated) and decodes
// the remaining digits back into raw bytes.
func DecodeHex(dst []byte, src []byte) ([]byte, error) {
	src = unquote(src)
	if len(src) >= 2 && src[0] == '0' && src[1] == 'x' {
		src = src[2:]
	}
	bl := len(src) / 2
	if cap(dst) >= bl {
		dst = dst[:bl]
	} else {
		dst = make([]byte, bl)
	}
	_, err := hex.Decode(dst, src)
	return dst, err
}

// AppendInt appends n as a bare JSON number.
func AppendInt(dst []byte, n int64) []byte {
	return strconv.AppendInt(dst, n, 10)
}

// AppendBool appends val as the JSON literal true/false.
func AppendBool(dst []byte, val bool) []byte {
	if val {
		return append(dst, `true`...)
	}
	return append(dst, `false`...)
}

// AppendString appends s as a quoted JSON string. No escaping beyond
// surrounding quotes: callers are expected to pass identifiers, route
// names, and similar diagnostic labels, not arbitrary user text.
func AppendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	dst = append(dst, s...)
	return append(dst, '"')
}

func unquote(buf []byte) []byte {
	if l := len(buf); l > 1 && buf[0] == '"' && buf[l-1] == '"' {
		return buf[1 : l-1]
	}
	return buf
}
