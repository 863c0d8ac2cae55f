package httpc

import (
	"fmt"
	"unicode/utf8"
)

// maxHeaders is the public parsing ceiling. Headers beyond it are
// silently dropped: the fixed array keeps Headers allocation-free.
const maxHeaders = 32

// Response accumulates the raw status line and header block of one
// exchange, exactly as received. Headers are never parsed eagerly;
// call Headers to get a view over the raw bytes.
type Response struct {
	hdrs   []byte
	Status int
	ws     bool
}

func newResponse() *Response {
	return &Response{}
}

// Upgraded reports whether this response completed a WebSocket
// protocol upgrade.
func (r *Response) Upgraded() bool {
	return r.ws
}

// Raw returns the accumulated status-line and header bytes.
func (r *Response) Raw() []byte {
	return r.hdrs
}

// Headers re-parses the raw header block on every call and returns a
// fresh, independently restartable view. It fills a fixed 32-entry
// array and allocates nothing. Parsing stops at the first malformed
// or empty header name; entries with non-UTF-8 values are skipped.
func (r *Response) Headers() Headers {
	var out Headers
	raw := r.hdrs
	// Skip the status line.
	i := lineEnd(raw, 0)
	if i < 0 {
		return out
	}
	pos := i
	for out.len < maxHeaders {
		end := lineEnd(raw, pos)
		if end < 0 {
			break
		}
		line := trimCRLF(raw[pos:end])
		pos = end
		if len(line) == 0 {
			break
		}
		colon := indexByte(line, ':')
		if colon <= 0 {
			break
		}
		name := trimOWS(line[:colon])
		if len(name) == 0 {
			break
		}
		value := trimOWS(line[colon+1:])
		if !utf8.Valid(value) {
			continue
		}
		out.headers[out.len] = Header{name: name, value: value}
		out.len++
	}
	return out
}

// Header is one name/value pair borrowing directly from the
// Response's raw buffer. It must not outlive the Response.
type Header struct {
	name  []byte
	value []byte
}

// NewHeader builds a standalone header, mainly for comparisons.
func NewHeader(name, value string) Header {
	return Header{name: []byte(name), value: []byte(value)}
}

// Name returns the header name as a string.
func (h Header) Name() string { return string(h.name) }

// Value returns the header value as a string.
func (h Header) Value() string { return string(h.value) }

// Is compares the header name against v, ASCII case-insensitively.
// Non-ASCII casing is not normalized. No allocation.
func (h Header) Is(v string) bool {
	if len(h.name) != len(v) {
		return false
	}
	for i := 0; i < len(v); i++ {
		if lowerASCII(h.name[i]) != lowerASCII(v[i]) {
			return false
		}
	}
	return true
}

func (h Header) String() string {
	return fmt.Sprintf("[ %s: %s ]", h.name, h.value)
}

// Headers is a bounded view of at most 32 headers in wire order.
// Iterate with Next, or index with Len/At. A view is exhausted once
// Next runs off the end; call Response.Headers again for a fresh one.
type Headers struct {
	headers [maxHeaders]Header
	len     int
	next    int
}

// Len returns the number of parsed entries.
func (h *Headers) Len() int { return h.len }

// At returns the i-th entry in wire order.
func (h *Headers) At(i int) Header { return h.headers[i] }

// Next returns the next entry of the linear scan, or ok=false when
// the view is exhausted.
func (h *Headers) Next() (Header, bool) {
	if h.next == h.len {
		return Header{}, false
	}
	h.next++
	return h.headers[h.next-1], true
}

// Get returns the value of the first header matching name,
// case-insensitively.
func (h *Headers) Get(name string) (string, bool) {
	for i := 0; i < h.len; i++ {
		if h.headers[i].Is(name) {
			return h.headers[i].Value(), true
		}
	}
	return "", false
}

func (h *Headers) String() string {
	s := ""
	for i := 0; i < h.len; i++ {
		s += h.headers[i].String()
	}
	return s
}

// lineEnd returns the index just past the \n terminating the line
// starting at pos, or -1 if the line is still incomplete.
func lineEnd(b []byte, pos int) int {
	for i := pos; i < len(b); i++ {
		if b[i] == '\n' {
			return i + 1
		}
	}
	return -1
}

func trimCRLF(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func trimOWS(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

func indexByte(b []byte, c byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}
	return -1
}

func lowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
