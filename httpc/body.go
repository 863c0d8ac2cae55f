package httpc

import "fmt"

// ResponseBody classifies the forthcoming response body: either the
// exact remaining length is known, or bytes arrive until the engine
// signals completion (chunked or close-delimited).
type ResponseBody struct {
	size     int64
	streamed bool
}

// Sized returns a body classification with a known byte length.
func Sized(n int64) ResponseBody {
	return ResponseBody{size: n}
}

// Streamed returns the unknown-length classification.
func Streamed() ResponseBody {
	return ResponseBody{streamed: true}
}

// IsEmpty is true only for Sized(0). A streamed body is never empty
// up front: its length is unknown.
func (b ResponseBody) IsEmpty() bool {
	return !b.streamed && b.size == 0
}

// Size returns the known length and true, or 0 and false for a
// streamed body.
func (b ResponseBody) Size() (int64, bool) {
	if b.streamed {
		return 0, false
	}
	return b.size, true
}

// IsStreamed reports whether the length is unknown.
func (b ResponseBody) IsStreamed() bool {
	return b.streamed
}

func (b ResponseBody) String() string {
	if b.streamed {
		return "ResponseBody::Streamed"
	}
	return fmt.Sprintf("ResponseBody::Sized(%d)", b.size)
}
