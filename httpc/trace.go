package httpc

import (
	"crypto/rand"
	"encoding/hex"
)

// Outbound request identifiers. Requests that do not already carry an
// X-Request-ID or Traceparent header get fresh values; the W3C trace
// context forbids all-zero ids, so generation retries until the bytes
// are usable.

func genID() string      { return randHex(16) }
func genTraceID() string { return randHex(16) }
func genSpanID() string  { return randHex(8) }

func randHex(n int) string {
	b := make([]byte, n)
	for {
		if _, err := rand.Read(b); err == nil && !allZero(b) {
			return hex.EncodeToString(b)
		}
	}
}

func formatTraceparent(traceID, spanID string) string {
	return "00-" + traceID + "-" + spanID + "-01"
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
