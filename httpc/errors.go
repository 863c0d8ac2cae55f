package httpc

import "errors"

var (
	// ErrWouldBlock is returned by a wire when no progress is possible
	// without waiting for readiness. It never escapes to callers; the
	// drive operations translate it into the Wait variant.
	ErrWouldBlock = errors.New("httpc: operation would block")

	ErrClosed       = errors.New("httpc: connection closed")
	ErrTimeout      = errors.New("httpc: timeout")
	ErrProtocol     = errors.New("httpc: protocol violation")
	ErrInvalidCall  = errors.New("httpc: call is invalidated")
	ErrRedirectLoop = errors.New("httpc: too many redirects")
	ErrTooLarge     = errors.New("httpc: response exceeds size limit")
	ErrNoSlot       = errors.New("httpc: no free connection slot")
	ErrTLS          = errors.New("httpc: tls handshake failed")
)
