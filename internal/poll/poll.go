// Package poll delivers socket readiness to the engine's drive loop.
// The engine registers the raw descriptor behind each call; Wait
// reports which descriptors can make progress, and the caller drives
// the matching calls.
package poll

import "errors"

// ErrUnsupported is returned by New on platforms without an epoll
// implementation.
var ErrUnsupported = errors.New("poll: not supported on this platform")
