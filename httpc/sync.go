package httpc

import (
	"time"

	"dqx0.com/go/httpc/internal/poll"
)

// SyncCall is the blocking convenience wrapper: it drives a Call
// through its state machine until a terminal variant, enforcing a
// wall-clock timeout by aborting the call.
//
//	status, hdrs, body, err := httpc.NewSyncCall().TimeoutMs(5000).Get("https://example.com")
type SyncCall struct {
	h       *Httpc
	timeout time.Duration
}

// NewSyncCall returns a wrapper with its own engine and a 30 s
// timeout.
func NewSyncCall() *SyncCall {
	return &SyncCall{h: New(NewConfig()), timeout: 30 * time.Second}
}

// WithEngine shares an existing engine instead of the private one.
func (s *SyncCall) WithEngine(h *Httpc) *SyncCall {
	s.h = h
	return s
}

// TimeoutMs sets the per-call timeout in milliseconds.
func (s *SyncCall) TimeoutMs(ms int) *SyncCall {
	s.timeout = time.Duration(ms) * time.Millisecond
	return s
}

// Get fetches a URL.
func (s *SyncCall) Get(url string) (int, []string, []byte, error) {
	return s.Do(NewRequest().Get(url))
}

// Post sends a body to a URL.
func (s *SyncCall) Post(url string, body []byte) (int, []string, []byte, error) {
	return s.Do(NewRequest().Post(url, body))
}

// Put sends a body to a URL with PUT.
func (s *SyncCall) Put(url string, body []byte) (int, []string, []byte, error) {
	return s.Do(NewRequest().Put(url, body))
}

// Delete issues a DELETE.
func (s *SyncCall) Delete(url string) (int, []string, []byte, error) {
	return s.Do(NewRequest().Delete(url))
}

// Do runs req to completion and returns the status code, the headers
// as "Name: value" strings and the full body.
func (s *SyncCall) Do(req *Request) (int, []string, []byte, error) {
	call, err := s.h.StartCall(req)
	if err != nil {
		return 0, nil, nil, err
	}
	ref := call.Ref()
	p, _ := poll.New()
	if p != nil {
		defer p.Close()
	}
	registered := false
	deadline := time.Now().Add(s.timeout)
	sc := call.Simple()
	for {
		done, err := sc.Perform(s.h)
		if err != nil {
			return 0, nil, nil, err
		}
		if done {
			break
		}
		if time.Now().After(deadline) {
			sc.Abort(s.h)
			return 0, nil, nil, ErrTimeout
		}
		// Block on readiness when the descriptor is available; fall
		// back to timer-driven stepping otherwise (dial in flight,
		// platform without epoll, or a non-socket transport).
		if p != nil && !registered {
			if fd, ok := s.h.RawFd(ref); ok && p.Add(fd) == nil {
				registered = true
			}
		}
		if registered {
			p.Wait(10)
			continue
		}
		time.Sleep(time.Millisecond)
	}
	resp := sc.Response()
	if resp == nil {
		return 0, nil, nil, ErrClosed
	}
	var hdrs []string
	hs := resp.Headers()
	for {
		hd, ok := hs.Next()
		if !ok {
			break
		}
		hdrs = append(hdrs, hd.Name()+": "+hd.Value())
	}
	return resp.Status, hdrs, sc.Body(), nil
}
