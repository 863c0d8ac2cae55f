package httpc

import (
	"crypto/tls"
	"crypto/x509"
	"time"

	"dqx0.com/go/httpc/internal/obs"
)

// Httpc is the client engine. It owns the connection-slot table, the
// CallRef routing table and a small cache of reusable buffers. All
// methods are driven from a single goroutine; nothing here blocks
// beyond the poll quantum.
type Httpc struct {
	// Logger and Meter are optional observability hooks.
	Logger obs.Logger
	Meter  obs.Meter

	cfg   Config
	cons  []*con
	gens  []uint16 // per-slot generation survives slot teardown
	idle  map[string][]uint16
	calls map[CallRef]*con
	bufs  [][]byte
	roots *x509.CertPool
	built bool

	// dialFn overrides transport creation; used by tests.
	dialFn      func(req *Request) wire
	dialTimeout time.Duration
}

const bufSize = 8 * 1024

// New returns an engine for the given configuration. A zero Config
// gets the defaults of NewConfig.
func New(cfg Config) *Httpc {
	if cfg.CacheBuffers == 0 {
		cfg.CacheBuffers = NewConfig().CacheBuffers
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = NewConfig().MaxRedirects
	}
	return &Httpc{
		cfg:         cfg,
		idle:        make(map[string][]uint16),
		calls:       make(map[CallRef]*con),
		dialTimeout: 5 * time.Second,
	}
}

// StartCall begins a new exchange and returns its identity. The
// returned Call is the caller's single authoritative handle; drive it
// with CallSend and CallRecv until a terminal state.
func (h *Httpc) StartCall(req *Request) (Call, error) {
	if err := req.valid(); err != nil {
		return EmptyCall(), err
	}
	key := conKey(req)
	var c *con
	if ids := h.idle[key]; len(ids) > 0 {
		id := ids[len(ids)-1]
		h.idle[key] = ids[:len(ids)-1]
		c = h.cons[id]
		h.meter().Counter("httpc_con_reuse_total", 1)
	} else {
		idx := -1
		for i, cc := range h.cons {
			if cc == nil {
				idx = i
				break
			}
		}
		if idx < 0 {
			if len(h.cons) >= 0xfffe {
				return EmptyCall(), ErrNoSlot
			}
			h.cons = append(h.cons, nil)
			h.gens = append(h.gens, 0)
			idx = len(h.cons) - 1
		}
		c = &con{
			id:    uint16(idx),
			gen:   h.gens[idx],
			key:   key,
			maxSw: h.cfg.MaxRedirects,
			dial:  h.dialer(),
		}
		c.w = c.dial(req)
		h.cons[idx] = c
	}
	c.rbuf = h.getBuf()
	if c.out == nil {
		c.out = h.getBuf()[:0]
	}
	call := c.start(req)
	h.calls[call.Ref()] = c
	h.meter().Counter("httpc_calls_total", 1, obs.Label{Key: "method", Value: req.method})
	h.logger().Logf(obs.Debug, "call %04x/%04x started: %s %s", c.id, c.gen, req.method, req.url)
	return call, nil
}

// CallSend drives the sending phase one step. body supplies more
// outgoing bytes for a chunked request (empty non-nil slice ends the
// body); pass nil otherwise. Driving an invalidated or foreign Call
// reports the Error variant with ErrInvalidCall.
func (h *Httpc) CallSend(call *Call, body []byte) SendState {
	c := h.conOf(call)
	if c == nil {
		return sendErr(ErrInvalidCall)
	}
	st := c.driveSend(body, h.logger())
	if st.Terminal() {
		h.finish(call, c, st.Kind == SendError)
	}
	return st
}

// CallRecv drives the receiving phase one step. When buf is non-nil,
// body bytes are copied into it (it should be at least 8 KiB) and the
// exchange ends with Done; with a nil buf the engine buffers the body
// and ends with DoneWithBody.
func (h *Httpc) CallRecv(call *Call, buf []byte) RecvState {
	c := h.conOf(call)
	if c == nil {
		return recvErr(ErrInvalidCall)
	}
	st := c.driveRecv(buf, h.logger())
	if st.Kind == RecvSending {
		h.meter().Counter("httpc_redirects_total", 1)
	}
	if st.Terminal() {
		h.finish(call, c, st.Kind == RecvError)
	}
	return st
}

// Abort cancels an exchange: the identity is invalidated, the slot is
// torn down, and any readiness event still in flight for it will no
// longer route anywhere.
func (h *Httpc) Abort(call *Call) {
	if c := h.conOf(call); c != nil {
		delete(h.calls, call.Ref())
		h.teardown(c)
	}
	call.Invalidate()
}

// Timeout returns the refs of calls whose deadline has elapsed. The
// caller is expected to drive each one; the next drive step reports
// the timeout as an Error.
func (h *Httpc) Timeout() []CallRef {
	now := time.Now()
	var out []CallRef
	for ref, c := range h.calls {
		if c.expired(now) {
			out = append(out, ref)
		}
	}
	return out
}

// Event reports whether a readiness notification for ref still routes
// to a live exchange. Stale refs — from finished or aborted calls —
// return false and must be discarded.
func (h *Httpc) Event(ref CallRef) bool {
	_, ok := h.calls[ref]
	return ok
}

// RawFd returns the socket descriptor behind ref for poller
// registration, or false if the transport is not ready yet.
func (h *Httpc) RawFd(ref CallRef) (int, bool) {
	c, ok := h.calls[ref]
	if !ok {
		return -1, false
	}
	nw, ok := c.w.(*netWire)
	if !ok {
		return -1, false
	}
	return nw.Fd()
}

// finish ends an exchange: removes the route, invalidates the
// caller's handle and recycles or tears down the slot.
func (h *Httpc) finish(call *Call, c *con, failed bool) {
	delete(h.calls, call.Ref())
	call.Invalidate()
	h.meter().Histogram("httpc_call_duration_ms", float64(time.Since(c.started).Milliseconds()))
	if failed {
		h.meter().Counter("httpc_calls_error", 1)
	}
	h.putBuf(c.rbuf)
	c.rbuf = nil
	if failed || c.closeAfter {
		h.teardown(c)
		return
	}
	h.idle[c.key] = append(h.idle[c.key], c.id)
}

func (h *Httpc) teardown(c *con) {
	if c.w != nil {
		c.w.Close()
	}
	h.putBuf(c.rbuf)
	if c.out != nil {
		h.putBuf(c.out[:cap(c.out)])
	}
	h.gens[c.id] = c.gen
	h.cons[c.id] = nil
	// Drop any idle bookkeeping pointing at this slot.
	ids := h.idle[c.key]
	for i, id := range ids {
		if id == c.id {
			h.idle[c.key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

func (h *Httpc) conOf(call *Call) *con {
	if call == nil || call.IsEmpty() {
		return nil
	}
	c, ok := h.calls[call.Ref()]
	if !ok || c.id != call.conID() || c.gen != call.callID() {
		return nil
	}
	return c
}

func (h *Httpc) dialer() func(req *Request) wire {
	if h.dialFn != nil {
		return h.dialFn
	}
	return func(req *Request) wire {
		var cfg *tls.Config
		if req.isTLS() {
			cfg = &tls.Config{RootCAs: h.rootCAs()}
		}
		return dialWire(req.addr(), req.hostNoPort(), cfg, h.dialTimeout)
	}
}

func (h *Httpc) rootCAs() *x509.CertPool {
	if !h.built {
		h.roots = rootPool(h.cfg)
		h.built = true
	}
	return h.roots
}

func (h *Httpc) getBuf() []byte {
	if n := len(h.bufs); n > 0 {
		b := h.bufs[n-1]
		h.bufs = h.bufs[:n-1]
		return b
	}
	return make([]byte, bufSize)
}

func (h *Httpc) putBuf(b []byte) {
	if b == nil || cap(b) < bufSize {
		return
	}
	if len(h.bufs) < h.cfg.CacheBuffers {
		h.bufs = append(h.bufs, b[:bufSize])
	}
}

func (h *Httpc) logger() obs.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return obs.NopLogger{}
}

func (h *Httpc) meter() obs.Meter {
	if h.Meter != nil {
		return h.Meter
	}
	return obs.NopMeter{}
}

func conKey(req *Request) string {
	return req.url.Scheme + "://" + req.addr()
}
