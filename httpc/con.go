package httpc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"dqx0.com/go/httpc/internal/obs"
)

// con is one connection slot: a reusable transport connection plus the
// send/receive machinery of the exchange currently occupying it. A
// slot carries at most one call at a time; the slot id is the low 16
// bits of the call's identity, the per-slot generation counter is the
// high 16 bits.
type con struct {
	id    uint16
	gen   uint16
	w     wire
	key   string // scheme://host:port, idle-reuse key
	maxSw int
	dial  func(req *Request) wire

	// exchange state, reset by start
	req        *Request
	phase      int
	out        []byte
	outSegs    []outSeg
	outPos     int
	headLen    int
	reqBodyEOF bool
	wsKey      string
	digTried   bool

	resp       *Response
	gotHeaders bool
	framing    int
	body       ResponseBody
	bodyBuf    []byte
	bodyRead   int64 // delivered/received watermark into the body
	chunks     chunkedDecoder
	pend       []byte // raw bytes past the header block, not yet consumed
	rbuf       []byte // scratch read buffer from the engine cache
	scratch    []byte // per-step chunked-decode output when the caller buffers
	internal   bool   // body is consumed internally (redirect/auth follow-up)
	closeAfter bool
	switches   int
	deadline   time.Time
	started    time.Time
	failed     error
}

const (
	phaseSend = iota
	phaseRecv
)

const (
	framingSized = iota
	framingChunked
	framingClose
	framingWS
)

// outSeg classifies a run of queued outgoing bytes as payload or
// framing (request head, chunk-size lines, CRLFs), so SentBody can
// report payload bytes only.
type outSeg struct {
	payload bool
	n       int
}

// start arms the slot for a new exchange and returns its identity.
func (c *con) start(req *Request) Call {
	c.gen++
	if c.gen == 0xffff {
		c.gen = 0
	}
	c.req = req
	c.phase = phaseSend
	c.reqBodyEOF = !req.chunkedReq
	c.wsKey = ""
	c.digTried = false
	c.switches = 0
	c.failed = nil
	c.closeAfter = false
	c.started = time.Now()
	if req.timeout > 0 {
		c.deadline = c.started.Add(req.timeout)
	} else {
		c.deadline = time.Time{}
	}
	if req.ws {
		c.wsKey = genWsKey()
	}
	c.resetRecv()
	c.serializeHead("")
	return newCall(c.id, c.gen)
}

func (c *con) resetRecv() {
	c.resp = newResponse()
	c.gotHeaders = false
	c.framing = framingSized
	c.body = ResponseBody{}
	c.bodyBuf = c.bodyBuf[:0]
	c.bodyRead = 0
	c.chunks = chunkedDecoder{}
	c.pend = nil
	c.scratch = c.scratch[:0]
	c.internal = false
}

// serializeHead rebuilds the outgoing request bytes, optionally with
// an Authorization value (digest retry).
func (c *con) serializeHead(authz string) {
	req := c.req
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", req.method, req.path())
	fmt.Fprintf(&b, "Host: %s\r\n", req.url.Host)
	if req.header("X-Request-ID") == "" {
		fmt.Fprintf(&b, "X-Request-ID: %s\r\n", genID())
	}
	if req.header("Traceparent") == "" {
		fmt.Fprintf(&b, "Traceparent: %s\r\n", formatTraceparent(genTraceID(), genSpanID()))
	}
	if req.ws {
		b.WriteString("Connection: Upgrade\r\nUpgrade: websocket\r\n")
		fmt.Fprintf(&b, "Sec-WebSocket-Key: %s\r\nSec-WebSocket-Version: 13\r\n", c.wsKey)
	} else {
		b.WriteString("Connection: keep-alive\r\n")
	}
	if authz != "" {
		fmt.Fprintf(&b, "Authorization: %s\r\n", authz)
	}
	if req.chunkedReq {
		b.WriteString("Transfer-Encoding: chunked\r\n")
	} else if len(req.body) > 0 || req.method == "POST" || req.method == "PUT" {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(req.body))
	}
	for _, kv := range req.hdrs {
		if strings.EqualFold(kv[0], "Host") ||
			strings.EqualFold(kv[0], "Connection") ||
			strings.EqualFold(kv[0], "Content-Length") {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\r\n", kv[0], kv[1])
	}
	b.WriteString("\r\n")
	c.headLen = b.Len()
	if !req.chunkedReq {
		b.Write(req.body)
	}
	c.out = append(c.out[:0], b.Bytes()...)
	c.outSegs = append(c.outSegs[:0], outSeg{n: c.headLen})
	if !req.chunkedReq && len(req.body) > 0 {
		c.outSegs = append(c.outSegs, outSeg{payload: true, n: len(req.body)})
	}
	c.outPos = 0
}

// fail marks the exchange dead. Subsequent drives keep reporting the
// same cause.
func (c *con) fail(err error) error {
	if c.failed == nil {
		c.failed = err
	}
	c.closeAfter = true
	return c.failed
}

func (c *con) expired(now time.Time) bool {
	return !c.deadline.IsZero() && now.After(c.deadline)
}

// pushBody queues caller-supplied body bytes for a chunked request.
// A zero-length push marks the end of the body.
func (c *con) pushBody(body []byte) {
	if len(body) == 0 {
		c.out = append(c.out, "0\r\n\r\n"...)
		c.outSegs = append(c.outSegs, outSeg{n: 5})
		c.reqBodyEOF = true
		return
	}
	size := fmt.Sprintf("%x\r\n", len(body))
	c.out = append(c.out, size...)
	c.out = append(c.out, body...)
	c.out = append(c.out, "\r\n"...)
	c.outSegs = append(c.outSegs,
		outSeg{n: len(size)},
		outSeg{payload: true, n: len(body)},
		outSeg{n: 2})
}

// consumeOut accounts n written bytes against the queued segments and
// returns how many of them were payload.
func (c *con) consumeOut(n int) int {
	payload := 0
	for n > 0 && len(c.outSegs) > 0 {
		s := &c.outSegs[0]
		take := s.n
		if take > n {
			take = n
		}
		if s.payload {
			payload += take
		}
		s.n -= take
		n -= take
		if s.n == 0 {
			c.outSegs = c.outSegs[1:]
		}
	}
	return payload
}

// driveSend advances the sending phase by one step.
func (c *con) driveSend(body []byte, log obs.Logger) SendState {
	if c.failed != nil {
		return sendErr(c.failed)
	}
	if c.expired(time.Now()) {
		return sendErr(c.fail(ErrTimeout))
	}
	if body != nil {
		// Caller-supplied bytes are only legal for a chunked request
		// whose body has not ended; anything else is misuse, not a
		// state to silently swallow them in.
		if c.phase == phaseRecv || !c.req.chunkedReq || c.reqBodyEOF {
			return sendErr(c.fail(ErrProtocol))
		}
		c.pushBody(body)
	}
	if c.phase == phaseRecv {
		return sendReceiving()
	}
	if c.outPos == len(c.out) {
		if !c.reqBodyEOF {
			return sendWaitBody()
		}
		c.phase = phaseRecv
		return sendReceiving()
	}
	n, err := c.w.Write(c.out[c.outPos:])
	if err == ErrWouldBlock {
		return sendWait()
	}
	if err != nil {
		log.Logf(obs.Warn, "send on con %d failed: %v", c.id, err)
		return sendErr(c.fail(err))
	}
	c.outPos += n
	if sent := c.consumeOut(n); sent > 0 {
		return sendSent(sent)
	}
	if c.outPos == len(c.out) && c.reqBodyEOF {
		c.phase = phaseRecv
		return sendReceiving()
	}
	return sendWait()
}

// driveRecv advances the receiving phase by one step. When buf is
// non-nil, body bytes are copied into it and the exchange ends with
// Done; when nil, the engine accumulates the body and ends with
// DoneWithBody.
func (c *con) driveRecv(buf []byte, log obs.Logger) RecvState {
	if c.failed != nil {
		return recvErr(c.failed)
	}
	if c.expired(time.Now()) {
		return recvErr(c.fail(ErrTimeout))
	}
	if c.phase == phaseSend {
		return recvSending()
	}
	if !c.gotHeaders {
		return c.readHeaders(log)
	}
	return c.readBody(buf, log)
}

// readHeaders accumulates the raw status line and header block and
// classifies the body once the block is complete.
func (c *con) readHeaders(log obs.Logger) RecvState {
	for {
		if i := bytes.Index(c.resp.hdrs, []byte("\r\n\r\n")); i >= 0 {
			rest := c.resp.hdrs[i+4:]
			c.resp.hdrs = c.resp.hdrs[:i+4]
			c.pend = append(c.pend, rest...)
			return c.finishHeaders(log)
		}
		n, err := c.w.Read(c.rbuf)
		if err == ErrWouldBlock {
			return recvWait()
		}
		if err == io.EOF {
			return recvErr(c.fail(ErrClosed))
		}
		if err != nil {
			log.Logf(obs.Warn, "recv on con %d failed: %v", c.id, err)
			return recvErr(c.fail(err))
		}
		c.resp.hdrs = append(c.resp.hdrs, c.rbuf[:n]...)
	}
}

func (c *con) finishHeaders(log obs.Logger) RecvState {
	status, ok := parseStatusLine(c.resp.hdrs)
	if !ok {
		return recvErr(c.fail(ErrProtocol))
	}
	// Interim responses (100 Continue etc.) are dropped and reading
	// continues with the real response.
	if status >= 100 && status < 200 && status != 101 {
		rest := c.pend
		c.pend = nil
		c.resp.hdrs = append(c.resp.hdrs[:0], rest...)
		return c.readHeaders(log)
	}
	c.resp.Status = status
	c.gotHeaders = true

	hdrs := c.resp.Headers()
	switch {
	case status == 101:
		accept, _ := hdrs.Get("Sec-WebSocket-Accept")
		if c.wsKey == "" || accept != wsAccept(c.wsKey) {
			return recvErr(c.fail(ErrProtocol))
		}
		c.resp.ws = true
		c.framing = framingWS
		c.body = Streamed()
		c.closeAfter = true
	case status == 204 || status == 304 || c.req.method == "HEAD":
		c.framing = framingSized
		c.body = Sized(0)
	default:
		if te, ok := hdrs.Get("Transfer-Encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
			c.framing = framingChunked
			c.body = Streamed()
			c.chunks = chunkedDecoder{}
		} else if cl, ok := hdrs.Get("Content-Length"); ok {
			n, err := parseContentLength(cl)
			if err != nil {
				return recvErr(c.fail(ErrProtocol))
			}
			c.framing = framingSized
			c.body = Sized(n)
		} else {
			c.framing = framingClose
			c.body = Streamed()
			c.closeAfter = true
		}
	}
	if conn, ok := hdrs.Get("Connection"); ok && strings.EqualFold(conn, "close") {
		c.closeAfter = true
	}
	// A follow-up (redirect, digest challenge) consumes this body
	// internally and flips the exchange back to sending.
	c.internal = c.plansFollowUp(&hdrs)
	return recvResponse(c.resp, c.body)
}

// plansFollowUp decides whether the response triggers a phase switch
// once its body has been consumed.
func (c *con) plansFollowUp(hdrs *Headers) bool {
	if isRedirect(c.resp.Status) {
		loc, ok := hdrs.Get("Location")
		return ok && loc != ""
	}
	if c.switches >= c.maxSw {
		return false
	}
	// Digest auth is answered at most once per exchange: a 401 after
	// the credentialed resend means the credentials are wrong, and
	// retrying them cannot change the outcome.
	if c.resp.Status == 401 && c.req.digUser != "" && !c.digTried {
		if v, ok := hdrs.Get("WWW-Authenticate"); ok {
			_, isDigest := parseDigestChallenge(v)
			return isDigest
		}
	}
	return false
}

// bodyComplete reports whether the framing says every body byte has
// arrived.
func (c *con) bodyComplete() bool {
	switch c.framing {
	case framingSized:
		size, _ := c.body.Size()
		return c.bodyRead == size
	case framingChunked:
		return c.chunks.state == chunkDone
	}
	return false // close-delimited and WS end only at EOF
}

// readBody streams body bytes until the framing says the exchange is
// over, then either finishes or re-enters the send phase.
func (c *con) readBody(buf []byte, log obs.Logger) RecvState {
	if c.bodyComplete() {
		return c.deliver(nil, buf, true, log)
	}
	// Cap one step at the caller's buffer so delivered counts always
	// fit. Decoded chunked output never exceeds its raw input.
	limit := len(c.rbuf)
	if buf != nil && len(buf) > 0 && len(buf) < limit {
		limit = len(buf)
	}
	var chunk []byte
	if len(c.pend) > limit {
		chunk = c.pend[:limit]
		c.pend = c.pend[limit:]
	} else {
		chunk = c.pend
		c.pend = nil
	}
	eof := false
	if len(chunk) == 0 {
		n, err := c.w.Read(c.rbuf[:limit])
		switch {
		case err == ErrWouldBlock:
			return recvWait()
		case err == io.EOF:
			eof = true
		case err != nil:
			log.Logf(obs.Warn, "recv on con %d failed: %v", c.id, err)
			return recvErr(c.fail(err))
		default:
			chunk = c.rbuf[:n]
		}
	}

	// The engine retains body bytes only when it is the one buffering
	// them: a caller-supplied buffer or an internally consumed body
	// (redirect, challenge) would otherwise grow bodyBuf without
	// bound on long streamed exchanges.
	retain := buf == nil && !c.internal

	switch c.framing {
	case framingChunked:
		dst := &c.bodyBuf
		base := len(c.bodyBuf)
		if !retain {
			c.scratch = c.scratch[:0]
			dst = &c.scratch
			base = 0
		}
		consumed, done, err := c.chunks.feed(chunk, dst)
		if err != nil {
			return recvErr(c.fail(err))
		}
		if consumed < len(chunk) {
			// Unconsumed raw bytes go back in front of anything
			// already pending.
			rest := append([]byte(nil), chunk[consumed:]...)
			c.pend = append(rest, c.pend...)
		}
		got := (*dst)[base:]
		c.bodyRead += int64(len(got))
		if !done && eof {
			return recvErr(c.fail(ErrClosed))
		}
		return c.deliver(got, buf, done, log)
	case framingSized:
		size, _ := c.body.Size()
		left := size - c.bodyRead
		if int64(len(chunk)) > left {
			chunk = chunk[:left]
		}
		c.bodyRead += int64(len(chunk))
		if retain {
			c.bodyBuf = append(c.bodyBuf, chunk...)
		}
		done := c.bodyRead == size
		if !done && eof {
			return recvErr(c.fail(ErrClosed))
		}
		return c.deliver(chunk, buf, done, log)
	default:
		c.bodyRead += int64(len(chunk))
		if retain {
			c.bodyBuf = append(c.bodyBuf, chunk...)
		}
		return c.deliver(chunk, buf, eof, log)
	}
}

// deliver hands body progress to the caller or, for internally
// consumed bodies, stays quiet until the follow-up can be sent.
func (c *con) deliver(got []byte, buf []byte, complete bool, log obs.Logger) RecvState {
	if c.req.maxResp > 0 && c.bodyRead > c.req.maxResp {
		return recvErr(c.fail(ErrTooLarge))
	}
	if c.internal {
		if !complete {
			return recvWait()
		}
		return c.followUp(log)
	}
	if len(got) > 0 {
		if buf != nil {
			copy(buf, got)
		}
		return recvBody(len(got))
	}
	if !complete {
		return recvWait()
	}
	if buf == nil && len(c.bodyBuf) > 0 {
		body := make([]byte, len(c.bodyBuf))
		copy(body, c.bodyBuf)
		return recvDoneBody(body)
	}
	return recvDone()
}

// followUp re-serializes the request for a redirect or digest retry
// and flips the exchange back to the send phase.
func (c *con) followUp(log obs.Logger) RecvState {
	if c.switches >= c.maxSw {
		return recvErr(c.fail(ErrRedirectLoop))
	}
	hdrs := c.resp.Headers()
	authz := ""
	if c.resp.Status == 401 {
		v, _ := hdrs.Get("WWW-Authenticate")
		ch, ok := parseDigestChallenge(v)
		if !ok {
			return recvErr(c.fail(ErrProtocol))
		}
		a, err := ch.answer(c.req.digUser, c.req.digPass, c.req.method, c.req.path())
		if err != nil {
			return recvErr(c.fail(err))
		}
		authz = a
		c.digTried = true
	} else {
		loc, _ := hdrs.Get("Location")
		if !resolveRedirect(c.req, c.resp.Status, loc) {
			return recvErr(c.fail(ErrProtocol))
		}
		log.Logf(obs.Debug, "con %d following redirect to %s", c.id, c.req.url)
		if key := conKey(c.req); key != c.key {
			c.w.Close()
			c.w = c.dial(c.req)
			c.key = key
		}
	}
	c.switches++
	c.phase = phaseSend
	c.reqBodyEOF = !c.req.chunkedReq
	c.resetRecv()
	c.serializeHead(authz)
	return recvSending()
}

func parseStatusLine(raw []byte) (int, bool) {
	end := lineEnd(raw, 0)
	if end < 0 {
		return 0, false
	}
	line := trimCRLF(raw[:end])
	if !bytes.HasPrefix(line, []byte("HTTP/1.")) {
		return 0, false
	}
	sp := indexByte(line, ' ')
	if sp < 0 || len(line) < sp+4 {
		return 0, false
	}
	status := 0
	for i := sp + 1; i < sp+4; i++ {
		if line[i] < '0' || line[i] > '9' {
			return 0, false
		}
		status = status*10 + int(line[i]-'0')
	}
	return status, true
}

func parseContentLength(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, ErrProtocol
	}
	var n int64
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return 0, ErrProtocol
		}
		n = n*10 + int64(v[i]-'0')
		if n < 0 {
			return 0, ErrProtocol
		}
	}
	return n, nil
}
