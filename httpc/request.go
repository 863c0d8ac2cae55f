package httpc

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

// Request is a fluent builder for one exchange. Build it, then hand
// it to Httpc.StartCall; the returned Call is what gets driven.
//
//	req := httpc.NewRequest().Get("https://example.com/a").Header("Accept", "text/plain")
//	call, err := h.StartCall(req)
type Request struct {
	method     string
	url        *url.URL
	hdrs       [][2]string
	body       []byte
	chunkedReq bool
	ws         bool
	digUser    string
	digPass    string
	timeout    time.Duration
	maxResp    int64
	err        error
}

// NewRequest returns an empty builder.
func NewRequest() *Request {
	return &Request{method: "GET"}
}

// Method sets the HTTP method.
func (r *Request) Method(m string) *Request {
	r.method = m
	return r
}

// URL parses and sets the target URL. Only http and https schemes are
// accepted (ws/wss are aliased onto them).
func (r *Request) URL(rawurl string) *Request {
	u, err := url.Parse(rawurl)
	if err != nil {
		r.fail(fmt.Errorf("httpc: bad url %q: %w", rawurl, err))
		return r
	}
	switch u.Scheme {
	case "http", "https":
	case "ws":
		u.Scheme = "http"
		r.ws = true
	case "wss":
		u.Scheme = "https"
		r.ws = true
	default:
		r.fail(fmt.Errorf("httpc: unsupported scheme %q", u.Scheme))
		return r
	}
	if u.Host == "" {
		r.fail(fmt.Errorf("httpc: url %q has no host", rawurl))
		return r
	}
	r.url = u
	return r
}

// Get sets method GET and the URL.
func (r *Request) Get(rawurl string) *Request {
	return r.Method("GET").URL(rawurl)
}

// Post sets method POST, the URL and the body.
func (r *Request) Post(rawurl string, body []byte) *Request {
	return r.Method("POST").URL(rawurl).Body(body)
}

// Put sets method PUT, the URL and the body.
func (r *Request) Put(rawurl string, body []byte) *Request {
	return r.Method("PUT").URL(rawurl).Body(body)
}

// Delete sets method DELETE and the URL.
func (r *Request) Delete(rawurl string) *Request {
	return r.Method("DELETE").URL(rawurl)
}

// Header appends a header. Names and values are validated; an invalid
// pair poisons the builder and surfaces from StartCall.
func (r *Request) Header(name, value string) *Request {
	if !httpguts.ValidHeaderFieldName(name) {
		r.fail(fmt.Errorf("httpc: invalid header name %q", name))
		return r
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		r.fail(fmt.Errorf("httpc: invalid header value for %q", name))
		return r
	}
	r.hdrs = append(r.hdrs, [2]string{name, value})
	return r
}

// Body sets the full request body. For bodies supplied incrementally,
// leave this unset and answer WaitReqBody from CallSend instead.
func (r *Request) Body(b []byte) *Request {
	r.body = b
	return r
}

// ChunkedBody marks the body as supplied incrementally by the caller:
// CallSend reports WaitReqBody until the caller pushes bytes or
// signals the end with an empty final chunk.
func (r *Request) ChunkedBody() *Request {
	r.body = nil
	r.chunkedReq = true
	return r
}

// DigestAuth arms a one-shot digest-authentication retry for a 401
// challenge.
func (r *Request) DigestAuth(user, pass string) *Request {
	r.digUser, r.digPass = user, pass
	return r
}

// WebSocket requests a protocol upgrade.
func (r *Request) WebSocket() *Request {
	r.ws = true
	return r
}

// Timeout sets the per-exchange deadline enforced by the engine.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// MaxResponseSize caps how many body bytes the engine will buffer.
func (r *Request) MaxResponseSize(n int64) *Request {
	r.maxResp = n
	return r
}

func (r *Request) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Request) valid() error {
	if r.err != nil {
		return r.err
	}
	if r.url == nil {
		return fmt.Errorf("httpc: request has no url")
	}
	return nil
}

func (r *Request) isTLS() bool {
	return r.url.Scheme == "https"
}

// addr returns host:port with the scheme default filled in.
func (r *Request) addr() string {
	host := r.url.Host
	if !strings.Contains(host, ":") || strings.HasSuffix(host, "]") {
		if r.isTLS() {
			return host + ":443"
		}
		return host + ":80"
	}
	return host
}

func (r *Request) hostNoPort() string {
	h := r.url.Host
	if strings.HasPrefix(h, "[") {
		if i := strings.Index(h, "]"); i >= 0 {
			return h[1:i]
		}
		return h
	}
	if i := strings.LastIndex(h, ":"); i >= 0 {
		return h[:i]
	}
	return h
}

func (r *Request) path() string {
	p := r.url.RequestURI()
	if p == "" {
		return "/"
	}
	return p
}

func (r *Request) header(name string) string {
	for _, kv := range r.hdrs {
		if strings.EqualFold(kv[0], name) {
			return kv[1]
		}
	}
	return ""
}
