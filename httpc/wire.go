package httpc

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// wire is a non-blocking byte stream. Read and Write return
// ErrWouldBlock when no progress is possible before the next
// readiness event; they never park the calling goroutine for longer
// than the poll quantum.
type wire interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// pollQuantum bounds how long a netWire read or write may sit in the
// kernel before reporting would-block. Readiness is expected to have
// been signalled already, so the common case returns immediately.
const pollQuantum = time.Millisecond

// netWire adapts net.Conn (plain or TLS) to the wire contract using
// immediate deadlines. The dial itself runs in the background so
// StartCall never blocks; until the connection lands, both Read and
// Write report would-block.
type netWire struct {
	mu     sync.Mutex
	c      net.Conn
	rawFd  int
	err    error
	closed bool
}

func dialWire(addr, serverName string, tlsCfg *tls.Config, timeout time.Duration) *netWire {
	w := &netWire{rawFd: -1}
	go func() {
		d := net.Dialer{Timeout: timeout}
		c, err := d.Dial("tcp", addr)
		var fd = -1
		if err == nil {
			fd = rawFdOf(c)
			if tlsCfg != nil {
				cfg := tlsCfg.Clone()
				if cfg.ServerName == "" {
					cfg.ServerName = serverName
				}
				if len(cfg.NextProtos) == 0 {
					cfg.NextProtos = []string{"http/1.1"}
				}
				c = tls.Client(c, cfg)
			}
		}
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			if c != nil {
				c.Close()
			}
			return
		}
		w.c, w.err, w.rawFd = c, err, fd
		w.mu.Unlock()
	}()
	return w
}

func (w *netWire) conn() (net.Conn, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	if w.err != nil {
		return nil, w.err
	}
	if w.c == nil {
		return nil, ErrWouldBlock
	}
	return w.c, nil
}

func (w *netWire) Read(p []byte) (int, error) {
	c, err := w.conn()
	if err != nil {
		return 0, err
	}
	c.SetReadDeadline(time.Now().Add(pollQuantum))
	n, err := c.Read(p)
	if n > 0 {
		return n, nil
	}
	if isTimeout(err) {
		return 0, ErrWouldBlock
	}
	if err == io.EOF {
		return 0, io.EOF
	}
	if err != nil {
		return 0, classify(err)
	}
	return 0, nil
}

func (w *netWire) Write(p []byte) (int, error) {
	c, err := w.conn()
	if err != nil {
		return 0, err
	}
	c.SetWriteDeadline(time.Now().Add(pollQuantum))
	n, err := c.Write(p)
	if isTimeout(err) {
		if n > 0 {
			return n, nil
		}
		return 0, ErrWouldBlock
	}
	if err != nil {
		return n, classify(err)
	}
	return n, nil
}

func (w *netWire) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.c != nil {
		return w.c.Close()
	}
	return nil
}

// Fd returns the raw socket descriptor for poller registration, or
// false while the dial is still in flight.
func (w *netWire) Fd() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rawFd, w.rawFd >= 0
}

func rawFdOf(c net.Conn) int {
	tc, ok := c.(*net.TCPConn)
	if !ok {
		return -1
	}
	rc, err := tc.SyscallConn()
	if err != nil {
		return -1
	}
	fd := -1
	rc.Control(func(u uintptr) { fd = int(u) })
	return fd
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// classify tags TLS failures so callers can match them with errors.Is.
func classify(err error) error {
	var verify *tls.CertificateVerificationError
	var record tls.RecordHeaderError
	if errors.As(err, &verify) || errors.As(err, &record) {
		return fmt.Errorf("%w: %v", ErrTLS, err)
	}
	return err
}

// rootPool assembles the verification pool from configured extra
// certificates on top of the system roots. The certificate bytes are
// taken as given; undecodable entries are skipped.
func rootPool(cfg Config) *x509.CertPool {
	if len(cfg.PemCA) == 0 && len(cfg.DerCA) == 0 {
		return nil
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	for _, pem := range cfg.PemCA {
		pool.AppendCertsFromPEM(pem)
	}
	for _, der := range cfg.DerCA {
		if cert, err := x509.ParseCertificate(der); err == nil {
			pool.AddCert(cert)
		}
	}
	return pool
}
