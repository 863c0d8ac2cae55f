//go:build !linux

package poll

// Poller is unavailable on this platform; the engine falls back to
// timer-driven stepping.
type Poller struct{}

func New() (*Poller, error) { return nil, ErrUnsupported }

func (p *Poller) Add(fd int) error { return ErrUnsupported }

func (p *Poller) Del(fd int) error { return ErrUnsupported }

func (p *Poller) Wait(ms int) ([]int, error) { return nil, ErrUnsupported }

func (p *Poller) Close() error { return nil }
