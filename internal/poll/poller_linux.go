//go:build linux

package poll

import "syscall"

const maxEvents = 128

// Poller wraps an epoll instance.
type Poller struct {
	epfd   int
	events []syscall.EpollEvent
}

// New creates an epoll instance.
func New() (*Poller, error) {
	epfd, err := syscall.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &Poller{epfd: epfd, events: make([]syscall.EpollEvent, maxEvents)}, nil
}

// Add registers fd for read and write readiness, level-triggered.
func (p *Poller) Add(fd int) error {
	return syscall.EpollCtl(p.epfd, syscall.EPOLL_CTL_ADD, fd, &syscall.EpollEvent{
		Events: syscall.EPOLLIN | syscall.EPOLLOUT | syscall.EPOLLRDHUP,
		Fd:     int32(fd),
	})
}

// Del removes fd from the set.
func (p *Poller) Del(fd int) error {
	return syscall.EpollCtl(p.epfd, syscall.EPOLL_CTL_DEL, fd, nil)
}

// Wait blocks for up to ms milliseconds (-1 waits indefinitely) and
// returns the descriptors that are ready. EINTR yields an empty set.
func (p *Poller) Wait(ms int) ([]int, error) {
	n, err := syscall.EpollWait(p.epfd, p.events, ms)
	if err != nil {
		if err == syscall.EINTR {
			return nil, nil
		}
		return nil, err
	}
	fds := make([]int, 0, n)
	for i := 0; i < n; i++ {
		fds = append(fds, int(p.events[i].Fd))
	}
	return fds, nil
}

// Close releases the epoll instance.
func (p *Poller) Close() error {
	return syscall.Close(p.epfd)
}
