//go:build darwin

// reactor_darwin.go — kqueue-backed readiness source.
//
// Mirrors the teacher's own main_darwin.go dispatch loop: Kqueue,
// Kevent(EVFILT_READ, EV_ADD), Kevent wait. Generalized from one
// hardcoded fd to an arbitrary set of registered fds.

package reactor

import (
	"sync"
	"syscall"
)

type kqueueBackend struct {
	kq int

	mu   sync.Mutex
	subs map[int]chan struct{}
}

func newBackend() (backend, error) {
	kq, err := syscall.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueueBackend{kq: kq, subs: make(map[int]chan struct{})}, nil
}

func (b *kqueueBackend) register(fd int) <-chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	if _, exists := b.subs[fd]; !exists {
		change := syscall.Kevent_t{
			Ident:  uint64(fd),
			Filter: syscall.EVFILT_READ,
			Flags:  syscall.EV_ADD,
		}
		_, _ = syscall.Kevent(b.kq, []syscall.Kevent_t{change}, nil, nil)
	}
	b.subs[fd] = ch
	b.mu.Unlock()
	return ch
}

func (b *kqueueBackend) loop(stop <-chan struct{}) {
	var events [64]syscall.Kevent_t
	ts := syscall.Timespec{Sec: 0, Nsec: 200_000_000}
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := syscall.Kevent(b.kq, nil, events[:], &ts)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			return
		}
		b.mu.Lock()
		for i := 0; i < n; i++ {
			fd := int(events[i].Ident)
			if ch, ok := b.subs[fd]; ok {
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
		b.mu.Unlock()
	}
}

func (b *kqueueBackend) close() {
	syscall.Close(b.kq)
}
