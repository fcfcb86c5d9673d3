//go:build linux

// reactor_linux.go — epoll-backed readiness source.
//
// Mirrors the teacher's own main_linux.go dispatch loop: EpollCreate1,
// EpollCtl(ADD, EPOLLIN), EpollWait with EINTR retry. Generalized from
// one hardcoded fd to an arbitrary set of registered fds, each handed
// its own one-shot notification channel per wakeup.

package reactor

import (
	"sync"
	"syscall"
)

type epollBackend struct {
	efd int

	mu   sync.Mutex
	subs map[int32]chan struct{}
}

func newBackend() (backend, error) {
	efd, err := syscall.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &epollBackend{efd: efd, subs: make(map[int32]chan struct{})}, nil
}

func (b *epollBackend) register(fd int) <-chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	if _, exists := b.subs[int32(fd)]; !exists {
		ev := syscall.EpollEvent{Events: syscall.EPOLLIN, Fd: int32(fd)}
		_ = syscall.EpollCtl(b.efd, syscall.EPOLL_CTL_ADD, fd, &ev)
	}
	b.subs[int32(fd)] = ch
	b.mu.Unlock()
	return ch
}

func (b *epollBackend) loop(stop <-chan struct{}) {
	var events [64]syscall.EpollEvent
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := syscall.EpollWait(b.efd, events[:], 200)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			return
		}
		b.mu.Lock()
		for i := 0; i < n; i++ {
			if ch, ok := b.subs[events[i].Fd]; ok {
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
		b.mu.Unlock()
	}
}

func (b *epollBackend) close() {
	syscall.Close(b.efd)
}
