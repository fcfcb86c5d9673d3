// Package reactor implements the single-threaded, non-blocking I/O
// executor that hosts every async session as a cooperative task. Each
// platform-specific file provides the readiness backend (newBackend and
// its register/loop/close methods); WaitReadable and the dispatch
// bookkeeping here are platform-agnostic.
package reactor

import (
	"runtime"
	"sync"

	"github.com/codewanderer42820/marketfeed/affinity"
)

// Task is one unit of cooperative work the reactor drives to
// completion. Run blocks until the task's connection is readable (via
// WaitReadable) or stop fires; it returns when the task is done for
// good (connection closed, stop requested).
type Task interface {
	Run(r *Reactor, stop <-chan struct{})
}

// Reactor owns the platform readiness source and runs each registered
// task on its own goroutine. Only the readiness loop occupies the OS
// thread that Start locks; tasks are ordinary goroutines, cooperative in
// the sense that every task suspends at WaitReadable before each read.
type Reactor struct {
	core int
	wg   sync.WaitGroup
	stop chan struct{}

	backend backend
}

// New creates a reactor. core < 0 means "do not pin".
func New(core int) (*Reactor, error) {
	b, err := newBackend()
	if err != nil {
		return nil, err
	}
	return &Reactor{core: core, stop: make(chan struct{}), backend: b}, nil
}

// Start locks the calling goroutine to an OS thread (optionally pinned
// to a CPU) and begins servicing readiness events until Stop is called.
func (r *Reactor) Start() {
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if r.core >= 0 {
			_ = affinity.Pin(r.core, "reactor")
		}
		r.backend.loop(r.stop)
	}()
}

// Spawn registers a task; it runs on its own goroutine but every
// blocking point is WaitReadable, so it never occupies a second OS
// thread's worth of kernel blocking time.
func (r *Reactor) Spawn(t Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t.Run(r, r.stop)
	}()
}

// WaitReadable blocks the calling task's goroutine until fd is readable
// or the reactor stops.
func (r *Reactor) WaitReadable(fd int) <-chan struct{} {
	return r.backend.register(fd)
}

// Stop cancels pending I/O and waits for every spawned task to return.
func (r *Reactor) Stop() {
	close(r.stop)
	r.backend.close()
	r.wg.Wait()
}

// backend is the platform-specific readiness source.
type backend interface {
	register(fd int) <-chan struct{}
	loop(stop <-chan struct{})
	close()
}
