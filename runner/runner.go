// Package runner wires rings, sessions, the merger, and the latency
// logger together and drives the phased startup/shutdown sequence: it
// is the only place that owns every subsystem at once.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codewanderer42820/marketfeed/affinity"
	"github.com/codewanderer42820/marketfeed/config"
	"github.com/codewanderer42820/marketfeed/constants"
	"github.com/codewanderer42820/marketfeed/latencylogger"
	"github.com/codewanderer42820/marketfeed/merger"
	"github.com/codewanderer42820/marketfeed/reactor"
	"github.com/codewanderer42820/marketfeed/ring"
	"github.com/codewanderer42820/marketfeed/session"
	"github.com/codewanderer42820/marketfeed/types"
	"github.com/codewanderer42820/marketfeed/urlutil"
	"go.uber.org/zap"
)

// ErrOutputUnopenable identifies the §6 exit-code-1 condition: the
// merged output file could not be opened.
var ErrOutputUnopenable = errors.New("output file could not be opened")

// Runner owns every subsystem for one process lifetime.
type Runner struct {
	cfg config.Config
	log *zap.Logger

	sessionStop uint32
	mergerStop  uint32
	loggerRun   uint32

	sessions []*session.Session
	rawRings []*ring.SpscRing[types.RawUpdate]
	latRings []*ring.SpscRing[types.LatencyEvent]
	latFiles []*os.File

	merger *merger.Merger
	logger *latencylogger.Logger
	rctr   *reactor.Reactor

	outFile *os.File

	sessionsWG sync.WaitGroup
	drainWG    sync.WaitGroup
}

// New builds a Runner from resolved configuration. It opens the merged
// output file and every per-session latency file up front so a bad
// path fails fast, before any session dials out.
func New(cfg config.Config, log *zap.Logger) (*Runner, error) {
	ep, err := urlutil.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	outFile, err := os.OpenFile(cfg.Out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("runner: opening %s: %w: %w", cfg.Out, ErrOutputUnopenable, err)
	}

	if err := os.MkdirAll(constants.LatencyDir, 0o755); err != nil {
		outFile.Close()
		return nil, fmt.Errorf("runner: creating %s: %w", constants.LatencyDir, err)
	}

	r := &Runner{cfg: cfg, log: log, outFile: outFile, loggerRun: 1}

	stamp := time.Now().Format("20060102_150405")
	for i := 0; i < cfg.N; i++ {
		rawRing := ring.NewSpscRing[types.RawUpdate](constants.RawRingSize)
		latRing := ring.NewSpscRing[types.LatencyEvent](constants.LatencyRingSize)

		name := fmt.Sprintf("%s_conn_%d_%s.lat", cfg.Mode, i, stamp)
		latFile, err := os.OpenFile(filepath.Join(constants.LatencyDir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			r.closePartial()
			return nil, fmt.Errorf("runner: opening latency file for session %d: %w", i, err)
		}

		r.rawRings = append(r.rawRings, rawRing)
		r.latRings = append(r.latRings, latRing)
		r.latFiles = append(r.latFiles, latFile)
		r.sessions = append(r.sessions, &session.Session{
			ID:       i,
			Endpoint: ep,
			RawRing:  rawRing,
			LatRing:  latRing,
			Stop:     &r.sessionStop,
			Core:     r.coreFor(i),
		})
	}

	latFds := make([]int, len(r.latFiles))
	for i, f := range r.latFiles {
		latFds[i] = int(f.Fd())
	}
	r.merger = merger.New(r.rawRings, int(outFile.Fd()), &r.mergerStop)
	r.logger = latencylogger.New(r.latRings, latFds, &r.loggerRun)

	return r, nil
}

func (r *Runner) closePartial() {
	r.outFile.Close()
	for _, f := range r.latFiles {
		f.Close()
	}
}

// coreFor maps a logical slot (sessions 0..N-1, then merger, then
// logger, then the reactor) onto the configured pin list cyclically.
// -1 (no pin) when no list was configured.
func (r *Runner) coreFor(slot int) int {
	if len(r.cfg.Cpus) == 0 {
		return -1
	}
	return r.cfg.Cpus[slot%len(r.cfg.Cpus)]
}

// Run starts every subsystem, blocks until ctx is cancelled or the
// configured deadline elapses, then drives the shutdown protocol in
// order: stop the reactor, stop sessions, drain the merger, drain the
// logger.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Mode == "async" {
		rctr, err := reactor.New(r.coreFor(r.cfg.N + 2))
		if err != nil {
			return fmt.Errorf("runner: %w", err)
		}
		r.rctr = rctr
		r.rctr.Start()
		for _, s := range r.sessions {
			r.rctr.Spawn(&session.AsyncTask{S: s, Ctx: ctx})
		}
	} else {
		for _, s := range r.sessions {
			s := s
			r.sessionsWG.Add(1)
			go func() {
				defer r.sessionsWG.Done()
				session.RunSync(ctx, s)
			}()
		}
	}

	r.drainWG.Add(2)
	go r.runPinned(r.coreFor(r.cfg.N), "merger", r.merger.Run)
	go r.runPinned(r.coreFor(r.cfg.N+1), "latencylogger", r.logger.Run)

	r.log.Info("runner started",
		zap.String("mode", r.cfg.Mode),
		zap.Int("sessions", r.cfg.N),
		zap.String("url", r.cfg.URL),
		zap.String("out", r.cfg.Out),
	)

	if r.cfg.Seconds > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(r.cfg.Seconds) * time.Second):
		}
	} else {
		<-ctx.Done()
	}

	r.shutdown()
	return nil
}

// runPinned locks the calling goroutine to an OS thread, optionally
// pins it to a CPU, runs fn to completion, then signals drainWG.
func (r *Runner) runPinned(core int, owner string, fn func()) {
	defer r.drainWG.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if core >= 0 {
		_ = affinity.Pin(core, owner)
	}
	fn()
}

// shutdown implements the ordering §4.6 requires: no live producer may
// mutate a ring after its consumer has been joined. The merger has its
// own stop flag, distinct from sessionStop, so it only begins its final
// drain once every session producer is actually joined — in sync mode
// a session's dedicated thread can still be mid-write to its ring for
// the whole of sessionsWG.Wait(), and aliasing the two flags let the
// merger observe a transient empty ring and exit early, stranding
// in-flight updates.
func (r *Runner) shutdown() {
	if r.rctr != nil {
		r.rctr.Stop()
	}

	atomic.StoreUint32(&r.sessionStop, 1)
	if r.cfg.Mode == "sync" {
		r.sessionsWG.Wait() // sessions unblock via their own read deadline
	}

	// Every session producer is joined now; safe for the merger to drain
	// and exit. Stop the logger too and wait for both final passes.
	atomic.StoreUint32(&r.mergerStop, 1)
	atomic.StoreUint32(&r.loggerRun, 0)
	r.drainWG.Wait()

	r.reportSummary()

	r.outFile.Close()
	for _, f := range r.latFiles {
		f.Close()
	}
}

func (r *Runner) reportSummary() {
	for _, s := range r.sessions {
		r.log.Info("session summary",
			zap.Int("session", s.ID),
			zap.Uint64("reconnects", s.Counters.Reconnects),
			zap.Uint64("raw_drops", s.Counters.RawDrops),
			zap.Uint64("lat_drops", s.Counters.LatDrops),
		)
	}
}
