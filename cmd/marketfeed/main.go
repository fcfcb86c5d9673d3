// Command marketfeed ingests a redundant WebSocket market-data feed
// across K connections, reorders and deduplicates it by update id, and
// appends the result to a single output file alongside per-connection
// latency logs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codewanderer42820/marketfeed/affinity"
	"github.com/codewanderer42820/marketfeed/config"
	"github.com/codewanderer42820/marketfeed/obs"
	"github.com/codewanderer42820/marketfeed/runner"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	log, err := obs.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "marketfeed: building logger:", err)
		return 2
	}
	defer log.Sync()

	affinity.Reset()

	r, err := runner.New(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, runner.ErrOutputUnopenable) {
			return 1
		}
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received interrupt, shutting down")
		cancel()
	}()

	if err := r.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return 0
}
