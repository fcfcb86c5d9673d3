// Package obs is the cold-path process logger: startup, shutdown phase
// transitions, reconnect counters. CPU pin confirmations are printed by
// the affinity package through debug.Message, not here. Nothing on the
// receive/merge/log hot path calls into it — see the debug package for
// that.
package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap logger with an ISO8601 timestamp
// encoder, matching the configuration style used elsewhere in this
// ecosystem for process-level logging.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Phase logs a one-line shutdown/startup phase transition, the cold-path
// analogue of the teacher's own per-phase banner prints.
func Phase(log *zap.Logger, name string) {
	log.Info("phase", zap.String("name", name))
}
