// Package logging constructs the zap.Logger used by every long-lived
// yomimemo component. No package holds a package-level logger; each
// component receives one explicitly at construction, following the
// explicit-handle convention the engine uses for the store (see
// internal/store) instead of process-wide globals.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger suitable for a CLI tool. In verbose mode it
// uses zap's development config (caller info, DebugLevel, stack traces on
// warn+); otherwise it logs InfoLevel and up with a terse console encoder.
func New(verbose bool) *zap.Logger {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// WithRun returns logger tagged with a run_id field, used to correlate all
// log lines emitted by a single CLI invocation.
func WithRun(logger *zap.Logger, runID string) *zap.Logger {
	return logger.With(zap.String("run_id", runID))
}
