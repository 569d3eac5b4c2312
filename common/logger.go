package common

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var loggerPtr atomic.Pointer[zap.Logger]

func init() {
	loggerPtr.Store(zap.NewNop())
}

// SetLogger configures the logger used by every engine package.
// By default the engine produces no log output. Pass nil to restore the silent default.
//
// SetLogger is safe for concurrent use.
//
// Parameters:
//   - l: the logger to install, or nil
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger.
//
// Returns:
//   - *zap.Logger: the installed logger, never nil
func Logger() *zap.Logger {
	return loggerPtr.Load()
}

// NewLogger builds a zap logger at the given level ("debug", "info", "warn", "error").
//
// Parameters:
//   - level: the minimum enabled level
//   - development: true for the human-readable console encoder
//
// Returns:
//   - *zap.Logger: the constructed logger
//   - error: an error if the level is unknown or the logger could not be built
func NewLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(Coalesce(level, "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
