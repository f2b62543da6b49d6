package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.SugaredLogger
}

// NewLogger builds a zap-backed logger at the given level.
// Unknown or empty levels fall back to info.
func NewLogger(level string) *Logger {
	lvl := zapcore.InfoLevel
	if level != "" {
		if parsed, err := zapcore.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		l, _ = zap.NewDevelopment()
	}
	return &Logger{l.Sugar()}
}

// NewNopLogger returns a logger that discards everything. Used in tests.
func NewNopLogger() *Logger { return &Logger{zap.NewNop().Sugar()} }

func (l *Logger) Sync() error { return l.SugaredLogger.Sync() }
