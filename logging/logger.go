// Package logging is the structured logging surface used across mmoss.
package logging

import (
	"log/slog"
	"sync/atomic"
)

type Logger interface {
	Trace(msg string, keyValues ...any)
	Debug(msg string, keyValues ...any)
	Info(msg string, keyValues ...any)
	Warn(msg string, keyValues ...any)
	Error(msg string, keyValues ...any)
}

// LevelTrace sits below slog.LevelDebug for per-message replication chatter
const LevelTrace = slog.LevelDebug - 4

var defaultLogger atomic.Pointer[Logger]

func init() {
	var l Logger = NewSlog(slog.Default())
	defaultLogger.Store(&l)
}

// Default returns the process-wide logger used when none is configured
func Default() Logger {
	return *defaultLogger.Load()
}

// SetDefault replaces the process-wide logger
func SetDefault(l Logger) {
	if l == nil {
		l = Nop{}
	}
	defaultLogger.Store(&l)
}

// Nop discards everything
type Nop struct{}

func (Nop) Trace(string, ...any) {}
func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

// Global forwards to whatever Default returns at the time of each call, so
// loggers handed out before SetDefault follow later changes
type Global struct{}

func (Global) Trace(msg string, keyValues ...any) { Default().Trace(msg, keyValues...) }
func (Global) Debug(msg string, keyValues ...any) { Default().Debug(msg, keyValues...) }
func (Global) Info(msg string, keyValues ...any)  { Default().Info(msg, keyValues...) }
func (Global) Warn(msg string, keyValues ...any)  { Default().Warn(msg, keyValues...) }
func (Global) Error(msg string, keyValues ...any) { Default().Error(msg, keyValues...) }
