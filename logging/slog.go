package logging

import (
	"context"
	"log/slog"
)

type SlogAdapter struct {
	logger *slog.Logger
}

func NewSlog(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Trace(msg string, keyValues ...any) {
	a.logger.Log(context.Background(), LevelTrace, msg, keyValues...)
}

func (a *SlogAdapter) Debug(msg string, keyValues ...any) {
	a.logger.Debug(msg, keyValues...)
}

func (a *SlogAdapter) Info(msg string, keyValues ...any) {
	a.logger.Info(msg, keyValues...)
}

func (a *SlogAdapter) Warn(msg string, keyValues ...any) {
	a.logger.Warn(msg, keyValues...)
}

func (a *SlogAdapter) Error(msg string, keyValues ...any) {
	a.logger.Error(msg, keyValues...)
}

// Slog returns the wrapped logger
func (a *SlogAdapter) Slog() *slog.Logger {
	return a.logger
}
