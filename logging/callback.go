package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Numeric levels accepted by LevelFromInt, matching the C log API.
const (
	LevelNumError = 1
	LevelNumWarn  = 2
	LevelNumInfo  = 3
	LevelNumDebug = 4
	LevelNumTrace = 5
)

// LevelFromInt maps 1..5 to error, warn, info, debug and trace. Any other
// value yields info and false.
func LevelFromInt(level int) (slog.Level, bool) {
	switch level {
	case LevelNumError:
		return slog.LevelError, true
	case LevelNumWarn:
		return slog.LevelWarn, true
	case LevelNumInfo:
		return slog.LevelInfo, true
	case LevelNumDebug:
		return slog.LevelDebug, true
	case LevelNumTrace:
		return LevelTrace, true
	default:
		return slog.LevelInfo, false
	}
}

// LevelToInt is the inverse of LevelFromInt, rounding down to the nearest
// known level
func LevelToInt(level slog.Level) int {
	switch {
	case level >= slog.LevelError:
		return LevelNumError
	case level >= slog.LevelWarn:
		return LevelNumWarn
	case level >= slog.LevelInfo:
		return LevelNumInfo
	case level >= slog.LevelDebug:
		return LevelNumDebug
	default:
		return LevelNumTrace
	}
}

// CallbackFunc receives one formatted log line
type CallbackFunc func(level slog.Level, message string)

// CallbackHandler is a slog.Handler that renders each record as
// "message key=value ..." and passes it to a callback
type CallbackHandler struct {
	level    slog.Leveler
	callback CallbackFunc
	attrs    []slog.Attr
	groups   []string
}

func NewCallbackHandler(level slog.Leveler, callback CallbackFunc) *CallbackHandler {
	return &CallbackHandler{level: level, callback: callback}
}

func (h *CallbackHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CallbackHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	for _, attr := range h.attrs {
		writeAttr(&sb, "", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&sb, prefix, attr)
		return true
	})

	h.callback(record.Level, sb.String())
	return nil
}

func (h *CallbackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, attr := range attrs {
		attr.Key = prefix + attr.Key
		next.attrs = append(next.attrs, attr)
	}
	return &next
}

func (h *CallbackHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func writeAttr(sb *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		for _, inner := range attr.Value.Group() {
			writeAttr(sb, prefix+attr.Key+".", inner)
		}
		return
	}
	fmt.Fprintf(sb, " %s%s=%v", prefix, attr.Key, attr.Value.Any())
}
