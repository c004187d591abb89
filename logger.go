package xpu

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

var (
	settersMu sync.Mutex
	setters   []LoggerSetter
)

func init() {
	loggerPtr.Store(newNopLogger())
}

// LoggerSetter receives the logger whenever SetLogger is called.
// Backend packages with their own package-level logger register one with
// RegisterLoggerSetter.
type LoggerSetter interface {
	SetLogger(*slog.Logger)
}

// LoggerSetterFunc adapts a function to LoggerSetter.
type LoggerSetterFunc func(*slog.Logger)

// SetLogger calls f(l).
func (f LoggerSetterFunc) SetLogger(l *slog.Logger) { f(l) }

// SetLogger configures the logger for xpu and all registered backends.
// By default xpu produces no log output. Pass nil to restore silence.
//
// Log levels used by xpu:
//   - [slog.LevelDebug]: buffer reuse and reallocation, dispatch grids, fence waits
//   - [slog.LevelInfo]: adapter selection, backend init and shutdown
//   - [slog.LevelWarn]: release errors during shutdown, backend fallback
//
// Example:
//
//	xpu.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	settersMu.Lock()
	defer settersMu.Unlock()
	for _, s := range setters {
		s.SetLogger(l)
	}
}

// Logger returns the current logger used by xpu.
// Sub-packages call this to share the same logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// RegisterLoggerSetter adds s to the set of loggers updated by SetLogger and
// immediately hands it the current logger.
func RegisterLoggerSetter(s LoggerSetter) {
	if s == nil {
		return
	}
	settersMu.Lock()
	setters = append(setters, s)
	settersMu.Unlock()
	s.SetLogger(Logger())
}
