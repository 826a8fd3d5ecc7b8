package glass

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

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for glass and its surfaces.
// By default, glass produces no log output.
//
// Pass nil to restore the default silent behavior.
//
// Log levels used by glass:
//   - [slog.LevelDebug]: per-frame diagnostics, repeated draw failures
//   - [slog.LevelInfo]: backend selection, engine lifecycle
//   - [slog.LevelWarn]: overlay unavailable, first draw failure
//
// Example:
//
//	glass.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	liveMu.Lock()
	for s := range live {
		propagateLogger(s, l)
	}
	liveMu.Unlock()
}

// Logger returns the current logger used by glass.
// Sub-packages call this to share the same logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by surfaces that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// live holds the surfaces of open engines so SetLogger can reach them.
var (
	liveMu sync.Mutex
	live   = map[any]struct{}{}
)

func trackSurface(s any) {
	liveMu.Lock()
	live[s] = struct{}{}
	liveMu.Unlock()
	propagateLogger(s, Logger())
}

func untrackSurface(s any) {
	liveMu.Lock()
	delete(live, s)
	liveMu.Unlock()
}

func propagateLogger(s any, l *slog.Logger) {
	if ls, ok := s.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
