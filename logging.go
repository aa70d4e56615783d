package greenroom

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// SetLogger replaces the package-level logger used by every runtime
// component. Safe to call concurrently with running actors.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	loggerPtr.Store(l)
}

// Logger returns the current package-level logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
