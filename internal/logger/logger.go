// Package logger holds the process-wide slog logger. The chat surface owns
// the terminal, so logs go to a file sink, never stdout.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log is the global logger. Until Init runs it discards everything.
var Log = slog.New(slog.NewTextHandler(io.Discard, nil))

// Init points the global logger at a file sink with the given level
// ("debug", "info", "warn", "error"; empty means info). A sink that cannot
// be opened leaves the discard logger in place rather than failing startup.
func Init(path, level string) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return
	}
	Log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
}
