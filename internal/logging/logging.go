package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New writes JSON records at level and above to out, and repeats errors as
// text on errOut.
func New(level slog.Level, out, errOut io.Writer) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}),
		slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelError}),
	))
}

// Setup installs the process logger. An unknown level falls back to info.
func Setup(level string) *slog.Logger {
	lvl, err := ParseLevel(level)
	logger := New(lvl, os.Stdout, os.Stderr)
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn(err.Error())
	}
	return logger
}
