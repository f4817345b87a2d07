package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs a JSON slog handler as the process default and returns it.
// level is one of DEBUG, INFO, WARN, ERROR; anything else means INFO.
func Setup(level, env string) *slog.Logger {
	return setup(os.Stdout, level, env)
}

// SetupTo is Setup writing to w, for commands that keep stdout for their own output.
func SetupTo(w io.Writer, level, env string) *slog.Logger {
	return setup(w, level, env)
}

func setup(w io.Writer, level, env string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	l := slog.New(h).With("service", "fmpfeedback", "env", env)
	slog.SetDefault(l)
	return l
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Fatal logs at Error level and exits with code 1.
func Fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
