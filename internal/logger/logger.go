// Package logger configures structured kernel logging and provides the
// standard event lines emitted by the scheduler and syscall layer.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a textual level to slog; unknown values default to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
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

// New creates a text logger writing to w at level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OrDefault returns l, or slog.Default when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func TaskCreated(l *slog.Logger, pid uint64, name string, priority int64) {
	l.Info("task created", "pid", pid, "name", name, "priority", priority)
}

func StateChanged(l *slog.Logger, pid uint64, from, to string) {
	l.Debug("task state changed", "pid", pid, "from", from, "to", to)
}

func SyscallReceived(l *slog.Logger, pid uint64, name string, args [3]uint64) {
	l.Debug("syscall", "pid", pid, "name", name, "a0", args[0], "a1", args[1], "a2", args[2])
}

func TaskExited(l *slog.Logger, pid uint64, code int32) {
	l.Info("task exited", "pid", pid, "code", code)
}

func TaskKilled(l *slog.Logger, pid uint64, reason string, code int32) {
	l.Warn("task killed", "pid", pid, "reason", reason, "code", code)
}
