// Package testutil provides shared test helpers.
package testutil

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a debug-level logger that writes through t.Log, so
// output shows only for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	logger, _ := NewRecordingLogger(t)
	return logger
}

// LogRecorder keeps the messages logged through a recording logger.
type LogRecorder struct {
	mu       sync.Mutex
	messages []string
}

// NewRecordingLogger is NewTestLogger plus a recorder of every logged
// message, for asserting that a code path logged.
func NewRecordingLogger(t testing.TB) (*slog.Logger, *LogRecorder) {
	t.Helper()
	rec := &LogRecorder{}
	handler := slog.NewTextHandler(&tbWriter{t: t, rec: rec}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), rec
}

// Contains reports whether any logged line contains all of the parts.
func (r *LogRecorder) Contains(parts ...string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.ContainsFunc(r.messages, func(line string) bool {
		for _, p := range parts {
			if !strings.Contains(line, p) {
				return false
			}
		}
		return true
	})
}

type tbWriter struct {
	t   testing.TB
	rec *LogRecorder
}

func (w *tbWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	w.rec.mu.Lock()
	w.rec.messages = append(w.rec.messages, line)
	w.rec.mu.Unlock()
	w.t.Log(line)
	return len(p), nil
}
