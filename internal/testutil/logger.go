package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// LogEntry is one captured log record.
type LogEntry struct {
	Level string
	Msg   string
	Args  []any
}

// String renders the entry for assertions and failure messages.
func (e LogEntry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Level, e.Msg)
	for i := 0; i+1 < len(e.Args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", e.Args[i], e.Args[i+1])
	}
	return b.String()
}

// CaptureLogger records every log call for inspection. Safe for
// concurrent use.
type CaptureLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewCaptureLogger() *CaptureLogger {
	return &CaptureLogger{}
}

func (l *CaptureLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *CaptureLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args) }
func (l *CaptureLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args) }
func (l *CaptureLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args) }
func (l *CaptureLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args) }

// Entries returns a copy of everything logged so far.
func (l *CaptureLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Warnings returns the captured warning entries.
func (l *CaptureLogger) Warnings() []LogEntry {
	var warns []LogEntry
	for _, e := range l.Entries() {
		if e.Level == "WARN" {
			warns = append(warns, e)
		}
	}
	return warns
}

// HasWarningContaining reports whether any warning message contains s.
func (l *CaptureLogger) HasWarningContaining(s string) bool {
	for _, e := range l.Warnings() {
		if strings.Contains(e.String(), s) {
			return true
		}
	}
	return false
}
