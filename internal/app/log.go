package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RunLogName returns the log file name for a run started at t:
// download_<YYYY-MM-DD_HH-MM-SS>.log, matching the export tree layout.
func RunLogName(t time.Time) string {
	return "download_" + t.Format("2006-01-02_15-04-05") + ".log"
}

// logStyles holds lipgloss styles for console log levels.
type logStyles struct {
	debug lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
}

func newLogStyles() logStyles {
	return logStyles{
		debug: lipgloss.NewStyle().Faint(true),
		info:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		err:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func (s logStyles) forLevel(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return s.err
	case l >= slog.LevelWarn:
		return s.warn
	case l >= slog.LevelInfo:
		return s.info
	default:
		return s.debug
	}
}

// levelLabel maps slog levels to the log file's level names.
func levelLabel(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// runLogHandler is a custom slog.Handler that formats records as:
//
//	[<timestamp>] [<LEVEL padded to 7 chars>] <message> <key=value ...>
//
// Every line goes to the log file verbatim and to the console with the
// level colored. Records with an empty message are console-only spacers.
type runLogHandler struct {
	file    io.Writer
	console io.Writer
	styles  logStyles
	minLvl  slog.Level
	attrs   []slog.Attr
}

func (h *runLogHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.minLvl
}

func (h *runLogHandler) Handle(_ context.Context, r slog.Record) error {
	if r.Message == "" && r.NumAttrs() == 0 && len(h.attrs) == 0 {
		_, err := fmt.Fprintln(h.console)
		return err
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var line strings.Builder
	fmt.Fprintf(&line, "%s", r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&line, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&line, " %s=%v", a.Key, a.Value)
		return true
	})

	stamp := ts.Format("2006-01-02 15:04:05")
	label := levelLabel(r.Level)

	if h.file != nil {
		if _, err := fmt.Fprintf(h.file, "[%s] [%-7s] %s\n", stamp, label, line.String()); err != nil {
			return err
		}
	}

	styled := h.styles.forLevel(r.Level).Render(fmt.Sprintf("[%-7s]", label))
	_, err := fmt.Fprintf(h.console, "[%s] %s %s\n", stamp, styled, line.String())
	return err
}

func (h *runLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &cp
}

func (h *runLogHandler) WithGroup(string) slog.Handler { return h }

// newRunLogger creates the run logger writing to logPath and the console.
// It returns the slog.Logger, the open log file (for cleanup), and any
// error.
func newRunLogger(logPath string, console io.Writer, verbose bool) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	minLvl := slog.LevelInfo
	if verbose {
		minLvl = slog.LevelDebug
	}

	handler := &runLogHandler{
		file:    f,
		console: console,
		styles:  newLogStyles(),
		minLvl:  minLvl,
	}
	return slog.New(handler), f, nil
}

// newConsoleLogger creates a logger for commands that run without a log
// file (check, history).
func newConsoleLogger(console io.Writer) *slog.Logger {
	return slog.New(&runLogHandler{
		console: console,
		styles:  newLogStyles(),
		minLvl:  slog.LevelInfo,
	})
}

// slogAdapter wraps *slog.Logger to satisfy the kb.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
