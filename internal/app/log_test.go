package app

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestRunLogName(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 5, 0, time.UTC)
	if got := RunLogName(ts); got != "download_2024-01-15_10-30-05.log" {
		t.Errorf("RunLogName = %q", got)
	}
}

func TestLevelLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARNING"},
		{"error", "ERROR"},
	}
	levels := map[string]func(l *logTestLogger, msg string){
		"debug": func(l *logTestLogger, msg string) { l.logger.Debug(msg) },
		"info":  func(l *logTestLogger, msg string) { l.logger.Info(msg) },
		"warn":  func(l *logTestLogger, msg string) { l.logger.Warn(msg) },
		"error": func(l *logTestLogger, msg string) { l.logger.Error(msg) },
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			l := newLogTestLogger(t, true)
			levels[tc.in](l, "ping")
			line := l.fileLine(t)

			// Level labels pad to seven characters so messages align.
			want := "[" + tc.want + strings.Repeat(" ", 7-len(tc.want)) + "] ping"
			if !strings.Contains(line, want) {
				t.Errorf("line %q missing %q", line, want)
			}
		})
	}
}

var fileLineRe = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[[A-Z ]{7}\] `)

func TestRunLoggerFileFormat(t *testing.T) {
	l := newLogTestLogger(t, false)
	l.logger.Info("article exported", "article", "A-1", "path", "A/A-1/README.md")

	line := l.fileLine(t)
	if !fileLineRe.MatchString(line) {
		t.Errorf("line %q does not match the log format", line)
	}
	if !strings.HasSuffix(line, "article exported article=A-1 path=A/A-1/README.md") {
		t.Errorf("line %q missing message and attrs", line)
	}

	if !strings.Contains(l.console.String(), "article exported article=A-1") {
		t.Errorf("console copy missing: %q", l.console.String())
	}
}

func TestRunLoggerVerboseGate(t *testing.T) {
	t.Run("default hides debug", func(t *testing.T) {
		l := newLogTestLogger(t, false)
		l.logger.Debug("attachment downloaded")
		if content := l.fileContent(t); content != "" {
			t.Errorf("debug leaked to file: %q", content)
		}
	})

	t.Run("verbose shows debug", func(t *testing.T) {
		l := newLogTestLogger(t, true)
		l.logger.Debug("attachment downloaded")
		if !strings.Contains(l.fileContent(t), "attachment downloaded") {
			t.Error("debug missing from verbose log")
		}
	})
}

func TestRunLoggerEmptyMessageIsConsoleSpacer(t *testing.T) {
	l := newLogTestLogger(t, false)
	l.logger.Info("")

	if content := l.fileContent(t); content != "" {
		t.Errorf("spacer written to file: %q", content)
	}
	if l.console.String() != "\n" {
		t.Errorf("console = %q, want a bare newline", l.console.String())
	}
}

func TestRunLoggerWithAttrs(t *testing.T) {
	l := newLogTestLogger(t, false)
	l.logger.With("run", "r-1").Info("authenticated", "user", "Alice")

	line := l.fileLine(t)
	if !strings.Contains(line, "run=r-1") || !strings.Contains(line, "user=Alice") {
		t.Errorf("line %q missing attrs", line)
	}
}

// logTestLogger bundles a run logger with its file and console sinks.
type logTestLogger struct {
	logger  *slog.Logger
	path    string
	console *bytes.Buffer
}

func newLogTestLogger(t *testing.T, verbose bool) *logTestLogger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.log")
	console := &bytes.Buffer{}

	logger, f, err := newRunLogger(path, console, verbose)
	if err != nil {
		t.Fatalf("newRunLogger failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })

	return &logTestLogger{logger: logger, path: path, console: console}
}

func (l *logTestLogger) fileContent(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(l.path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	return string(data)
}

func (l *logTestLogger) fileLine(t *testing.T) string {
	t.Helper()
	content := strings.TrimRight(l.fileContent(t), "\n")
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("log file is empty")
	}
	return lines[len(lines)-1]
}
