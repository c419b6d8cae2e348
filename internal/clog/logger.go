package clog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xdg/awsgate/internal/pathutil"
)

// Logger handles leveled logging with support for multiple outputs.
type Logger struct {
	mu         sync.Mutex
	level      Level
	fileWriter io.Writer // receives all logs at or above level
	errWriter  io.Writer // receives warn/error unless quiet
	quiet      bool
}

// NewLogger creates a new logger with default settings.
// By default, logs go to stderr at Info level.
func NewLogger() *Logger {
	return &Logger{
		level:     LevelInfo,
		errWriter: os.Stderr,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetFileOutput sets the file writer for log output.
// Pass nil to disable file logging.
func (l *Logger) SetFileOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fileWriter = w
}

// SetErrOutput sets the stderr writer for warn/error output.
// Pass nil to disable stderr logging.
func (l *Logger) SetErrOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errWriter = w
}

// SetQuiet enables or disables quiet mode.
// In quiet mode, logs only go to the file writer, not stderr.
func (l *Logger) SetQuiet(quiet bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quiet = quiet
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, "", format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, "", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, "", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, "", format, args...)
}

// With returns a Scoped logger that prefixes every message with the given
// key=value pairs. Pairs with an empty value are dropped.
func (l *Logger) With(kv ...string) *Scoped {
	var parts []string
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		parts = append(parts, kv[i]+"="+kv[i+1])
	}
	return &Scoped{parent: l, prefix: strings.Join(parts, " ")}
}

func (l *Logger) log(level Level, prefix, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if prefix != "" {
		msg = prefix + " " + msg
	}

	if l.fileWriter != nil {
		timestamp := time.Now().UTC().Format(time.RFC3339)
		_, _ = fmt.Fprintf(l.fileWriter, "%s [%s] %s\n", timestamp, level, msg)
	}

	if !l.quiet && l.errWriter != nil && level >= LevelWarn {
		_, _ = fmt.Fprintf(l.errWriter, "[%s] %s\n", level, msg)
	}
}

// Scoped is a logger bound to a fixed message prefix, typically a request id.
type Scoped struct {
	parent *Logger
	prefix string
}

// Debug logs a debug message with the scope prefix.
func (s *Scoped) Debug(format string, args ...any) { s.parent.log(LevelDebug, s.prefix, format, args...) }

// Info logs an informational message with the scope prefix.
func (s *Scoped) Info(format string, args ...any) { s.parent.log(LevelInfo, s.prefix, format, args...) }

// Warn logs a warning with the scope prefix.
func (s *Scoped) Warn(format string, args ...any) { s.parent.log(LevelWarn, s.prefix, format, args...) }

// Error logs an error with the scope prefix.
func (s *Scoped) Error(format string, args ...any) { s.parent.log(LevelError, s.prefix, format, args...) }

// OpenLogFile opens a log file for appending, creating parent directories if needed.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// DefaultLogPath returns ~/.local/state/awsgate/awsgate.log, honouring XDG_STATE_HOME.
func DefaultLogPath() string {
	return filepath.Join(pathutil.StateDir(), "awsgate.log")
}
