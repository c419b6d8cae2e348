package clog

import (
	"io"
	"log"
)

// std is the global logger instance used by package-level functions.
var std = NewLogger()

// Configure sets up the global logger.
// If logPath is empty, file logging is disabled.
// If quiet is true, stderr output is disabled.
func Configure(logPath string, level Level, quiet bool) error {
	std.SetLevel(level)
	std.SetQuiet(quiet)

	if logPath != "" {
		f, err := OpenLogFile(logPath)
		if err != nil {
			return err
		}
		std.SetFileOutput(f)
	}
	return nil
}

// SetLevel sets the minimum log level for the global logger.
func SetLevel(level Level) { std.SetLevel(level) }

// Debug logs a debug message using the global logger.
func Debug(format string, args ...any) { std.Debug(format, args...) }

// Info logs an informational message using the global logger.
func Info(format string, args ...any) { std.Info(format, args...) }

// Warn logs a warning message using the global logger.
func Warn(format string, args ...any) { std.Warn(format, args...) }

// Error logs an error message using the global logger.
func Error(format string, args ...any) { std.Error(format, args...) }

// With returns a Scoped view of the global logger.
func With(kv ...string) *Scoped { return std.With(kv...) }

// Close closes the file writer if it implements io.Closer.
func Close() error {
	std.mu.Lock()
	defer std.mu.Unlock()

	if closer, ok := std.fileWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Discard silences the global logger. Useful in tests.
func Discard() {
	std.SetFileOutput(io.Discard)
	std.SetErrOutput(io.Discard)
}

// ReplaceGlobal replaces the global logger and returns the previous one.
func ReplaceGlobal(l *Logger) *Logger {
	old := std
	std = l
	return old
}

// RedirectStdLog sends the standard library's log package output through
// clog at the given level. Libraries that log via log.Printf end up in the
// log file instead of on a stream that may carry protocol traffic.
func RedirectStdLog(level Level) {
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(Writer(level))
}

// Writer returns an io.Writer that writes to the global logger at level.
func Writer(level Level) io.Writer {
	return &levelWriter{level: level}
}

type levelWriter struct {
	level Level
}

func (w *levelWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	std.log(w.level, "", "%s", msg)
	return len(p), nil
}
