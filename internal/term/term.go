// Package term is the user-facing output of the awsgate CLI: command
// results on stdout, warnings and errors on stderr. Operational logging
// goes through internal/clog instead.
//
// --silent suppresses stdout only. Warnings and errors are always written.
//
// The serve command must not print through this package while the stdio
// transport is active: stdout belongs to the MCP session.
package term

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
)

type console struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	silent bool
}

var std = &console{out: os.Stdout, errOut: os.Stderr}

// writer returns the stdout writer, or io.Discard in silent mode.
// The caller must hold mu.
func (c *console) writer() io.Writer {
	if c.silent {
		return io.Discard
	}
	return c.out
}

func (c *console) write(fn func(w io.Writer)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.writer())
}

func (c *console) report(prefix, format string, a []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.errOut, "%s: %s\n", prefix, fmt.Sprintf(format, a...))
}

// SetSilent turns stdout suppression on or off.
func SetSilent(s bool) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.silent = s
}

// SetOutput redirects stdout output. Nil restores os.Stdout.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out = w
}

// SetErrOutput redirects warnings and errors. Nil restores os.Stderr.
func SetErrOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	std.mu.Lock()
	defer std.mu.Unlock()
	std.errOut = w
}

// Reset restores os.Stdout, os.Stderr and normal mode.
func Reset() {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out, std.errOut, std.silent = os.Stdout, os.Stderr, false
}

// Print writes to stdout like fmt.Print.
func Print(a ...any) {
	std.write(func(w io.Writer) { _, _ = fmt.Fprint(w, a...) })
}

// Printf writes to stdout like fmt.Printf.
func Printf(format string, a ...any) {
	std.write(func(w io.Writer) { _, _ = fmt.Fprintf(w, format, a...) })
}

// Println writes to stdout like fmt.Println.
func Println(a ...any) {
	std.write(func(w io.Writer) { _, _ = fmt.Fprintln(w, a...) })
}

// Warn writes "Warning: <msg>" to stderr.
func Warn(format string, a ...any) {
	std.report("Warning", format, a)
}

// Error writes "Error: <msg>" to stderr.
func Error(format string, a ...any) {
	std.report("Error", format, a)
}

// Stdout returns the writer Print would use right now, for code that needs
// an io.Writer such as an interactive prompt.
func Stdout() io.Writer {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.writer()
}

// Table writes a header and rows to stdout as tab-aligned columns.
func Table(header []string, rows [][]string) {
	std.write(func(out io.Writer) {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		if len(header) > 0 {
			_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
		}
		for _, row := range rows {
			_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		_ = w.Flush()
	})
}
