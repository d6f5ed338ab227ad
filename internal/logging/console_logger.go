package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/tui"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

const (
	verbosePrefix = "[VERBOSE] "
	errorPrefix   = "[ERROR] "
)

// ConsoleLogger writes log messages to stderr.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	out     io.Writer
	verbose bool
	styled  bool
	mu      sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger writing to stderr.
// If verbose is false, Verbose() calls are no-ops. The error prefix is
// coloured when stderr is a terminal.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return &ConsoleLogger{
		out:     os.Stderr,
		verbose: verbose,
		styled:  tui.IsInteractive(),
	}
}

// NewWriterLogger creates an unstyled ConsoleLogger writing to w.
func NewWriterLogger(w io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{out: w, verbose: verbose}
}

// SetOutput redirects subsequent messages to w.
func (l *ConsoleLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write(l.prefix(verbosePrefix, tui.MutedStyle.Render), format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write(l.prefix(errorPrefix, tui.ErrorStyle.Render), format, args)
}

func (l *ConsoleLogger) prefix(p string, render func(...string) string) string {
	if !l.styled {
		return p
	}
	return render(p[:len(p)-1]) + " "
}

func (l *ConsoleLogger) write(prefix, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, prefix+msg+"\n")
}

var _ ingestor.Logger = (*ConsoleLogger)(nil)
