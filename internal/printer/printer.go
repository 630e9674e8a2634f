// Package printer writes styled command output and shows notifications on
// the terminal.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/dyluth/canboard/internal/notify"
	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer writes results to out and diagnostics to errOut. It implements
// notify.Notifier: notifications go to errOut so they never mix with
// machine-readable output.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// New creates a printer.
func New(out, errOut io.Writer) *Printer {
	return &Printer{out: out, errOut: errOut}
}

var std = New(os.Stdout, os.Stderr)

// Default returns the printer bound to stdout and stderr.
func Default() *Printer {
	return std
}

// Success prints a success message in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(p.out, msg)
}

// Info prints a plain message.
func (p *Printer) Info(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, a...)
}

// Warning prints a warning message in yellow to errOut.
func (p *Printer) Warning(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(p.errOut, msg)
}

// Step prints a step of a multi-step operation.
func (p *Printer) Step(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cyan.Fprintf(p.out, "→ %s", fmt.Sprintf(format, a...))
}

// Notify shows a notification as a single line on errOut.
func (p *Printer) Notify(kind notify.Kind, title, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch kind {
	case notify.KindError:
		red.Fprintf(p.errOut, "✗ %s: ", title)
	default:
		cyan.Fprintf(p.errOut, "ℹ %s: ", title)
	}
	fmt.Fprintln(p.errOut, message)
}

// Error prints a formatted error with title, explanation, and suggestions to
// errOut and returns a simple error for Cobra
func (p *Printer) Error(title string, explanation string, suggestions []string) error {
	return p.ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error with key/value details printed in key order.
func (p *Printer) ErrorWithContext(title string, explanation string, details map[string]string, suggestions []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	red.Fprintf(p.errOut, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(p.errOut, "%s\n", explanation)
	}

	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(p.errOut, "\n")
		for _, k := range keys {
			fmt.Fprintf(p.errOut, "  %s: %s\n", k, details[k])
		}
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(p.errOut, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(p.errOut, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(p.errOut, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(p.errOut, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

// Package-level helpers write through Default.

func Success(format string, a ...any) { std.Success(format, a...) }

func Info(format string, a ...any) { std.Info(format, a...) }

func Warning(format string, a ...any) { std.Warning(format, a...) }

func Step(format string, a ...any) { std.Step(format, a...) }

func Error(title string, explanation string, suggestions []string) error {
	return std.Error(title, explanation, suggestions)
}

func ErrorWithContext(title string, explanation string, details map[string]string, suggestions []string) error {
	return std.ErrorWithContext(title, explanation, details, suggestions)
}
