package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/magpie-dev/magpied/internal/config"
)

// Formatter provides a high-level interface for CLI output formatting
type Formatter struct {
	colorFormatter *ColorFormatter
	verboseMode    bool
	quietMode      bool
}

// NewFormatter creates a new formatter instance from config
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{
		colorFormatter: NewColorFormatter(&cfg.Output),
	}
}

// SetFlags configures the formatter based on command line flags
func (f *Formatter) SetFlags(verbose, quiet, noColor bool) {
	f.verboseMode = verbose
	f.quietMode = quiet
	f.colorFormatter.SetNoColor(noColor)
}

// Success prints a success message (always shown unless quiet)
func (f *Formatter) Success(format string, args ...interface{}) {
	if !f.quietMode {
		fmt.Println(f.colorFormatter.Success(fmt.Sprintf(format, args...)))
	}
}

// Error prints an error message (always shown)
func (f *Formatter) Error(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, f.colorFormatter.Error(fmt.Sprintf(format, args...)))
}

// Warning prints a warning message (always shown unless quiet)
func (f *Formatter) Warning(format string, args ...interface{}) {
	if !f.quietMode {
		fmt.Println(f.colorFormatter.Warning(fmt.Sprintf(format, args...)))
	}
}

// Info prints an info message (shown in normal and verbose modes)
func (f *Formatter) Info(format string, args ...interface{}) {
	if !f.quietMode {
		fmt.Println(f.colorFormatter.Info(fmt.Sprintf(format, args...)))
	}
}

// Verbose prints a message only in verbose mode
func (f *Formatter) Verbose(format string, args ...interface{}) {
	if f.verboseMode || f.colorFormatter.ShouldShowVerbose() {
		fmt.Println(f.colorFormatter.Info(fmt.Sprintf(format, args...)))
	}
}

// Tip prints a tip message (shown unless quiet)
func (f *Formatter) Tip(format string, args ...interface{}) {
	if !f.quietMode {
		fmt.Println(f.colorFormatter.Tip(fmt.Sprintf(format, args...)))
	}
}

// Plain prints an uncolored line (shown unless quiet)
func (f *Formatter) Plain(format string, args ...interface{}) {
	if !f.quietMode {
		fmt.Printf(format+"\n", args...)
	}
}

// Separator prints a visual separator line
func (f *Formatter) Separator() {
	if !f.quietMode {
		fmt.Println(strings.Repeat("-", 40))
	}
}
