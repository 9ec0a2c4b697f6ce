package output

import (
	"os"

	"github.com/magpie-dev/magpied/internal/config"
)

// ColorFormatter handles colored output based on configuration
type ColorFormatter struct {
	config  *config.OutputConfig
	enabled bool
	noColor bool
	isTTY   bool
}

// StatusType represents different types of CLI output status
type StatusType string

const (
	StatusSuccess StatusType = "success"
	StatusError   StatusType = "error"
	StatusWarning StatusType = "warning"
	StatusInfo    StatusType = "info"
	StatusTip     StatusType = "tip"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
)

var statusColors = map[StatusType]string{
	StatusSuccess: "\033[32m", // Green
	StatusError:   "\033[31m", // Red
	StatusWarning: "\033[33m", // Yellow
	StatusInfo:    "\033[34m", // Blue
	StatusTip:     "\033[36m", // Cyan
}

// NewColorFormatter creates a new color formatter with the given configuration
func NewColorFormatter(cfg *config.OutputConfig) *ColorFormatter {
	formatter := &ColorFormatter{
		config: cfg,
		isTTY:  isTerminal(),
	}

	formatter.enabled = cfg.ColorsEnabled && (!cfg.AutoDetectTTY || formatter.isTTY)

	// Honor the NO_COLOR convention
	if os.Getenv("NO_COLOR") != "" {
		formatter.enabled = false
	}

	return formatter
}

// SetNoColor disables color output (for --no-color flag)
func (cf *ColorFormatter) SetNoColor(noColor bool) {
	cf.noColor = noColor
	cf.enabled = cf.config.ColorsEnabled && !noColor && (!cf.config.AutoDetectTTY || cf.isTTY)
}

// Status indicator functions with colored ASCII indicators
func (cf *ColorFormatter) Success(message string) string {
	return cf.formatStatus("[OK]", message, StatusSuccess)
}

func (cf *ColorFormatter) Error(message string) string {
	return cf.formatStatus("[FAIL]", message, StatusError)
}

func (cf *ColorFormatter) Warning(message string) string {
	return cf.formatStatus("[WARN]", message, StatusWarning)
}

func (cf *ColorFormatter) Info(message string) string {
	return cf.formatStatus("[INFO]", message, StatusInfo)
}

func (cf *ColorFormatter) Tip(message string) string {
	return cf.formatStatus("[TIP]", message, StatusTip)
}

// formatStatus formats a status message with colored indicator
func (cf *ColorFormatter) formatStatus(indicator, message string, statusType StatusType) string {
	if !cf.enabled {
		return indicator + " " + message
	}

	colorCode := statusColors[statusType]
	if colorCode == "" {
		return indicator + " " + message
	}

	return colorCode + indicator + Reset + " " + message
}

// Bold makes text bold (if colors are enabled)
func (cf *ColorFormatter) Bold(text string) string {
	if !cf.enabled {
		return text
	}
	return Bold + text + Reset
}

// GetVerbosity returns the configured verbosity level
func (cf *ColorFormatter) GetVerbosity() string {
	return cf.config.Verbosity
}

// ShouldShowVerbose reports whether info-level output is configured on
func (cf *ColorFormatter) ShouldShowVerbose() bool {
	return cf.config.Verbosity == "verbose"
}

func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
