package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/textiles-lab/jacquard/internal/palette"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

// Out receives every operator-facing message. Standard output is reserved
// for the knitout program, so this defaults to stderr.
var Out io.Writer = os.Stderr

var (
	// Color definitions
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		green.Fprintf(Out, "✓ %s", msg)
	} else {
		green.Fprint(Out, msg)
	}
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		yellow.Fprintf(Out, "⚠️  %s", msg)
	} else {
		yellow.Fprint(Out, msg)
	}
}

// Error creates a formatted error message with title, explanation, and suggestions
// Prints the formatted error with colors and returns a simple error for Cobra
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext creates a formatted error with context details
// Prints the formatted error with colors and returns a simple error for Cobra
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	// Print title in red
	red.Fprintf(Out, "%s\n\n", title)

	// Print explanation
	if explanation != "" {
		fmt.Fprintf(Out, "%s\n", explanation)
	}

	// Print context details, sorted so output is stable
	if len(context) > 0 {
		fmt.Fprintf(Out, "\n")
		keys := make([]string, 0, len(context))
		for key := range context {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			fmt.Fprintf(Out, "  %s: %s\n", key, context[key])
		}
	}

	// Print suggestions
	if len(suggestions) > 0 {
		fmt.Fprintf(Out, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(Out, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(Out, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(Out, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return &ReportedError{Title: title}
}

// ReportedError is returned by Error and ErrorWithContext once the message
// has been shown to the operator.
type ReportedError struct {
	Title string
}

func (e *ReportedError) Error() string {
	return e.Title
}

// IsReported reports whether err has already been printed.
func IsReported(err error) bool {
	var target *ReportedError
	return errors.As(err, &target)
}

// Yarns prints the yarns a program uses and the carrier each must be
// loaded on.
func Yarns(entries []palette.Entry) {
	cyan.Fprintf(Out, "Yarns used:\n")
	for _, e := range entries {
		label := e.Label
		if label == "" {
			label = "(unlabelled)"
		}
		fmt.Fprintf(Out, "  %-16s %s  carrier %d\n", label, e.Color, e.Carrier)
	}
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s", fmt.Sprintf(format, a...))
}

// Println prints a plain message (for output that doesn't need coloring)
func Println(a ...any) {
	fmt.Fprintln(Out, a...)
}

// Printf prints a plain formatted message (for output that doesn't need coloring)
func Printf(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}
