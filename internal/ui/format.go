package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	"trunkline/pkg/errors"
)

var (
	// Check if output supports colors
	supportsColor = IsTerminal(os.Stdout)

	// Color functions
	ColorSuccess = colorFunc(ansi.Green)
	ColorError   = colorFunc(ansi.Red)
	ColorWarning = colorFunc(ansi.Yellow)
	ColorInfo    = colorFunc(ansi.Cyan)
	ColorBold    = colorFunc("default+b")
	ColorDim     = colorFunc("default+h")
)

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColor forces colored output on or off
func SetColor(enabled bool) {
	supportsColor = enabled
}

// ColorEnabled reports whether colored output is on
func ColorEnabled() bool {
	return supportsColor
}

// colorFunc returns a function that colors text if supported
func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowError writes err, including any suggestions it carries
func ShowError(w io.Writer, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		fmt.Fprintf(w, "%s %s\n", ColorError("ERROR:"), err)
		return
	}

	fmt.Fprintf(w, "%s %s\n", ColorError("ERROR:"), appErr.Message)
	if appErr.Cause != nil {
		fmt.Fprintf(w, "  %s\n", ColorDim(appErr.Cause.Error()))
	}
	for _, s := range appErr.Suggestions {
		fmt.Fprintf(w, "  %s %s\n", ColorInfo("TIP:"), s)
	}
}

// ShowSuccess writes a success message
func ShowSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// ShowWarning writes a warning message
func ShowWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ColorWarning("WARNING:"), message)
}

// ShowInfo writes an info message
func ShowInfo(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ColorInfo("INFO:"), message)
}

// ShortID abbreviates a commit id for display
func ShortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// FirstLine returns the subject of a commit message, truncated to max runes
func FirstLine(message string, max int) string {
	line, _, _ := strings.Cut(message, "\n")
	line = strings.TrimSpace(line)
	if r := []rune(line); len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return line
}

// FormatRelativeTime formats t relative to now (e.g., "2 hours ago")
func FormatRelativeTime(t, now time.Time) string {
	duration := now.Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute")
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour")
	case duration < 7*24*time.Hour:
		return plural(int(duration.Hours()/24), "day")
	case duration < 30*24*time.Hour:
		return plural(int(duration.Hours()/(24*7)), "week")
	default:
		return plural(int(duration.Hours()/(24*30)), "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
