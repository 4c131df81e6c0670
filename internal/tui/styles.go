// Package tui provides terminal rendering for taskflow.
//
// Styles use Lip Gloss AdaptiveColor for light/dark terminal support.
// Every status display carries icon, color and text so that output stays
// readable with colors disabled.
//
// Call CheckNoColor() at the start of commands to respect the NO_COLOR
// environment variable. Colors are also disabled when TERM=dumb.
package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/mrz1836/taskflow/internal/constants"
)

//nolint:gochecknoglobals // styling API
var (
	// ColorPrimary is blue, used for active states.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for completed items.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for items needing attention.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for errors and breaches.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for inactive states and secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies faint formatting.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// StatusColor returns the color for a task status.
func StatusColor(s constants.TaskStatus) lipgloss.AdaptiveColor {
	switch s {
	case constants.TaskStatusInProgress:
		return ColorPrimary
	case constants.TaskStatusUnderReview, constants.TaskStatusOnHold:
		return ColorWarning
	case constants.TaskStatusCompleted:
		return ColorSuccess
	case constants.TaskStatusCancelled:
		return ColorMuted
	default:
		return lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}
	}
}

// StatusIcon returns the icon for a task status.
func StatusIcon(s constants.TaskStatus) string {
	switch s {
	case constants.TaskStatusOpen:
		return "○"
	case constants.TaskStatusInProgress:
		return "●"
	case constants.TaskStatusUnderReview:
		return "◐"
	case constants.TaskStatusOnHold:
		return "⏸"
	case constants.TaskStatusCompleted:
		return "✓"
	case constants.TaskStatusCancelled:
		return "✗"
	default:
		return "?"
	}
}

// PriorityColor returns the color for a priority.
func PriorityColor(p constants.Priority) lipgloss.AdaptiveColor {
	switch p {
	case constants.PriorityCritical:
		return ColorError
	case constants.PriorityHigh:
		return ColorWarning
	case constants.PriorityLow:
		return ColorMuted
	default:
		return ColorPrimary
	}
}

// RenderStatus renders icon and status text in the status color.
func RenderStatus(s constants.TaskStatus) string {
	return lipgloss.NewStyle().Foreground(StatusColor(s)).Render(StatusIcon(s) + " " + string(s))
}

// RenderPriority renders a priority in its color.
func RenderPriority(p constants.Priority) string {
	return lipgloss.NewStyle().Foreground(PriorityColor(p)).Render(string(p))
}

// TableStyles holds styles for tabular output.
type TableStyles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates table styles.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
		Dim:  lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// OutputStyles holds common message styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates common message styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// CheckNoColor switches lipgloss to plain ASCII when colors are unsupported.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false if NO_COLOR is set (any value, including
// empty) or TERM=dumb.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// padRight pads s with spaces to width visible cells.
func padRight(s string, width int) string {
	visible := visibleWidth(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// truncate shortens plain text to width terminal cells, ending with "…"
// when cut. Wide runes such as CJK count as two cells.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

// visibleWidth is the number of terminal cells s occupies, ignoring ANSI codes.
func visibleWidth(s string) int {
	return lipgloss.Width(s)
}
