package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrz1836/taskflow/internal/board"
)

// DefaultColumnWidth is the inner width of one board column.
const DefaultColumnWidth = 24

// RenderBoard draws columns side by side, one bordered lane per status.
func RenderBoard(w io.Writer, columns []board.Column, width int) {
	if width <= 0 {
		width = DefaultColumnWidth
	}

	lanes := make([]string, 0, len(columns))
	for _, col := range columns {
		lanes = append(lanes, renderLane(col, width))
	}
	_, _ = fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, lanes...))
}

func renderLane(col board.Column, width int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(StatusColor(col.Status)).
		Render(fmt.Sprintf("%s %s (%d)", StatusIcon(col.Status), col.Status, len(col.Cards)))

	// Width includes the horizontal padding.
	inner := max(width-2, 1)
	lines := []string{header, strings.Repeat("─", inner)}
	for _, c := range col.Cards {
		lines = append(lines, renderCard(c, inner)...)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(StatusColor(col.Status)).
		Width(width).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func renderCard(c board.Card, width int) []string {
	title := truncate(c.Title, width)
	if c.Pending {
		title = StyleDim.Render(truncate("… "+c.Title, width))
	}

	meta := []string{RenderPriority(c.Priority), fmt.Sprintf("%d%%", c.Progress)}
	if c.AssignedTo != "" {
		meta = append(meta, "@"+c.AssignedTo)
	}
	if c.DueDate != nil {
		meta = append(meta, "due "+c.DueDate.Format("Jan 2"))
	}

	return []string{
		StyleBold.Render(title),
		StyleDim.Render(truncate(c.ID, width)),
		strings.Join(meta, " "),
		"",
	}
}
