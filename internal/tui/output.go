package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Output provides methods for structured output to a terminal.
type Output interface {
	// Success prints a success message.
	Success(msg string)
	// Error prints an error with an optional suggested action.
	Error(err error, action string)
	// Warning prints a warning message.
	Warning(msg string)
	// Info prints an informational message.
	Info(msg string)
	// Table prints rows under headers with aligned columns.
	Table(headers []string, rows [][]string)
	// JSON outputs a value as formatted JSON.
	JSON(v any) error
}

// TTYOutput provides styled output for terminal displays.
type TTYOutput struct {
	w      io.Writer
	styles *OutputStyles
	table  *TableStyles
}

// NewTTYOutput creates a TTYOutput. It respects NO_COLOR.
func NewTTYOutput(w io.Writer) *TTYOutput {
	CheckNoColor()
	return &TTYOutput{
		w:      w,
		styles: NewOutputStyles(),
		table:  NewTableStyles(),
	}
}

// Success prints a green ✓ message.
func (o *TTYOutput) Success(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Success.Render("✓ "+msg))
}

// Error prints a red ✗ message and a dim "▸ Try:" line when action is set.
func (o *TTYOutput) Error(err error, action string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Error.Render("✗ "+err.Error()))
	if action != "" {
		_, _ = fmt.Fprintln(o.w, o.styles.Dim.Render("  ▸ Try: "+action))
	}
}

// Warning prints a yellow ⚠ message.
func (o *TTYOutput) Warning(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Warning.Render("⚠ "+msg))
}

// Info prints a blue ℹ message.
func (o *TTYOutput) Info(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Info.Render("ℹ "+msg))
}

// Table prints rows with columns sized to their widest cell. Cells may
// already carry styling; widths are measured on visible cells.
func (o *TTYOutput) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], visibleWidth(cell))
			}
		}
	}

	headerParts := make([]string, 0, len(headers))
	for i, h := range headers {
		headerParts = append(headerParts, o.table.Header.Render(padRight(h, widths[i])))
	}
	_, _ = fmt.Fprintln(o.w, strings.Join(headerParts, "  "))

	for _, row := range rows {
		parts := make([]string, 0, len(headers))
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			parts = append(parts, o.table.Cell.Render(padRight(cell, widths[i])))
		}
		_, _ = fmt.Fprintln(o.w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
}

// JSON outputs a value as indented JSON.
func (o *TTYOutput) JSON(v any) error {
	return encodeJSON(o.w, v)
}

// JSONOutput writes only JSON; messages are dropped.
type JSONOutput struct {
	w io.Writer
}

// NewJSONOutput creates a JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{w: w}
}

// Success is a no-op for JSON output.
func (o *JSONOutput) Success(_ string) {}

// Error is a no-op; JSON callers report errors in their envelope.
func (o *JSONOutput) Error(_ error, _ string) {}

// Warning is a no-op for JSON output.
func (o *JSONOutput) Warning(_ string) {}

// Info is a no-op for JSON output.
func (o *JSONOutput) Info(_ string) {}

// Table is a no-op for JSON output.
func (o *JSONOutput) Table(_ []string, _ [][]string) {}

// JSON outputs a value as indented JSON.
func (o *JSONOutput) JSON(v any) error {
	return encodeJSON(o.w, v)
}

// NewOutput creates the output for format ("json" or text).
func NewOutput(w io.Writer, format string) Output {
	if format == "json" {
		return NewJSONOutput(w)
	}
	return NewTTYOutput(w)
}

func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
