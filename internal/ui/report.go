package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/thesavant42/nbmfetch/internal/models"
)

// The headless report is plain formatted text; lipgloss only colors it.
// For interactive tables use bubbles/table (see locator.go).

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintln(w, SuccessStyle.Render(message))
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: "+message))
}

// PrintRunSummary prints the located run and where it came from
func PrintRunSummary(w io.Writer, run *models.RunResult) {
	fmt.Fprintln(w)
	PrintSuccess(w, "Found latest: "+run.Label())
	fmt.Fprintln(w, RenderField("Station", run.Station))
	fmt.Fprintln(w, RenderField("Source", run.URL))
	fmt.Fprintln(w, RenderField("File", run.Filename()))
}

// PrintPreview prints the preview counts and the first rows as aligned text
func PrintPreview(w io.Writer, preview *models.Preview, maxWidth int) {
	fmt.Fprintln(w, AccentStyle.Render(fmt.Sprintf("Rows: %d  Columns: %d", preview.RowCount, preview.ColumnCount)))
	if len(preview.Header) == 0 {
		return
	}

	widths := make([]int, len(preview.Header))
	for i, h := range preview.Header {
		widths[i] = StringWidth(h)
	}
	for _, row := range preview.Rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if n := StringWidth(row[i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	format := func(cells []string) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = cell + strings.Repeat(" ", widths[i]-StringWidth(cell))
		}
		return truncate(strings.Join(parts, "  "), maxWidth)
	}

	fmt.Fprintln(w, TitleStyle.Render(format(preview.Header)))
	for _, row := range preview.Rows {
		fmt.Fprintln(w, RenderNormal(format(row)))
	}
	if hidden := preview.RowCount - len(preview.Rows); hidden > 0 {
		fmt.Fprintln(w, RenderDim(fmt.Sprintf("... %d more rows", hidden)))
	}
}
