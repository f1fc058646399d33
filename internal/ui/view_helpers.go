package ui

// view_helpers.go provides common View() rendering helpers.
// Use these to build consistent two-box layouts across all TUI models.

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
)

// =============================================================================
// Table Rendering with Full-Width Selection
// =============================================================================

// RenderTableWithSelection renders a bubbles table with full-width selection highlight.
// The table's Selected style should use a neutral background,
// and this function applies the visible selection styling.
//
// bubbles/table View() output: line 0 is the header, lines 1+ are the
// visible data rows. A divider is added under the header here.
func RenderTableWithSelection(t table.Model, layout Layout) string {
	lines := strings.Split(t.View(), "\n")
	result := make([]string, 0, len(lines)+1)

	visibleCursor := t.Cursor() - scrollOffset(t.Cursor(), t.Height(), len(t.Rows()))

	for i, line := range lines {
		if i == 0 {
			result = append(result, NormalStyle.Render(line))
			result = append(result, FullWidthDivider(layout.InnerWidth))
			continue
		}

		// Strip escape codes first so embedded resets don't kill the background
		if i-1 == visibleCursor && t.Focused() {
			clean := stripEscapeCodes(line)
			if w := StringWidth(clean); w < layout.InnerWidth {
				clean += strings.Repeat(" ", layout.InnerWidth-w)
			} else if w > layout.InnerWidth {
				clean = truncateToWidth(clean, layout.InnerWidth)
			}
			result = append(result, SelectedStyle.Render(clean))
			continue
		}

		result = append(result, NormalStyle.Render(line))
	}

	return strings.Join(result, "\n")
}

// scrollOffset mirrors the bubbles table viewport: the first visible row
// index for a cursor position.
func scrollOffset(cursor, height, total int) int {
	if total <= height || cursor < height {
		return 0
	}
	start := cursor - height + 1
	if maxStart := total - height; start > maxStart {
		start = maxStart
	}
	return start
}

// CenterText centers text within given width.
// Uses StringWidth() for accurate ANSI-aware width calculation.
func CenterText(text string, width int) string {
	textW := StringWidth(text)
	if textW >= width {
		return text
	}
	return strings.Repeat(" ", (width-textW)/2) + text
}

// FullWidthDivider returns a horizontal divider spanning the inner width.
func FullWidthDivider(innerWidth int) string {
	return strings.Repeat("─", innerWidth)
}

// RenderField renders an aligned "label: value" line
func RenderField(label, value string) string {
	return fmt.Sprintf("%s %s", DimStyle.Render(fmt.Sprintf("%-10s", label+":")), RenderNormal(value))
}
