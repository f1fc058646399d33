package ui

// columns.go provides generic column width calculation for bubbles/table.

import (
	"github.com/charmbracelet/bubbles/table"
)

// ColumnSpec defines a table column with flexible or fixed width.
// Use FlexRatio for columns that should expand/contract with terminal width.
// Use FixedWidth for columns that should maintain constant width.
type ColumnSpec struct {
	Title      string
	MinWidth   int // Minimum width (0 = no minimum)
	FixedWidth int // If > 0, use this exact width (ignores FlexRatio)
	FlexRatio  int // Relative ratio for flexible columns (0 = fixed-only)
}

// CalculateColumns computes column widths from specs.
// Flexible columns split remaining space by ratio after fixed columns are allocated.
//
// Example:
//
//	columns := CalculateColumns([]ColumnSpec{
//	    {Title: "Station", FixedWidth: 10},
//	    {Title: "Cached Run", FlexRatio: 100, MinWidth: 20},
//	}, layout.TableWidth)
func CalculateColumns(specs []ColumnSpec, totalWidth int) []table.Column {
	if totalWidth < 50 {
		totalWidth = 50
	}

	fixedTotal := 0
	flexTotal := 0
	for _, s := range specs {
		if s.FixedWidth > 0 {
			fixedTotal += s.FixedWidth
		} else {
			flexTotal += s.FlexRatio
		}
	}

	remaining := totalWidth - fixedTotal
	if remaining < 0 {
		remaining = 0
	}

	columns := make([]table.Column, len(specs))
	for i, s := range specs {
		var width int
		if s.FixedWidth > 0 {
			width = s.FixedWidth
		} else if flexTotal > 0 {
			width = remaining * s.FlexRatio / flexTotal
		}

		if s.MinWidth > 0 && width < s.MinWidth {
			width = s.MinWidth
		}

		columns[i] = table.Column{Title: s.Title, Width: width}
	}

	return columns
}

// cellBudget is the width left for column content once each cell's
// one-space padding on both sides is taken out
func cellBudget(tableWidth, columns int) int {
	return tableWidth - 2*columns
}

// StationColumns returns column specs for the station picker
func StationColumns() []ColumnSpec {
	return []ColumnSpec{
		{Title: "#", FixedWidth: 4},
		{Title: "Station", FixedWidth: 10},
		{Title: "Latest Run", FlexRatio: 100, MinWidth: 24},
	}
}

// PreviewColumns returns column specs for a CSV preview. Every CSV column
// gets an equal share; the index column is fixed.
func PreviewColumns(header []string) []ColumnSpec {
	specs := make([]ColumnSpec, 0, len(header)+1)
	specs = append(specs, ColumnSpec{Title: "Row", FixedWidth: 5})
	for _, h := range header {
		specs = append(specs, ColumnSpec{Title: h, FlexRatio: 1, MinWidth: 6})
	}
	return specs
}
