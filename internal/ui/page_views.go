package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
)

// page_views.go provides a fluent API for building consistent page views.

// PageViewBuilder handles the boilerplate of titles, dividers, spacing,
// and the two-box layout.
//
// Example usage:
//
//	return NewPageView(m.Layout).
//	    Title("NBM Latest Run").
//	    Divider().
//	    Table(m.stations).
//	    Status(m.StatusMsg).
//	    Help("enter: search | q: quit").
//	    Build()
type PageViewBuilder struct {
	layout     Layout
	content    strings.Builder
	helpText   string
	hadContent bool
}

// NewPageView creates a new PageViewBuilder with the given layout.
func NewPageView(layout Layout) *PageViewBuilder {
	return &PageViewBuilder{layout: layout}
}

// Title adds a title line (bold white).
func (b *PageViewBuilder) Title(title string) *PageViewBuilder {
	return b.line(RenderTitle(title))
}

// Subtitle adds a subtitle line (dim gray).
func (b *PageViewBuilder) Subtitle(subtitle string) *PageViewBuilder {
	return b.line(RenderDim(subtitle))
}

// Divider adds a full-width horizontal divider.
func (b *PageViewBuilder) Divider() *PageViewBuilder {
	return b.line(FullWidthDivider(b.layout.InnerWidth))
}

// Spacing adds blank lines.
func (b *PageViewBuilder) Spacing(lines int) *PageViewBuilder {
	b.content.WriteString(strings.Repeat("\n", lines))
	return b
}

// Accent adds a highlighted line (yellow).
func (b *PageViewBuilder) Accent(text string) *PageViewBuilder {
	return b.line(AccentStyle.Render(text))
}

// Success adds a success line (green).
func (b *PageViewBuilder) Success(text string) *PageViewBuilder {
	return b.line(RenderSuccess(text))
}

// Text adds normal text content.
func (b *PageViewBuilder) Text(text string) *PageViewBuilder {
	return b.line(RenderNormal(text))
}

// DimText adds dimmed text content.
func (b *PageViewBuilder) DimText(text string) *PageViewBuilder {
	return b.line(RenderDim(text))
}

// Field adds an aligned label/value line.
func (b *PageViewBuilder) Field(label, value string) *PageViewBuilder {
	return b.line(RenderField(label, value))
}

// CustomContent adds pre-rendered content as is.
func (b *PageViewBuilder) CustomContent(content string) *PageViewBuilder {
	b.content.WriteString(content)
	b.hadContent = true
	return b
}

// Table adds a table with full-width selection highlighting.
func (b *PageViewBuilder) Table(t table.Model) *PageViewBuilder {
	if b.hadContent {
		b.content.WriteString("\n")
	}
	return b.line(RenderTableWithSelection(t, b.layout))
}

// Status adds a status message (if not empty).
func (b *PageViewBuilder) Status(msg string) *PageViewBuilder {
	if msg == "" {
		return b
	}
	if b.hadContent {
		b.content.WriteString("\n")
	}
	return b.line(StatusMsgStyle.Render(msg))
}

// Error adds an error message.
func (b *PageViewBuilder) Error(err error) *PageViewBuilder {
	if err == nil {
		return b
	}
	if b.hadContent {
		b.content.WriteString("\n")
	}
	return b.line(RenderError("Error: " + err.Error()))
}

// Help sets the help text for the footer box.
func (b *PageViewBuilder) Help(helpText string) *PageViewBuilder {
	b.helpText = helpText
	return b
}

// Build constructs the final view string with two-box layout.
func (b *PageViewBuilder) Build() string {
	return BuildTwoBoxView(b.content.String(), b.helpText, b.layout)
}

func (b *PageViewBuilder) line(s string) *PageViewBuilder {
	b.content.WriteString(s)
	b.content.WriteString("\n")
	b.hadContent = true
	return b
}
