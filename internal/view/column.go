// Package view renders normalized usage metrics into tables, timelines and
// charts. Everything in this package is a pure transformation: callers hand
// in metric rows and receive structured fragments the page template escapes.
package view

import (
	"github.com/nghyane/mux-console/internal/metrics"
)

// Align selects the horizontal alignment of a column.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Cell is a single rendered table cell. Text is escaped by the template at
// insertion time; Class and Title feed the cell's attributes.
type Cell struct {
	Text  string
	Class string
	Title string
}

// RenderFunc turns one row's metrics into the cell for a column.
type RenderFunc func(m metrics.Metrics) Cell

// Column describes one table column: header, alignment and how metric rows
// render into it. Lead columns carry no RenderFunc; their cells arrive
// pre-built with each row.
type Column struct {
	Key    string
	Title  string
	Align  Align
	Class  string
	render RenderFunc
}

// Render builds the cell for m. Columns without a RenderFunc yield an empty
// cell so a misconfigured table degrades to blanks instead of panicking.
func (c Column) Render(m metrics.Metrics) Cell {
	if c.render == nil {
		return Cell{}
	}
	return c.render(m)
}

// ColumnBuilder provides a fluent API for constructing Column values.
type ColumnBuilder struct {
	col Column
}

// =============================================================================
// Factory Functions
// =============================================================================

// Lead creates a builder for a caller-supplied leading column (provider,
// endpoint, model, key). Lead columns are left-aligned and render nothing
// themselves.
func Lead(key, title string) *ColumnBuilder {
	return &ColumnBuilder{col: Column{Key: key, Title: title, Align: AlignLeft}}
}

// Metric creates a builder for a numeric metric column.
func Metric(key, title string) *ColumnBuilder {
	return &ColumnBuilder{col: Column{Key: key, Title: title, Align: AlignRight}}
}

// =============================================================================
// Chainable Methods
// =============================================================================

// Class sets a CSS class applied to the whole column.
func (b *ColumnBuilder) Class(class string) *ColumnBuilder {
	b.col.Class = class
	return b
}

// Render sets the function producing this column's cell from a metric row.
func (b *ColumnBuilder) Render(fn RenderFunc) *ColumnBuilder {
	b.col.render = fn
	return b
}

// Build returns the assembled column.
func (b *ColumnBuilder) Build() Column {
	return b.col
}
