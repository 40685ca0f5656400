// Package source holds the line-oriented position, range, and document types
// shared by the indexer, resolver, and assembler.
package source

import (
	"strings"
)

// Position is a zero-based line/column pair within a document.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a half-open span between two positions. A Range with Start == End
// is zero-length; the zero value spans the start of the document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location pairs a file path with a range inside that file.
type Location struct {
	File  string `json:"file"`
	Range Range  `json:"range"`
}

// LineRange builds a range covering whole lines [startLine, endLine].
func LineRange(startLine, endLine int) Range {
	return Range{Start: Position{Line: startLine}, End: Position{Line: endLine}}
}

// Before reports whether p comes strictly before q in document order.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// IsZero reports whether r is the zero-length start-of-document range.
func (r Range) IsZero() bool {
	return r.Start == Position{} && r.End == Position{}
}

// Contains reports whether p lies within r (inclusive of both endpoints).
func (r Range) Contains(p Position) bool {
	if p.Before(r.Start) {
		return false
	}
	return !r.End.Before(p)
}

// ContainsRange reports whether other lies entirely within r.
func (r Range) ContainsRange(other Range) bool {
	return r.Contains(other.Start) && r.Contains(other.End)
}

// Intersects reports whether r and other share at least one position.
// A zero-length range intersects any range containing its position.
func (r Range) Intersects(other Range) bool {
	if other.End.Before(r.Start) || r.End.Before(other.Start) {
		return false
	}
	return true
}

// Document is an in-memory view of one source file.
type Document struct {
	Path string
	Text string

	lines []string
}

// NewDocument builds a document from a path and its full text.
func NewDocument(path, text string) *Document {
	return &Document{Path: path, Text: text}
}

// Lines returns the document split into lines, computed once.
func (d *Document) Lines() []string {
	if d.lines == nil {
		d.lines = strings.Split(d.Text, "\n")
	}
	return d.lines
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.Lines())
}

// Line returns line i, or "" when i is out of bounds.
func (d *Document) Line(i int) string {
	lines := d.Lines()
	if i < 0 || i >= len(lines) {
		return ""
	}
	return lines[i]
}

// Slice returns the text covered by whole lines of r, clamped to the
// document. Column information is ignored; directive and context ranges are
// line-granular.
func (d *Document) Slice(r Range) string {
	lines := d.Lines()
	start := r.Start.Line
	end := r.End.Line
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start:end+1], "\n")
}

// Clamp trims r so it never spans negative or out-of-document lines.
func (d *Document) Clamp(r Range) Range {
	last := d.LineCount() - 1
	if r.Start.Line < 0 {
		r.Start = Position{}
	}
	if r.Start.Line > last {
		r.Start = Position{Line: last}
	}
	if r.End.Line > last {
		r.End = Position{Line: last, Column: len(d.Line(last))}
	}
	if r.End.Before(r.Start) {
		r.End = r.Start
	}
	return r
}
