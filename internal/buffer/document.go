// Package buffer is an in-memory text host for the annotation manager:
// immutable document snapshots plus a workspace that tracks the active
// document and the decorations currently displayed.
package buffer

import (
	"sort"
	"unicode/utf8"

	"github.com/GosuCode/oklch-color-preview/internal/annotate"
)

// Document is an immutable snapshot of a named text buffer.
// Edits produce a new Document with the same ID.
type Document struct {
	id         string
	name       string
	text       string
	lineStarts []int
}

// NewDocument creates a snapshot and indexes its line starts.
func NewDocument(id, name, text string) *Document {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Document{id: id, name: name, text: text, lineStarts: starts}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Name returns the display name.
func (d *Document) Name() string { return d.name }

// Text returns the full contents.
func (d *Document) Text() string { return d.text }

// LineCount returns the number of lines; an empty document has one.
func (d *Document) LineCount() int { return len(d.lineStarts) }

// Line returns line n without its trailing newline.
func (d *Document) Line(n int) string {
	if n < 0 || n >= len(d.lineStarts) {
		return ""
	}
	start := d.lineStarts[n]
	end := len(d.text)
	if n+1 < len(d.lineStarts) {
		end = d.lineStarts[n+1] - 1
	}
	if end > start && d.text[end-1] == '\r' {
		end--
	}
	return d.text[start:end]
}

// PositionAt translates a byte offset into a zero-based line and rune column.
// Offsets are clamped to the document bounds.
func (d *Document) PositionAt(offset int) annotate.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}

	line := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1

	col := utf8.RuneCountInString(d.text[d.lineStarts[line]:offset])
	return annotate.Position{Line: line, Column: col}
}

// with returns a copy of d holding text.
func (d *Document) with(text string) *Document {
	return NewDocument(d.id, d.name, text)
}
