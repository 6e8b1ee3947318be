package codegen

import (
	"fmt"
	"strings"
)

// indentUnit is the indentation step for generated source.
const indentUnit = "  "

// sourceWriter is an append-only text buffer with indent tracking.
// Nesting depth and line breaks are computed once here and reused
// uniformly across the attribute/collection/module layers, keeping the
// recursive encoders free of string arithmetic.
type sourceWriter struct {
	buf      strings.Builder
	indent   int
	lineOpen bool
}

// write appends s to the current line, emitting the indent prefix if
// the line has not been opened yet. s must not contain newlines.
func (w *sourceWriter) write(s string) {
	if !w.lineOpen {
		for i := 0; i < w.indent; i++ {
			w.buf.WriteString(indentUnit)
		}
		w.lineOpen = true
	}
	w.buf.WriteString(s)
}

// writef appends a formatted fragment to the current line.
func (w *sourceWriter) writef(format string, args ...any) {
	w.write(fmt.Sprintf(format, args...))
}

// newline terminates the current line.
func (w *sourceWriter) newline() {
	w.buf.WriteByte('\n')
	w.lineOpen = false
}

// in increases the indent for subsequent lines.
func (w *sourceWriter) in() {
	w.indent++
}

// out decreases the indent for subsequent lines.
func (w *sourceWriter) out() {
	w.indent--
}

// String returns the accumulated text.
func (w *sourceWriter) String() string {
	return w.buf.String()
}
