package truk

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// Reporter accumulates diagnostics across a phase. It never panics on
// a reported error; callers decide when accumulated errors should
// abort the pipeline (see compiler/pipeline.go).
type Reporter struct {
	diags []Diagnostic
}

func NewReporter() *Reporter { return &Reporter{} }

func (r *Reporter) Report(d Diagnostic) { r.diags = append(r.diags, d) }

func (r *Reporter) Reportf(kind ErrorKind, span Span, file string, format string, args ...any) {
	r.Report(Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span, File: file})
}

func (r *Reporter) HasErrors() bool { return len(r.diags) > 0 }

func (r *Reporter) Diagnostics() []Diagnostic { return r.diags }

// Wrap attaches a causal chain to a Diagnostic's Message using
// github.com/pkg/errors, so a wrapped file-io failure keeps its
// original error string visible in the rendered output.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// colorEnabled mirrors spec §7's rule: colorize only on a TTY, and
// never when NO_COLOR is set.
func colorEnabled(w *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
}

// Render produces the three-line caret form from spec §7:
//
//	<file>:<line>:<column>: <kind>: <message>
//	    <source line>
//	    <spaces><carets>
//
// Spans crossing a line break render the first line's carets running
// to end-of-line (originalsource/error_display.cpp's multi-line case).
func (d Diagnostic) Render(w *os.File) string {
	useColor := colorEnabled(w)
	header := fmt.Sprintf("%s:%d:%d: %s: %s",
		d.File, d.Span.Start.Line, d.Span.Start.Column, d.Kind, d.Message)
	if useColor {
		kindColor := color.New(color.FgRed, color.Bold)
		header = fmt.Sprintf("%s:%d:%d: %s: %s",
			d.File, d.Span.Start.Line, d.Span.Start.Column,
			kindColor.Sprint(d.Kind), d.Message)
	}
	if d.Source == nil {
		return header
	}

	idx := NewLineIndex(d.Source)
	line := idx.LineText(d.Span.Start.Cursor)

	col := d.Span.Start.Column
	width := d.Span.End.Column - d.Span.Start.Column
	if d.Span.End.Line != d.Span.Start.Line || width <= 0 {
		width = runeLen(line) - col + 1
		if width < 1 {
			width = 1
		}
	}
	caretLine := strings.Repeat(" ", col-1) + strings.Repeat("^", width)
	if useColor {
		caretLine = color.New(color.FgRed).Sprint(caretLine)
	}
	return fmt.Sprintf("%s\n    %s\n    %s", header, line, caretLine)
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
