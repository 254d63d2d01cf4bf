package truk

import "fmt"

// FileID is the small file identifier the tokenizer and parser accept.
// The import resolver parses every file with unknownFileID and records
// declaration-to-file provenance by path in ResolveResult.DeclFile.
type FileID int32

const unknownFileID FileID = -1

// Location is a fully-resolved source position: line/column for
// human display, plus the raw byte Cursor that diagnostics key off of.
type Location struct {
	Line   int
	Column int
	Cursor int
	File   string
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Span is a half-open [Start, End) source range.
type Span struct {
	Start Location
	End   Location
}

func (s Span) String() string {
	if s.Start.Line == s.End.Line && s.Start.Column == s.End.Column {
		return s.Start.String()
	}
	return fmt.Sprintf("%s..%d:%d", s.Start, s.End.Line, s.End.Column)
}

// LineIndex maps byte cursor offsets to 1-based line/column pairs by
// binary-searching cached line-start offsets. Construction is O(n)
// over the input; lookups are O(log lines). Grounded on the teacher's
// pos.go LineIndex, adapted to also expand tabs to four columns for
// diagnostics, per spec §6.1.
type LineIndex struct {
	input     []byte
	lineStart []int
}

const tabWidth = 4

// NewLineIndex builds a LineIndex over input. CRLF line breaks are
// counted once, matching the tokenizer's own line-counting rule
// (spec §4.1: "a following \n is consumed silently").
func NewLineIndex(input []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i := 0; i < len(input); i++ {
		if input[i] == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{input: input, lineStart: lineStart}
}

// LocationAt converts a byte cursor into a Location. Columns are
// 1-based and count tabs as tabWidth columns.
func (li *LineIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.input) {
		cursor = len(li.input)
	}
	lo, hi := 0, len(li.lineStart)
	for lo < hi {
		mid := (lo + hi) / 2
		if li.lineStart[mid] > cursor {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	lineIdx := lo - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	start := li.lineStart[lineIdx]
	col := 1
	for i := start; i < cursor; i++ {
		if li.input[i] == '\t' {
			col += tabWidth
		} else {
			col++
		}
	}
	return Location{Line: lineIdx + 1, Column: col, Cursor: cursor}
}

// LineText returns the full text of the line containing cursor,
// without its trailing newline. Used to render the caret-underlined
// source extract (spec §7).
func (li *LineIndex) LineText(cursor int) string {
	loc := li.LocationAt(cursor)
	start := li.lineStart[loc.Line-1]
	end := len(li.input)
	if loc.Line < len(li.lineStart) {
		end = li.lineStart[loc.Line] - 1
		if end > 0 && li.input[end-1] == '\r' {
			end--
		}
	}
	if end < start {
		end = start
	}
	return string(li.input[start:end])
}
