package truk

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporterAccumulatesDiagnostics(t *testing.T) {
	r := NewReporter()
	assert.False(t, r.HasErrors())
	r.Reportf(ErrTypeCheck, Span{}, "t.truk", "bad thing: %d", 42)
	require.True(t, r.HasErrors())
	require.Len(t, r.Diagnostics(), 1)
	assert.Equal(t, "bad thing: 42", r.Diagnostics()[0].Message)
}

func TestDiagnosticRenderIncludesCaretLine(t *testing.T) {
	src := []byte("let x = oops\n")
	idx := NewLineIndex(src)
	loc := idx.LocationAt(8)
	d := Diagnostic{
		Kind:    ErrTypeCheck,
		Message: "undefined identifier \"oops\"",
		Span:    Span{Start: loc, End: loc},
		File:    "t.truk",
		Source:  src,
	}
	rendered := d.Render(os.Stderr)
	assert.Contains(t, rendered, "t.truk:1:9")
	assert.Contains(t, rendered, "let x = oops")
	assert.Contains(t, rendered, "^")
}

func TestErrorKindStringsAreStable(t *testing.T) {
	assert.Equal(t, "parse", ErrParse.String())
	assert.Equal(t, "type-check", ErrTypeCheck.String())
	assert.Equal(t, "unknown", ErrorKind(999).String())
}
