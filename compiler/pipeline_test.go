package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trukc/truk"
)

func writeTempSource(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.truk")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestCompileFileProducesCSource(t *testing.T) {
	path := writeTempSource(t, `
fn add(a: i32, b: i32): i32 { return a + b; }
fn main(): i32 { return add(1, 2); }
`)

	result := CompileFile(path, nil, nil)
	require.False(t, result.HasErrors(), "%v", result.Diagnostics)
	assert.Contains(t, result.Source, "truk_add")
	assert.True(t, result.HasMainFunction)
	assert.Equal(t, 1, result.MainFunctionCount)
}

func TestCompileFileReportsTypeErrors(t *testing.T) {
	path := writeTempSource(t, `
fn f(): i32 {
	if true {
		return 1;
	}
}
`)

	result := CompileFile(path, nil, nil)
	require.True(t, result.HasErrors())
	assert.Empty(t, result.Source)
}

func TestCompileFileReportsMissingFile(t *testing.T) {
	result := CompileFile(filepath.Join(t.TempDir(), "nope.truk"), nil, nil)
	require.True(t, result.HasErrors())
}

func TestTableOfContentsListsTopLevelDeclarations(t *testing.T) {
	path := writeTempSource(t, `
struct Point { x: i32, y: i32 }
fn main(): i32 { return 0; }
`)

	toc, diags := TableOfContents(path, nil, nil)
	require.Empty(t, diags)
	assert.Contains(t, toc, "struct")
	assert.Contains(t, toc, "Point")
	assert.Contains(t, toc, "fn")
	assert.Contains(t, toc, "main")
}

func TestCompileFileDefaultsOptionsWhenNil(t *testing.T) {
	path := writeTempSource(t, `fn main(): i32 { return 0; }`)
	result := CompileFile(path, (*truk.CompilerOptions)(nil), nil)
	require.False(t, result.HasErrors(), "%v", result.Diagnostics)
}

func TestCompileFileReportsMissingMainAsFatal(t *testing.T) {
	path := writeTempSource(t, `fn add(a: i32, b: i32): i32 { return a + b; }`)
	result := CompileFile(path, nil, nil)
	require.True(t, result.HasErrors())
}

func TestCompileFileLibraryModeSplitsHeaderAndSource(t *testing.T) {
	path := writeTempSource(t, `fn add(a: i32, b: i32): i32 { return a + b; }`)
	opts := truk.NewCompilerOptions()
	opts.Emission = truk.EmitLibrary
	opts.LibraryHeader = "mathlib"

	result := CompileFile(path, opts, nil)
	require.False(t, result.HasErrors(), "%v", result.Diagnostics)
	assert.Contains(t, result.Header, "truk_add")
	assert.Contains(t, result.Source, "#include \"mathlib.h\"")
	assert.Contains(t, result.Source, "truk_add")
}
