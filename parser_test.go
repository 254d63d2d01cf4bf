package truk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOK(t *testing.T, src string) *File {
	t.Helper()
	res := Parse([]byte(src), "t.truk", unknownFileID)
	require.True(t, res.Success, "expected parse success, got: %v", res.Err)
	return res.File
}

func TestParseFnDecl(t *testing.T) {
	f := parseOK(t, `fn add(a: i32, b: i32): i32 { return a + b; }`)
	require.Len(t, f.Declarations, 1)
	fn := f.Declarations[0].(*FnDecl)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.False(t, fn.IsExtern)
	assert.False(t, fn.IsTest)
}

func TestParseExternFnHasNoBody(t *testing.T) {
	f := parseOK(t, `fn puts(s: *u8): i32;`)
	fn := f.Declarations[0].(*FnDecl)
	assert.True(t, fn.IsExtern)
	assert.Nil(t, fn.Body)
}

func TestParseTestPrefixedFnIsTagged(t *testing.T) {
	f := parseOK(t, `fn test_addition() { return; }`)
	fn := f.Declarations[0].(*FnDecl)
	assert.True(t, fn.IsTest)
}

func TestParseStructAndEnum(t *testing.T) {
	f := parseOK(t, `
struct Point { x: i32, y: i32 }
enum Color { Red = 0, Green, Blue }
`)
	require.Len(t, f.Declarations, 2)
	s := f.Declarations[0].(*StructDecl)
	assert.Equal(t, "Point", s.Name)
	require.Len(t, s.Fields, 2)

	e := f.Declarations[1].(*EnumDecl)
	assert.Equal(t, "Color", e.Name)
	require.Len(t, e.Variants, 3)
	assert.Equal(t, "Red", e.Variants[0].Name)
	assert.Nil(t, e.Variants[1].Value)
}

func TestParseExpressionPrecedence(t *testing.T) {
	f := parseOK(t, `fn f() { let x = 1 + 2 * 3; }`)
	fn := f.Declarations[0].(*FnDecl)
	decl := fn.Body.Stmts[0].(*DeclStmt).Decl.(*LetDecl)
	bin := decl.Init.(*BinaryExpr)
	assert.Equal(t, TokenPlus, bin.Op)
	rhs := bin.RHS.(*BinaryExpr)
	assert.Equal(t, TokenStar, rhs.Op)
}

func TestParseCastBindsTighterThanUnary(t *testing.T) {
	f := parseOK(t, `fn f() { let x = -a as i32; }`)
	fn := f.Declarations[0].(*FnDecl)
	decl := fn.Body.Stmts[0].(*DeclStmt).Decl.(*LetDecl)
	unary := decl.Init.(*UnaryExpr)
	assert.Equal(t, TokenMinus, unary.Op)
	_, ok := unary.Operand.(*CastExpr)
	assert.True(t, ok, "cast should bind tighter than the unary prefix operator")
}

func TestParseIfConditionDoesNotConsumeStructLiteral(t *testing.T) {
	f := parseOK(t, `fn f() { if cond { return; } }`)
	fn := f.Declarations[0].(*FnDecl)
	ifs := fn.Body.Stmts[0].(*IfStmt)
	_, ok := ifs.Cond.(*IdentExpr)
	assert.True(t, ok, "`cond {` inside an if-condition must parse as ident + block, not a struct literal")
}

func TestParseStructLiteralOutsideControlCond(t *testing.T) {
	f := parseOK(t, `fn f() { let p = Point{x: 1, y: 2}; }`)
	fn := f.Declarations[0].(*FnDecl)
	decl := fn.Body.Stmts[0].(*DeclStmt).Decl.(*LetDecl)
	lit, ok := decl.Init.(*StructLiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "Point", lit.Name)
	require.Len(t, lit.Fields, 2)
}

func TestParseAssignmentStatement(t *testing.T) {
	f := parseOK(t, `fn f() { var x: i32 = 0; x += 1; }`)
	fn := f.Declarations[0].(*FnDecl)
	assign := fn.Body.Stmts[1].(*AssignStmt)
	assert.Equal(t, TokenPlusAssign, assign.Op)
}

func TestParseSyntaxErrorReportsFirstOffense(t *testing.T) {
	res := Parse([]byte(`fn f( { }`), "t.truk", unknownFileID)
	require.False(t, res.Success)
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrParse, res.Err.Kind)
	assert.Nil(t, res.File)
}

func TestParseImportAndCimport(t *testing.T) {
	f := parseOK(t, `
import "util.truk"
cimport "stdio.h" { printf, puts }
`)
	require.Len(t, f.Declarations, 2)
	imp := f.Declarations[0].(*ImportDecl)
	assert.Equal(t, "util.truk", imp.Path)
	ci := f.Declarations[1].(*CImportDecl)
	assert.Equal(t, "stdio.h", ci.HeaderPath)
	assert.Equal(t, []string{"printf", "puts"}, ci.Symbols)
	require.Len(t, f.CImports, 1)
}

func TestParseShardGroupsDecls(t *testing.T) {
	f := parseOK(t, `
shard math {
	fn square(x: i32): i32 { return x * x; }
}
`)
	require.Len(t, f.Declarations, 1)
	shard := f.Declarations[0].(*ShardDecl)
	assert.Equal(t, "math", shard.Name)
	require.Len(t, shard.Decls, 1)
}
