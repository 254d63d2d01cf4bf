package emitc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	truk "github.com/trukc/truk"
)

func kw(kind truk.KeywordID) truk.Type {
	return &truk.PrimitiveType{Keyword: kind}
}

func TestEmitFunctionProducesSignatureAndBody(t *testing.T) {
	reg := truk.NewTypeRegistry()
	e := NewEmitter(reg)

	fn := &truk.FnDecl{
		Name:       "add",
		Params:     []truk.Param{{Name: "a", Type: kw(truk.KwI32)}, {Name: "b", Type: kw(truk.KwI32)}},
		ReturnType: kw(truk.KwI32),
		Body: &truk.BlockStmt{Stmts: []truk.Stmt{
			&truk.ReturnStmt{Values: []truk.Expr{
				&truk.BinaryExpr{Op: truk.TokenPlus, LHS: &truk.IdentExpr{Name: "a"}, RHS: &truk.IdentExpr{Name: "b"}},
			}},
		}},
	}

	result := e.Emit([]truk.Decl{fn}, nil)
	require.NotEmpty(t, result.Source)
	assert.Contains(t, result.FuncDefs, "truk_add")
	assert.Contains(t, result.FuncDefs, "return (a + b);")
	assert.Contains(t, result.ForwardDecls, "truk_add")
}

func TestEmitStructEmitsFieldsAndForwardDecl(t *testing.T) {
	reg := truk.NewTypeRegistry()
	e := NewEmitter(reg)

	s := &truk.StructDecl{
		Name: "Point",
		Fields: []truk.Field{
			{Name: "x", Type: kw(truk.KwI32)},
			{Name: "y", Type: kw(truk.KwI32)},
		},
	}

	result := e.Emit([]truk.Decl{s}, nil)
	assert.Contains(t, result.ForwardDecls, "struct truk_Point;")
	assert.Contains(t, result.StructDefs, "struct truk_Point {")
	assert.Contains(t, result.StructDefs, "__truk_i32 x;")
	assert.Contains(t, result.StructDefs, "__truk_i32 y;")
}

func TestEmitEnumWithExplicitValues(t *testing.T) {
	reg := truk.NewTypeRegistry()
	e := NewEmitter(reg)

	en := &truk.EnumDecl{
		Name: "Color",
		Variants: []truk.EnumVariant{
			{Name: "Red", Value: &truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "0"}},
			{Name: "Blue"},
		},
	}

	result := e.Emit([]truk.Decl{en}, nil)
	assert.Contains(t, result.StructDefs, "enum truk_Color {")
	assert.Contains(t, result.StructDefs, "truk_Color_Red = 0,")
	assert.Contains(t, result.StructDefs, "truk_Color_Blue,")
}

func TestEmitTestRunnerListsTestFunctions(t *testing.T) {
	reg := truk.NewTypeRegistry()
	e := NewEmitter(reg)

	fn := &truk.FnDecl{
		Name:    "test_addition",
		IsTest:  true,
		Body:    &truk.BlockStmt{Stmts: []truk.Stmt{&truk.ReturnStmt{}}},
	}

	opts := truk.NewCompilerOptions()
	opts.EmitTestRunner = true

	result := e.Emit([]truk.Decl{fn}, opts)
	require.NotEmpty(t, result.TestRunnerSource)
	assert.Contains(t, result.TestRunnerSource, "int main(void)")
	assert.Contains(t, result.TestRunnerSource, "RUN  test_addition")
	assert.True(t, strings.Contains(result.TestRunnerSource, "truk_test_addition();"))
}

func TestEmitApplicationSynthesizesEntryWrapper(t *testing.T) {
	reg := truk.NewTypeRegistry()
	e := NewEmitter(reg)

	fn := &truk.FnDecl{
		Name:       "main",
		ReturnType: kw(truk.KwI32),
		Body: &truk.BlockStmt{Stmts: []truk.Stmt{
			&truk.ReturnStmt{Values: []truk.Expr{&truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "0"}}},
		}},
	}

	result := e.Emit([]truk.Decl{fn}, nil)
	require.False(t, result.HasErrors(), "%v", result.Diagnostics)
	assert.True(t, result.HasMainFunction)
	assert.Equal(t, 1, result.MainFunctionCount)
	assert.Contains(t, result.Source, "int main(int argc, char** argv)")
	assert.Contains(t, result.Source, "(int)truk_main()")
}

func TestEmitApplicationWithoutMainIsFatal(t *testing.T) {
	reg := truk.NewTypeRegistry()
	e := NewEmitter(reg)

	fn := &truk.FnDecl{
		Name:       "helper",
		ReturnType: kw(truk.KwI32),
		Body: &truk.BlockStmt{Stmts: []truk.Stmt{
			&truk.ReturnStmt{Values: []truk.Expr{&truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "0"}}},
		}},
	}

	result := e.Emit([]truk.Decl{fn}, nil)
	require.True(t, result.HasErrors())
	assert.Equal(t, truk.ErrEmission, result.Diagnostics[0].Kind)
}

func TestEmitWarnsOnMultipleMainFunctions(t *testing.T) {
	reg := truk.NewTypeRegistry()
	e := NewEmitter(reg)

	mk := func() *truk.FnDecl {
		return &truk.FnDecl{
			Name:       "main",
			ReturnType: kw(truk.KwI32),
			Body: &truk.BlockStmt{Stmts: []truk.Stmt{
				&truk.ReturnStmt{Values: []truk.Expr{&truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "0"}}},
			}},
		}
	}

	result := e.Emit([]truk.Decl{mk(), mk()}, nil)
	require.False(t, result.HasErrors(), "%v", result.Diagnostics)
	assert.Equal(t, 2, result.MainFunctionCount)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "multiple main functions")
}

func TestEmitLibraryModeProducesHeaderAndSourceSplit(t *testing.T) {
	reg := truk.NewTypeRegistry()
	e := NewEmitter(reg)

	fn := &truk.FnDecl{
		Name:       "add",
		Params:     []truk.Param{{Name: "a", Type: kw(truk.KwI32)}, {Name: "b", Type: kw(truk.KwI32)}},
		ReturnType: kw(truk.KwI32),
		Body: &truk.BlockStmt{Stmts: []truk.Stmt{
			&truk.ReturnStmt{Values: []truk.Expr{
				&truk.BinaryExpr{Op: truk.TokenPlus, LHS: &truk.IdentExpr{Name: "a"}, RHS: &truk.IdentExpr{Name: "b"}},
			}},
		}},
	}

	opts := truk.NewCompilerOptions()
	opts.Emission = truk.EmitLibrary
	opts.LibraryHeader = "mathlib"

	result := e.Emit([]truk.Decl{fn}, opts)
	require.False(t, result.HasErrors(), "%v", result.Diagnostics)
	assert.Contains(t, result.Header, "MATHLIB_H")
	assert.Contains(t, result.Header, "truk_add")
	assert.Contains(t, result.Source, `#include "mathlib.h"`)
	assert.Contains(t, result.Source, "truk_add")
	assert.NotContains(t, result.Source, "int main(")
}

func TestEmitDeferFlushesInReverseBeforeReturn(t *testing.T) {
	reg := truk.NewTypeRegistry()
	e := NewEmitter(reg)

	fn := &truk.FnDecl{
		Name: "f",
		Body: &truk.BlockStmt{Stmts: []truk.Stmt{
			&truk.DeferStmt{Code: &truk.ExprStmt{X: &truk.CallExpr{Callee: &truk.IdentExpr{Name: "first"}}}},
			&truk.DeferStmt{Code: &truk.ExprStmt{X: &truk.CallExpr{Callee: &truk.IdentExpr{Name: "second"}}}},
			&truk.ReturnStmt{},
		}},
	}

	result := e.Emit([]truk.Decl{fn}, nil)
	firstIdx := strings.Index(result.FuncDefs, "first();")
	secondIdx := strings.Index(result.FuncDefs, "second();")
	require.GreaterOrEqual(t, firstIdx, 0)
	require.GreaterOrEqual(t, secondIdx, 0)
	assert.Less(t, secondIdx, firstIdx, "defers should flush in reverse registration order")
}
