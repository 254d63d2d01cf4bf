package emitc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	truk "github.com/trukc/truk"
)

func TestLowerStmtIfElse(t *testing.T) {
	e := newExprEmitter()
	w := newOutputWriter("  ")
	s := &truk.IfStmt{
		Cond: &truk.IdentExpr{Name: "ok"},
		Then: &truk.BlockStmt{Stmts: []truk.Stmt{&truk.ReturnStmt{}}},
		Else: &truk.BlockStmt{Stmts: []truk.Stmt{&truk.BreakStmt{}}},
	}
	e.lowerStmt(w, s)
	out := w.String()
	assert.Contains(t, out, "if (ok)")
	assert.Contains(t, out, "else")
	assert.Contains(t, out, "return;")
	assert.Contains(t, out, "break;")
}

func TestLowerStmtAssignOperators(t *testing.T) {
	e := newExprEmitter()
	w := newOutputWriter("  ")
	e.lowerStmt(w, &truk.AssignStmt{
		Op:     truk.TokenPlusAssign,
		Target: &truk.IdentExpr{Name: "total"},
		Value:  &truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "1"},
	})
	assert.Contains(t, w.String(), "total += 1;")
}

func TestLowerMatchEmitsSwitchWithDefault(t *testing.T) {
	e := newExprEmitter()
	w := newOutputWriter("  ")
	m := &truk.MatchStmt{
		Scrutinee: &truk.IdentExpr{Name: "x"},
		Cases: []truk.MatchCase{
			{Pattern: &truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "1"}, Body: &truk.BlockStmt{Stmts: []truk.Stmt{&truk.ReturnStmt{}}}},
			{Pattern: nil, Body: &truk.BlockStmt{Stmts: []truk.Stmt{&truk.BreakStmt{}}}},
		},
	}
	e.lowerStmt(w, m)
	out := w.String()
	assert.Contains(t, out, "switch (x)")
	assert.Contains(t, out, "case 1: {")
	assert.Contains(t, out, "default: {")
}

func TestDeferFrameFlushesReverseOrder(t *testing.T) {
	e := newExprEmitter()
	w := newOutputWriter("  ")
	e.pushDeferFrame()
	e.pushDefer(&truk.ExprStmt{X: &truk.CallExpr{Callee: &truk.IdentExpr{Name: "first"}}})
	e.pushDefer(&truk.ExprStmt{X: &truk.CallExpr{Callee: &truk.IdentExpr{Name: "second"}}})
	e.flushDefers(w)
	e.popDeferFrame()

	out := w.String()
	assert.Less(t, indexOf(out, "second();"), indexOf(out, "first();"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestLowerDeclStmtVarConstLet(t *testing.T) {
	e := newExprEmitter()
	w := newOutputWriter("  ")

	e.lowerStmt(w, &truk.DeclStmt{Decl: &truk.VarDecl{Name: "x", Type: kw(truk.KwI32), Init: &truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "1"}}})
	e.lowerStmt(w, &truk.DeclStmt{Decl: &truk.ConstDecl{Name: "y", Type: kw(truk.KwI32), Value: &truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "2"}}})
	e.lowerStmt(w, &truk.DeclStmt{Decl: &truk.LetDecl{Name: "z", Init: &truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "3"}}})

	out := w.String()
	assert.Contains(t, out, "__truk_i32 x = 1;")
	assert.Contains(t, out, "const __truk_i32 y = 2;")
	assert.Contains(t, out, "__auto_type z = 3;")
}

func TestLowerAssignToMapIndexCallsGenericSet(t *testing.T) {
	e := newExprEmitter()
	w := newOutputWriter("  ")
	strPtr := &truk.TypeEntry{Kind: truk.KindPointer, PointeeType: &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "u8"}}
	i32 := &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "i32"}
	e.locals.Define(&truk.Symbol{Name: "scores", Type: &truk.TypeEntry{Kind: truk.KindMap, MapKeyType: strPtr, MapValueType: i32}})

	e.lowerStmt(w, &truk.AssignStmt{
		Op:     truk.TokenAssign,
		Target: &truk.IndexExpr{X: &truk.IdentExpr{Name: "scores"}, Index: &truk.LiteralExpr{Kind: truk.TokenString, Lexeme: "alice"}},
		Value:  &truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "9"},
	})

	out := w.String()
	assert.Contains(t, out, "truk_map_ptr_u8_i32_set(&scores,")
	assert.Contains(t, out, `"alice"`)
	assert.Contains(t, out, "9")
}

func TestLowerReturnDecomposesTuple(t *testing.T) {
	e := newExprEmitter()
	w := newOutputWriter("  ")
	i32 := &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "i32"}
	e.currentReturnType = &truk.TypeEntry{Kind: truk.KindTuple, TupleElements: []*truk.TypeEntry{i32, i32}}

	e.lowerStmt(w, &truk.ReturnStmt{Values: []truk.Expr{
		&truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "1"},
		&truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "2"},
	}})

	out := w.String()
	assert.Contains(t, out, "return (struct truk_tuple_i32_i32){1, 2};")
}
