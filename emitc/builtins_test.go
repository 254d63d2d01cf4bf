package emitc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	truk "github.com/trukc/truk"
)

func TestLowerBuiltinLen(t *testing.T) {
	e := newExprEmitter()
	call := &truk.CallExpr{Callee: &truk.IdentExpr{Name: "len"}, Args: []truk.Expr{&truk.IdentExpr{Name: "xs"}}}
	assert.Equal(t, "xs.len", e.lowerExpr(call))
}

func TestLowerBuiltinMakeSlice(t *testing.T) {
	e := newExprEmitter()
	call := &truk.CallExpr{
		Callee: &truk.IdentExpr{Name: "make"},
		Args: []truk.Expr{
			&truk.TypeParamExpr{Type: kw(truk.KwI32)},
			&truk.LiteralExpr{Kind: truk.TokenInt, Lexeme: "4"},
		},
	}
	got := e.lowerExpr(call)
	assert.Contains(t, got, "truk_slice_new_truk_slice_i32(4)")
}

func TestLowerBuiltinMakeMap(t *testing.T) {
	e := newExprEmitter()
	call := &truk.CallExpr{
		Callee: &truk.IdentExpr{Name: "make"},
		Args: []truk.Expr{
			&truk.TypeParamExpr{Type: &truk.MapType{Key: kw(truk.KwI32), Value: kw(truk.KwI32)}},
		},
	}
	got := e.lowerExpr(call)
	assert.Contains(t, got, "truk_map_i32_i32_new()")
}

func TestLowerBuiltinDeleteOnSliceFreesBackingStorage(t *testing.T) {
	e := newExprEmitter()
	i32 := &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "i32"}
	e.locals.Define(&truk.Symbol{Name: "a", Type: &truk.TypeEntry{Kind: truk.KindArray, ArraySize: -1, ElementType: i32}})

	call := &truk.CallExpr{
		Callee: &truk.IdentExpr{Name: "delete"},
		Args:   []truk.Expr{&truk.IdentExpr{Name: "a"}},
	}
	assert.Equal(t, "free(a.data)", e.lowerExpr(call))
}

func TestLowerBuiltinDeleteOneArgOnMapDeinits(t *testing.T) {
	e := newExprEmitter()
	strPtr := &truk.TypeEntry{Kind: truk.KindPointer, PointeeType: &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "u8"}}
	i32 := &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "i32"}
	e.locals.Define(&truk.Symbol{Name: "m", Type: &truk.TypeEntry{Kind: truk.KindMap, MapKeyType: strPtr, MapValueType: i32}})

	call := &truk.CallExpr{
		Callee: &truk.IdentExpr{Name: "delete"},
		Args:   []truk.Expr{&truk.IdentExpr{Name: "m"}},
	}
	assert.Equal(t, "truk_map_ptr_u8_i32_deinit(&m)", e.lowerExpr(call))
}

func TestLowerBuiltinDeleteTwoArgOnMapRemovesKey(t *testing.T) {
	e := newExprEmitter()
	strPtr := &truk.TypeEntry{Kind: truk.KindPointer, PointeeType: &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "u8"}}
	i32 := &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "i32"}
	e.locals.Define(&truk.Symbol{Name: "m", Type: &truk.TypeEntry{Kind: truk.KindMap, MapKeyType: strPtr, MapValueType: i32}})

	call := &truk.CallExpr{
		Callee: &truk.IdentExpr{Name: "delete"},
		Args: []truk.Expr{
			&truk.IdentExpr{Name: "m"},
			&truk.LiteralExpr{Kind: truk.TokenString, Lexeme: "alice"},
		},
	}
	got := e.lowerExpr(call)
	assert.Contains(t, got, "truk_map_ptr_u8_i32_remove(&m,")
	assert.Contains(t, got, `"alice"`)
}

func TestLowerBuiltinEachOverMap(t *testing.T) {
	e := newExprEmitter()
	strPtr := &truk.TypeEntry{Kind: truk.KindPointer, PointeeType: &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "u8"}}
	i32 := &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "i32"}
	e.locals.Define(&truk.Symbol{Name: "m", Type: &truk.TypeEntry{Kind: truk.KindMap, MapKeyType: strPtr, MapValueType: i32}})

	call := &truk.CallExpr{
		Callee: &truk.IdentExpr{Name: "each"},
		Args:   []truk.Expr{&truk.IdentExpr{Name: "m"}, &truk.IdentExpr{Name: "visit"}},
	}
	assert.Equal(t, "truk_map_ptr_u8_i32_each(&m, visit)", e.lowerExpr(call))
}

func TestLowerBuiltinPanic(t *testing.T) {
	e := newExprEmitter()
	call := &truk.CallExpr{
		Callee: &truk.IdentExpr{Name: "panic"},
		Args:   []truk.Expr{&truk.LiteralExpr{Kind: truk.TokenString, Lexeme: "boom"}},
	}
	assert.Equal(t, `__truk_panic("boom")`, e.lowerExpr(call))
}

func TestLowerBuiltinSizeof(t *testing.T) {
	e := newExprEmitter()
	call := &truk.CallExpr{
		Callee: &truk.IdentExpr{Name: "sizeof"},
		Args:   []truk.Expr{&truk.TypeParamExpr{Type: kw(truk.KwI64)}},
	}
	assert.Equal(t, "sizeof(__truk_i64)", e.lowerExpr(call))
}
