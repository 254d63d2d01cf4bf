package emitc

import (
	"fmt"
	"strings"

	truk "github.com/trukc/truk"
)

// lowerExpr renders e as a single C expression. It does not carry
// statement-level state (defers, declarations) — those live in stmt.go.
func (e *Emitter) lowerExpr(ex truk.Expr) string {
	switch n := ex.(type) {
	case *truk.LiteralExpr:
		return e.lowerLiteral(n)
	case *truk.IdentExpr:
		return identName(n.Name)
	case *truk.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", e.lowerExpr(n.LHS), cOperator(n.Op), e.lowerExpr(n.RHS))
	case *truk.UnaryExpr:
		return fmt.Sprintf("(%s%s)", cOperator(n.Op), e.lowerExpr(n.Operand))
	case *truk.CastExpr:
		return fmt.Sprintf("((%s)%s)", cName(e.resolveType(n.Target)), e.lowerExpr(n.X))
	case *truk.CallExpr:
		return e.lowerCall(n)
	case *truk.IndexExpr:
		return e.lowerIndex(n)
	case *truk.MemberExpr:
		return fmt.Sprintf("%s.%s", e.lowerExpr(n.X), n.Field)
	case *truk.ArrayLiteralExpr:
		return e.lowerArrayLiteral(n)
	case *truk.StructLiteralExpr:
		return e.lowerStructLiteral(n)
	case *truk.LambdaExpr:
		return e.lowerLambda(n)
	case *truk.TypeParamExpr:
		return cName(e.resolveType(n.Type))
	case *truk.EnumValueAccessExpr:
		return fmt.Sprintf("%s_%s", mangle(n.Enum), n.Variant)
	default:
		panic("emitc: lowerExpr: unhandled expression variant")
	}
}

func identName(name string) string {
	// C reserves a handful of identifiers the source language doesn't;
	// none of the keyword catalog collides with them today, so this is
	// a straight passthrough reserved for future divergence.
	return name
}

func (e *Emitter) lowerLiteral(n *truk.LiteralExpr) string {
	switch n.Kind {
	case truk.TokenInt, truk.TokenFloat:
		return n.Lexeme
	case truk.TokenString:
		s := unescapeForC(n.Lexeme)
		if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
			return s
		}
		return `"` + s + `"`
	case truk.TokenChar:
		return fmt.Sprintf("'%s'", n.Lexeme)
	case truk.TokenKeyword:
		switch n.Lexeme {
		case "true":
			return "1"
		case "false":
			return "0"
		case "nil":
			return "NULL"
		}
	}
	panic("emitc: lowerLiteral: unhandled literal kind")
}

func unescapeForC(s string) string {
	// source and C share the backslash-escape grammar for the subset
	// this language accepts, so the lexeme already round-trips.
	return s
}

var binaryOps = map[truk.TokenType]string{
	truk.TokenPlus: "+", truk.TokenMinus: "-", truk.TokenStar: "*", truk.TokenSlash: "/", truk.TokenPercent: "%",
	truk.TokenEq: "==", truk.TokenNotEq: "!=", truk.TokenLt: "<", truk.TokenLtEq: "<=", truk.TokenGt: ">", truk.TokenGtEq: ">=",
	truk.TokenAnd: "&&", truk.TokenOr: "||",
	truk.TokenAmp: "&", truk.TokenPipe: "|", truk.TokenCaret: "^", truk.TokenShl: "<<", truk.TokenShr: ">>",
	truk.TokenNot: "!", truk.TokenTilde: "~",
}

func cOperator(t truk.TokenType) string {
	if s, ok := binaryOps[t]; ok {
		return s
	}
	panic("emitc: cOperator: unhandled operator token")
}

func (e *Emitter) lowerCall(n *truk.CallExpr) string {
	if id, ok := n.Callee.(*truk.IdentExpr); ok {
		if kind, ok := e.builtins[id.Name]; ok {
			return e.lowerBuiltinCall(kind, n)
		}
	}
	var args []string
	for _, a := range n.Args {
		args = append(args, e.lowerExpr(a))
	}
	return fmt.Sprintf("%s(%s)", e.lowerExpr(n.Callee), strings.Join(args, ", "))
}

// lowerIndex branches on the indexed expression's resolved kind: a
// map read lowers through its typed _get wrapper and dereferences the
// returned pointer (spec §4.5/§6.3: rvalue map indexing lowers to
// __truk_map_get_generic); everything else keeps the slice/array
// bounds-checked .data[idx] form.
func (e *Emitter) lowerIndex(n *truk.IndexExpr) string {
	if xt := e.inferExprType(n.X); xt != nil && xt.Kind == truk.KindMap {
		obj := e.lowerExpr(n.X)
		key := e.lowerMapKey(n.Index, xt.MapKeyType)
		name := mapTypeName(xt.MapKeyType, xt.MapValueType)
		return fmt.Sprintf("(*%s_get(&%s, %s))", name, obj, key)
	}
	obj := e.lowerExpr(n.X)
	idx := e.lowerExpr(n.Index)
	return fmt.Sprintf("(__truk_bounds_check((__truk_u64)(%s), %s.len), %s.data[%s])", idx, obj, obj, idx)
}

// lowerMapKey renders a map key expression, degrading a slice-of-u8
// key to its backing pointer the way mapKeyCType degrades its static
// type (spec §4.3's "slice-of-u8 ... uses .data as the key pointer").
func (e *Emitter) lowerMapKey(k truk.Expr, keyType *truk.TypeEntry) string {
	if kt := e.inferExprType(k); kt != nil && kt.Kind == truk.KindArray && kt.ArraySize < 0 {
		return e.lowerExpr(k) + ".data"
	}
	return e.lowerExpr(k)
}

func (e *Emitter) lowerArrayLiteral(n *truk.ArrayLiteralExpr) string {
	var elems []string
	for _, el := range n.Elements {
		elems = append(elems, e.lowerExpr(el))
	}
	return "{" + strings.Join(elems, ", ") + "}"
}

func (e *Emitter) lowerStructLiteral(n *truk.StructLiteralExpr) string {
	var fields []string
	for _, f := range n.Fields {
		fields = append(fields, fmt.Sprintf(".%s = %s", f.Name, e.lowerExpr(f.Value)))
	}
	return fmt.Sprintf("(struct %s){%s}", mangle(n.Name), strings.Join(fields, ", "))
}

func (e *Emitter) lowerLambda(n *truk.LambdaExpr) string {
	name := e.freshLambdaName()
	w := newOutputWriter(e.space)
	var params []string
	for _, p := range n.Params {
		params = append(params, fmt.Sprintf("%s %s", cName(e.resolveType(p.Type)), p.Name))
	}
	ret := cName(e.resolveType(n.ReturnType))
	w.writel(fmt.Sprintf("static %s %s(%s) {", ret, name, strings.Join(params, ", ")))
	w.indent()
	prevReturn := e.currentReturnType
	e.currentReturnType = e.resolveType(n.ReturnType)
	e.locals.Push()
	for _, p := range n.Params {
		e.locals.Define(&truk.Symbol{Name: p.Name, Type: e.resolveType(p.Type)})
	}
	e.pushDeferFrame()
	for _, st := range n.Body.Stmts {
		e.lowerStmt(w, st)
	}
	e.popDeferFrame()
	e.locals.Pop()
	e.currentReturnType = prevReturn
	w.unindent()
	w.writel("}")
	e.lambdaDefs = append(e.lambdaDefs, w.String())
	return name
}

func (e *Emitter) freshLambdaName() string {
	e.lambdaCounter++
	return fmt.Sprintf("__truk_lambda_%d", e.lambdaCounter)
}
