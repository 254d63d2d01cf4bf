package emitc

import (
	"fmt"
	"strings"

	truk "github.com/trukc/truk"
)

// lowerStmt writes s's C translation into w at the writer's current
// indent level. Defer lowering follows the teacher's gen.go ordering
// convention (accumulate, flush in reverse at every exit point) rather
// than C's own goto/cleanup idiom, since the source language's defer
// is scoped to the enclosing function, not a block.
func (e *Emitter) lowerStmt(w *outputWriter, s truk.Stmt) {
	switch n := s.(type) {
	case *truk.BlockStmt:
		w.writel("{")
		w.indent()
		e.locals.Push()
		for _, st := range n.Stmts {
			e.lowerStmt(w, st)
		}
		e.locals.Pop()
		w.unindent()
		w.writel("}")
	case *truk.IfStmt:
		w.writei(fmt.Sprintf("if (%s) ", e.lowerExpr(n.Cond)))
		e.lowerStmt(w, n.Then)
		if n.Else != nil {
			w.writei("else ")
			e.lowerStmt(w, n.Else)
		} else {
			w.write("\n")
		}
	case *truk.WhileStmt:
		w.writei(fmt.Sprintf("while (%s) ", e.lowerExpr(n.Cond)))
		e.lowerStmt(w, n.Body)
	case *truk.ForStmt:
		init, post := "", ""
		if n.Init != nil {
			init = e.lowerSimpleForClause(n.Init)
		}
		if n.Post != nil {
			post = e.lowerSimpleForClause(n.Post)
		}
		cond := ""
		if n.Cond != nil {
			cond = e.lowerExpr(n.Cond)
		}
		w.writei(fmt.Sprintf("for (%s; %s; %s) ", init, cond, post))
		e.lowerStmt(w, n.Body)
	case *truk.ReturnStmt:
		e.flushDefers(w)
		if len(n.Values) == 0 {
			w.writel("return;")
			return
		}
		if len(n.Values) > 1 && e.currentReturnType != nil && e.currentReturnType.Kind == truk.KindTuple {
			var vals []string
			for _, v := range n.Values {
				vals = append(vals, e.lowerExpr(v))
			}
			w.writel(fmt.Sprintf("return (struct %s){%s};", tupleTypeName(e.currentReturnType.TupleElements), strings.Join(vals, ", ")))
			return
		}
		w.writel(fmt.Sprintf("return %s;", e.lowerExpr(n.Values[0])))
	case *truk.BreakStmt:
		w.writel("break;")
	case *truk.ContinueStmt:
		w.writel("continue;")
	case *truk.DeferStmt:
		e.pushDefer(n.Code)
	case *truk.MatchStmt:
		e.lowerMatch(w, n)
	case *truk.AssignStmt:
		w.writel(e.lowerAssign(n) + ";")
	case *truk.ExprStmt:
		w.writel(e.lowerExpr(n.X) + ";")
	case *truk.DeclStmt:
		e.lowerDeclStmt(w, n)
	default:
		panic("emitc: lowerStmt: unhandled statement variant")
	}
}

// lowerSimpleForClause renders a for-loop init/post clause without its
// trailing semicolon/newline, since those live in the `for (...)` head.
func (e *Emitter) lowerSimpleForClause(s truk.Stmt) string {
	switch n := s.(type) {
	case *truk.AssignStmt:
		return e.lowerAssign(n)
	case *truk.ExprStmt:
		return e.lowerExpr(n.X)
	case *truk.DeclStmt:
		if v, ok := n.Decl.(*truk.VarDecl); ok {
			t := e.resolveType(v.Type)
			e.locals.Define(&truk.Symbol{Name: v.Name, Type: t})
			return fmt.Sprintf("%s %s = %s", cName(t), v.Name, e.lowerExpr(v.Init))
		}
	}
	return ""
}

// lowerAssign renders an assignment without its trailing semicolon so
// both a full statement and a for-loop clause can share it. A plain
// assignment into a map index lowers to __truk_map_set_generic via
// the map's typed wrapper (spec §4.5: "map indexing on the lvalue
// side lowers to __truk_map_set_generic"); everything else keeps the
// straight C assignment-operator form, including slice indexing
// (both directions share the same .data[idx] lvalue).
func (e *Emitter) lowerAssign(n *truk.AssignStmt) string {
	if idx, ok := n.Target.(*truk.IndexExpr); ok && n.Op == truk.TokenAssign {
		if xt := e.inferExprType(idx.X); xt != nil && xt.Kind == truk.KindMap {
			obj := e.lowerExpr(idx.X)
			key := e.lowerMapKey(idx.Index, xt.MapKeyType)
			name := mapTypeName(xt.MapKeyType, xt.MapValueType)
			return fmt.Sprintf("%s_set(&%s, %s, %s)", name, obj, key, e.lowerExpr(n.Value))
		}
	}
	return fmt.Sprintf("%s %s %s", e.lowerExpr(n.Target), assignOp(n.Op), e.lowerExpr(n.Value))
}

func assignOp(t truk.TokenType) string {
	switch t {
	case truk.TokenAssign:
		return "="
	case truk.TokenPlusAssign:
		return "+="
	case truk.TokenMinusAssign:
		return "-="
	case truk.TokenStarAssign:
		return "*="
	case truk.TokenSlashAssign:
		return "/="
	case truk.TokenPercentAssign:
		return "%="
	default:
		panic("emitc: assignOp: unhandled assignment operator")
	}
}

func (e *Emitter) lowerMatch(w *outputWriter, n *truk.MatchStmt) {
	scrutinee := e.lowerExpr(n.Scrutinee)
	w.writei(fmt.Sprintf("switch (%s) {\n", scrutinee))
	w.indent()
	for _, mc := range n.Cases {
		if mc.Pattern == nil {
			w.writel("default: {")
		} else {
			w.writel(fmt.Sprintf("case %s: {", e.lowerExpr(mc.Pattern)))
		}
		w.indent()
		for _, st := range mc.Body.Stmts {
			e.lowerStmt(w, st)
		}
		w.writel("break;")
		w.unindent()
		w.writel("}")
	}
	w.unindent()
	w.writel("}")
}

func (e *Emitter) lowerDeclStmt(w *outputWriter, n *truk.DeclStmt) {
	switch d := n.Decl.(type) {
	case *truk.VarDecl:
		t := e.resolveType(d.Type)
		if d.Init != nil {
			w.writel(fmt.Sprintf("%s %s = %s;", cName(t), d.Name, e.lowerExpr(d.Init)))
		} else {
			w.writel(fmt.Sprintf("%s %s = {0};", cName(t), d.Name))
		}
		e.locals.Define(&truk.Symbol{Name: d.Name, Type: t})
	case *truk.ConstDecl:
		t := e.resolveType(d.Type)
		w.writel(fmt.Sprintf("const %s %s = %s;", cName(t), d.Name, e.lowerExpr(d.Value)))
		e.locals.Define(&truk.Symbol{Name: d.Name, Type: t})
	case *truk.LetDecl:
		w.writel(fmt.Sprintf("__auto_type %s = %s;", d.Name, e.lowerExpr(d.Init)))
		e.locals.Define(&truk.Symbol{Name: d.Name, Type: e.inferExprType(d.Init)})
	default:
		panic("emitc: lowerDeclStmt: unhandled local declaration")
	}
}

// ---- defer bookkeeping ----

func (e *Emitter) pushDeferFrame() { e.deferStack = append(e.deferStack, nil) }

func (e *Emitter) popDeferFrame() { e.deferStack = e.deferStack[:len(e.deferStack)-1] }

func (e *Emitter) pushDefer(s truk.Stmt) {
	top := len(e.deferStack) - 1
	e.deferStack[top] = append(e.deferStack[top], s)
}

// flushDefers emits the current function's deferred statements in
// reverse registration order ahead of a return. The frame is left
// intact, so each of a function's return points gets its own copy.
func (e *Emitter) flushDefers(w *outputWriter) {
	top := len(e.deferStack) - 1
	if top < 0 {
		return
	}
	frame := e.deferStack[top]
	for i := len(frame) - 1; i >= 0; i-- {
		e.lowerStmt(w, frame[i])
	}
}
