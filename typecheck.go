package truk

import "strings"

// Checker implements spec §4.4: scoped symbol/type environment,
// expression typing, assignment/coercion rules, control-flow
// validation. It never panics on user input; programmer-error paths
// (an AST variant unhandled in a switch) panic, matching ast.go's
// exhaustiveness contract.
type Checker struct {
	types    *TypeRegistry
	symbols  *SymbolTable
	declFile map[Decl]string
	reporter *Reporter

	currentReturn *TypeEntry
	inLoop        bool

	exprTypes map[Expr]*TypeEntry
}

func NewChecker(declFile map[Decl]string) *Checker {
	return &Checker{
		types:     NewTypeRegistry(),
		symbols:   NewSymbolTable(),
		declFile:  declFile,
		reporter:  NewReporter(),
		exprTypes: map[Expr]*TypeEntry{},
	}
}

// Check runs the two-pass registration plus body-checking sweep over
// decls (already topologically ordered by the resolver, though the
// checker does not depend on that order thanks to the two passes).
func (c *Checker) Check(decls []Decl) *Reporter {
	c.registerTypes(decls)
	c.registerGlobals(decls)
	for _, d := range decls {
		c.checkBody(d)
	}
	return c.reporter
}

// Types exposes the registry the checker populated, for the emitter
// to resolve the same struct/function/enum entries against.
func (c *Checker) Types() *TypeRegistry { return c.types }

func (c *Checker) errorf(span Span, file string, format string, args ...any) {
	c.reporter.Reportf(ErrTypeCheck, span, file, format, args...)
}

// ---- Registration (pass 1: names before bodies) ----

func (c *Checker) registerTypes(decls []Decl) {
	for _, d := range decls {
		if s, ok := d.(*StructDecl); ok {
			c.types.Define(s.Name, &TypeEntry{Kind: KindStruct, Name: s.Name, FieldTypes: map[string]*TypeEntry{}})
		}
		if e, ok := d.(*EnumDecl); ok {
			backing := c.resolveType(e.BackingType)
			if backing == nil {
				backing, _ = c.types.Lookup("i32")
			}
			c.types.Define(e.Name, &TypeEntry{Kind: KindStruct, Name: e.Name, FieldTypes: map[string]*TypeEntry{}})
			_ = backing
		}
	}
	for _, d := range decls {
		if s, ok := d.(*StructDecl); ok {
			entry, _ := c.types.Lookup(s.Name)
			for _, f := range s.Fields {
				entry.FieldNames = append(entry.FieldNames, f.Name)
				entry.FieldTypes[f.Name] = c.resolveType(f.Type)
			}
		}
	}
	for _, d := range decls {
		if fn, ok := d.(*FnDecl); ok {
			var params []*TypeEntry
			for _, p := range fn.Params {
				params = append(params, c.resolveType(p.Type))
			}
			ret := c.resolveType(fn.ReturnType)
			if ret == nil {
				ret, _ = c.types.Lookup("void")
			}
			c.types.Define(fn.Name, &TypeEntry{Kind: KindFunction, Name: fn.Name, ParamTypes: params, ReturnType: ret, Variadic: fn.Variadic})
		}
	}
}

func (c *Checker) registerGlobals(decls []Decl) {
	for _, d := range decls {
		switch n := d.(type) {
		case *VarDecl:
			c.checkVarDecl(n, c.declFile[d])
		case *ConstDecl:
			c.checkConstDecl(n, c.declFile[d])
		case *LetDecl:
			t := c.inferExpr(n.Init, c.declFile[d])
			c.symbols.Define(&Symbol{Name: n.Name, Type: concretize(t, c.types), Mutable: false, DeclarationSpan: n.Span()})
		}
	}
}

// ---- Body checking (pass 2) ----

func (c *Checker) checkBody(d Decl) {
	file := c.declFile[d]
	switch n := d.(type) {
	case *FnDecl:
		if n.Body == nil {
			return
		}
		entry, _ := c.types.Lookup(n.Name)
		c.symbols.Push()
		for i, p := range n.Params {
			c.symbols.Define(&Symbol{Name: p.Name, Type: entry.ParamTypes[i], Mutable: true, DeclarationSpan: p.Span()})
		}
		prevReturn := c.currentReturn
		c.currentReturn = entry.ReturnType
		c.checkBlock(n.Body, file)
		if entry.ReturnType != nil && entry.ReturnType.Kind != KindVoid && !stmtAlwaysReturns(n.Body) {
			c.errorf(n.Span(), file, "function %q must return %s on every path", n.Name, entry.ReturnType)
		}
		c.currentReturn = prevReturn
		c.symbols.Pop()
	case *ShardDecl:
		for _, inner := range n.Decls {
			c.checkBody(inner)
		}
	}
}

func (c *Checker) checkBlock(b *BlockStmt, file string) {
	c.symbols.Push()
	for _, s := range b.Stmts {
		c.checkStmt(s, file)
	}
	c.symbols.Pop()
}

func (c *Checker) checkStmt(s Stmt, file string) {
	switch n := s.(type) {
	case *BlockStmt:
		c.checkBlock(n, file)
	case *IfStmt:
		cond := c.inferExpr(n.Cond, file)
		c.requireBool(cond, n.Cond.Span(), file)
		c.checkBlock(n.Then, file)
		if n.Else != nil {
			c.checkStmt(n.Else, file)
		}
	case *WhileStmt:
		cond := c.inferExpr(n.Cond, file)
		c.requireBool(cond, n.Cond.Span(), file)
		prevLoop := c.inLoop
		c.inLoop = true
		c.checkBlock(n.Body, file)
		c.inLoop = prevLoop
	case *ForStmt:
		c.symbols.Push()
		if n.Init != nil {
			c.checkStmt(n.Init, file)
		}
		if n.Cond != nil {
			cond := c.inferExpr(n.Cond, file)
			c.requireBool(cond, n.Cond.Span(), file)
		}
		if n.Post != nil {
			c.checkStmt(n.Post, file)
		}
		prevLoop := c.inLoop
		c.inLoop = true
		c.checkBlock(n.Body, file)
		c.inLoop = prevLoop
		c.symbols.Pop()
	case *ReturnStmt:
		c.checkReturn(n, file)
	case *BreakStmt:
		if !c.inLoop {
			c.errorf(n.Span(), file, "break outside of a loop")
		}
	case *ContinueStmt:
		if !c.inLoop {
			c.errorf(n.Span(), file, "continue outside of a loop")
		}
	case *DeferStmt:
		c.checkStmt(n.Code, file)
	case *MatchStmt:
		c.inferExpr(n.Scrutinee, file)
		for _, mc := range n.Cases {
			if mc.Pattern != nil {
				c.inferExpr(mc.Pattern, file)
			}
			c.checkBlock(mc.Body, file)
		}
	case *AssignStmt:
		c.checkAssign(n, file)
	case *ExprStmt:
		c.inferExpr(n.X, file)
	case *DeclStmt:
		switch inner := n.Decl.(type) {
		case *VarDecl:
			c.checkVarDecl(inner, file)
		case *ConstDecl:
			c.checkConstDecl(inner, file)
		case *LetDecl:
			t := c.inferExpr(inner.Init, file)
			c.symbols.Define(&Symbol{Name: inner.Name, Type: concretize(t, c.types), Mutable: false, DeclarationSpan: inner.Span()})
		}
	default:
		panic("truk: checkStmt: unhandled statement variant")
	}
}

func (c *Checker) checkReturn(n *ReturnStmt, file string) {
	if len(n.Values) == 0 {
		if c.currentReturn != nil && c.currentReturn.Kind != KindVoid {
			c.errorf(n.Span(), file, "bare return in function returning %s", c.currentReturn)
		}
		return
	}
	if c.currentReturn == nil || c.currentReturn.Kind == KindVoid {
		c.errorf(n.Span(), file, "return with value in void function")
		return
	}
	if c.currentReturn.Kind == KindTuple {
		if len(n.Values) != len(c.currentReturn.TupleElements) {
			c.errorf(n.Span(), file, "returning %d value(s) from a function returning %d", len(n.Values), len(c.currentReturn.TupleElements))
			return
		}
		for i, v := range n.Values {
			t := c.inferExpr(v, file)
			want := c.currentReturn.TupleElements[i]
			if !c.compatible(t, want) {
				c.errorf(v.Span(), file, "cannot return %s as %s", t, want)
			}
		}
		return
	}
	for _, v := range n.Values {
		t := c.inferExpr(v, file)
		if !c.compatible(t, c.currentReturn) {
			c.errorf(v.Span(), file, "cannot return %s as %s", t, c.currentReturn)
		}
	}
}

func (c *Checker) checkVarDecl(n *VarDecl, file string) {
	var declared *TypeEntry
	if n.Type != nil {
		declared = c.resolveType(n.Type)
	}
	if n.Init != nil {
		initType := c.inferExpr(n.Init, file)
		if declared == nil {
			declared = concretize(initType, c.types)
		} else if !c.compatible(initType, declared) {
			c.errorf(n.Init.Span(), file, "cannot assign %s to %s %q", initType, declared, n.Name)
		}
	}
	c.symbols.Define(&Symbol{Name: n.Name, Type: declared, Mutable: n.Mutable, DeclarationSpan: n.Span()})
}

func (c *Checker) checkConstDecl(n *ConstDecl, file string) {
	declared := c.resolveType(n.Type)
	valType := c.inferExpr(n.Value, file)
	if declared == nil {
		declared = concretize(valType, c.types)
	} else if !c.compatible(valType, declared) {
		c.errorf(n.Value.Span(), file, "cannot assign %s to const %s %q", valType, declared, n.Name)
	}
	c.symbols.Define(&Symbol{Name: n.Name, Type: declared, Mutable: false, DeclarationSpan: n.Span()})
}

func (c *Checker) checkAssign(n *AssignStmt, file string) {
	if !isPlace(n.Target) {
		c.errorf(n.Target.Span(), file, "invalid assignment target")
	}
	if ident, ok := n.Target.(*IdentExpr); ok {
		if sym, ok := c.symbols.Resolve(ident.Name); ok && !sym.Mutable {
			c.errorf(n.Span(), file, "cannot assign to non-mutable %q", ident.Name)
		}
	}
	targetType := c.inferExpr(n.Target, file)
	// a map index reads as a pointer to the value, but is assigned a value
	if idx, ok := n.Target.(*IndexExpr); ok {
		if xt := c.inferExpr(idx.X, file); xt != nil && xt.Kind == KindMap {
			targetType = xt.MapValueType
		}
	}
	valueType := c.inferExpr(n.Value, file)
	if !c.compatible(valueType, targetType) {
		c.errorf(n.Span(), file, "cannot assign %s to %s", valueType, targetType)
	}
}

func isPlace(e Expr) bool {
	switch e.(type) {
	case *IdentExpr, *IndexExpr, *MemberExpr:
		return true
	default:
		return false
	}
}

// ---- Expression typing ----

func (c *Checker) inferExpr(e Expr, file string) *TypeEntry {
	if e == nil {
		return nil
	}
	if t, ok := c.exprTypes[e]; ok {
		return t
	}
	t := c.inferExprUncached(e, file)
	c.exprTypes[e] = t
	return t
}

func (c *Checker) inferExprUncached(e Expr, file string) *TypeEntry {
	switch n := e.(type) {
	case *LiteralExpr:
		return c.inferLiteral(n)
	case *IdentExpr:
		if sym, ok := c.symbols.Resolve(n.Name); ok {
			return sym.Type
		}
		if entry, ok := c.types.Lookup(n.Name); ok {
			return entry
		}
		c.errorf(n.Span(), file, "undefined identifier %q", n.Name)
		return nil
	case *BinaryExpr:
		return c.inferBinary(n, file)
	case *UnaryExpr:
		return c.inferUnary(n, file)
	case *CastExpr:
		c.inferExpr(n.X, file)
		return c.resolveType(n.Target)
	case *CallExpr:
		return c.inferCall(n, file)
	case *IndexExpr:
		return c.inferIndex(n, file)
	case *MemberExpr:
		return c.inferMember(n, file)
	case *ArrayLiteralExpr:
		return c.inferArrayLiteral(n, file)
	case *StructLiteralExpr:
		return c.inferStructLiteral(n, file)
	case *LambdaExpr:
		return c.inferLambda(n, file)
	case *TypeParamExpr:
		return c.resolveType(n.Type)
	case *EnumValueAccessExpr:
		entry, _ := c.types.Lookup(n.Enum)
		return entry
	default:
		panic("truk: inferExpr: unhandled expression variant")
	}
}

func (c *Checker) inferLiteral(n *LiteralExpr) *TypeEntry {
	switch n.Kind {
	case TokenInt:
		return &TypeEntry{Kind: KindUntypedInteger, Name: "untyped-integer"}
	case TokenFloat:
		return &TypeEntry{Kind: KindUntypedFloat, Name: "untyped-float"}
	case TokenString:
		u8, _ := c.types.Lookup("u8")
		return &TypeEntry{Kind: KindPointer, PointeeType: u8}
	case TokenChar:
		u8, _ := c.types.Lookup("u8")
		return u8
	case TokenKeyword:
		switch n.Lexeme {
		case "true", "false":
			b, _ := c.types.Lookup("bool")
			return b
		case "nil":
			return &TypeEntry{Kind: KindPointer, PointeeType: nil, Name: "nil"}
		}
	}
	panic("truk: inferLiteral: unhandled literal kind")
}

func (c *Checker) inferUnary(n *UnaryExpr, file string) *TypeEntry {
	operand := c.inferExpr(n.Operand, file)
	switch n.Op {
	case TokenMinus:
		if !isNumeric(operand) {
			c.errorf(n.Span(), file, "unary - requires a numeric operand, got %s", operand)
		}
		return operand
	case TokenNot:
		c.requireBool(operand, n.Operand.Span(), file)
		return operand
	case TokenTilde:
		if !isInteger(operand) {
			c.errorf(n.Span(), file, "unary ~ requires an integer operand, got %s", operand)
		}
		return operand
	case TokenAmp:
		if !isPlace(n.Operand) {
			c.errorf(n.Span(), file, "& requires a memory place")
		}
		return &TypeEntry{Kind: KindPointer, PointeeType: operand}
	case TokenStar:
		if operand == nil || operand.Kind != KindPointer {
			c.errorf(n.Span(), file, "* requires a pointer operand, got %s", operand)
			return nil
		}
		return operand.PointeeType
	default:
		panic("truk: inferUnary: unhandled operator")
	}
}

func (c *Checker) inferBinary(n *BinaryExpr, file string) *TypeEntry {
	lhs := c.inferExpr(n.LHS, file)
	rhs := c.inferExpr(n.RHS, file)
	switch n.Op {
	case TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent:
		if !isNumeric(lhs) || !isNumeric(rhs) {
			c.errorf(n.Span(), file, "arithmetic operator requires numeric operands, got %s and %s", lhs, rhs)
		}
		return widerNumeric(lhs, rhs)
	case TokenEq, TokenNotEq, TokenLt, TokenLtEq, TokenGt, TokenGtEq:
		if !c.compatible(lhs, rhs) && !c.compatible(rhs, lhs) {
			c.errorf(n.Span(), file, "cannot compare %s and %s", lhs, rhs)
		}
		b, _ := c.types.Lookup("bool")
		return b
	case TokenAnd, TokenOr:
		c.requireBool(lhs, n.LHS.Span(), file)
		c.requireBool(rhs, n.RHS.Span(), file)
		b, _ := c.types.Lookup("bool")
		return b
	case TokenAmp, TokenPipe, TokenCaret, TokenShl, TokenShr:
		if !isInteger(lhs) || !isInteger(rhs) {
			c.errorf(n.Span(), file, "bitwise operator requires integer operands, got %s and %s", lhs, rhs)
		}
		return widerNumeric(lhs, rhs)
	default:
		panic("truk: inferBinary: unhandled operator")
	}
}

func (c *Checker) inferCall(n *CallExpr, file string) *TypeEntry {
	calleeName, isIdent := "", false
	if id, ok := n.Callee.(*IdentExpr); ok {
		calleeName, isIdent = id.Name, true
	}
	callee := c.inferExpr(n.Callee, file)
	if callee == nil || callee.Kind != KindFunction {
		c.errorf(n.Span(), file, "cannot call non-function")
		return nil
	}
	if isIdent && callee.IsBuiltin {
		return c.checkBuiltinCall(calleeName, callee, n, file)
	}
	if !callee.Variadic && len(n.Args) != len(callee.ParamTypes) {
		c.errorf(n.Span(), file, "expected %d arguments, got %d", len(callee.ParamTypes), len(n.Args))
	} else if callee.Variadic && len(n.Args) < len(callee.ParamTypes) {
		c.errorf(n.Span(), file, "expected at least %d arguments, got %d", len(callee.ParamTypes), len(n.Args))
	}
	for i, a := range n.Args {
		at := c.inferExpr(a, file)
		if i < len(callee.ParamTypes) && !c.compatible(at, callee.ParamTypes[i]) {
			c.errorf(a.Span(), file, "argument %d: cannot use %s as %s", i+1, at, callee.ParamTypes[i])
		}
	}
	return callee.ReturnType
}

// checkBuiltinCall inspects the first argument for the `@type`
// wrapper, per spec §4.4's builtin-call dispatch note.
func (c *Checker) checkBuiltinCall(name string, callee *TypeEntry, n *CallExpr, file string) *TypeEntry {
	switch callee.BuiltinKind {
	case BuiltinMake:
		if len(n.Args) == 0 {
			c.errorf(n.Span(), file, "make requires a @type argument")
			return nil
		}
		tp, ok := n.Args[0].(*TypeParamExpr)
		if !ok {
			c.errorf(n.Args[0].Span(), file, "make's first argument must be @type")
			return nil
		}
		target := c.resolveType(tp.Type)
		for _, a := range n.Args[1:] {
			c.inferExpr(a, file)
		}
		if target != nil && target.Kind == KindMap {
			return target
		}
		return &TypeEntry{Kind: KindArray, ArraySize: -1, ElementType: target}
	case BuiltinDelete, BuiltinPanic:
		for _, a := range n.Args {
			c.inferExpr(a, file)
		}
		return callee.ReturnType
	case BuiltinLen, BuiltinSizeof:
		for _, a := range n.Args {
			c.inferExpr(a, file)
		}
		return callee.ReturnType
	case BuiltinEach:
		for _, a := range n.Args {
			c.inferExpr(a, file)
		}
		return callee.ReturnType
	default:
		return callee.ReturnType
	}
}

func (c *Checker) inferIndex(n *IndexExpr, file string) *TypeEntry {
	objType := c.inferExpr(n.X, file)
	idxType := c.inferExpr(n.Index, file)
	if objType == nil {
		return nil
	}
	switch objType.Kind {
	case KindArray:
		if !isInteger(idxType) {
			c.errorf(n.Index.Span(), file, "array index must be an integer, got %s", idxType)
		}
		return objType.ElementType
	case KindMap:
		if !mapKeyCompatible(objType.MapKeyType, idxType) {
			c.errorf(n.Index.Span(), file, "map key type mismatch: want %s, got %s", objType.MapKeyType, idxType)
		}
		return &TypeEntry{Kind: KindPointer, PointeeType: objType.MapValueType}
	default:
		c.errorf(n.X.Span(), file, "cannot index into %s", objType)
		return nil
	}
}

func (c *Checker) inferMember(n *MemberExpr, file string) *TypeEntry {
	objType := c.inferExpr(n.X, file)
	if objType == nil {
		return nil
	}
	structType := objType
	if structType.Kind == KindPointer {
		structType = structType.PointeeType
	}
	if structType == nil || structType.Kind != KindStruct {
		c.errorf(n.X.Span(), file, "member access on non-struct %s", objType)
		return nil
	}
	ft, ok := structType.FieldTypes[n.Field]
	if !ok {
		c.errorf(n.Span(), file, "struct %q has no field %q", structType.Name, n.Field)
		return nil
	}
	return ft
}

func (c *Checker) inferArrayLiteral(n *ArrayLiteralExpr, file string) *TypeEntry {
	if len(n.Elements) == 0 {
		return &TypeEntry{Kind: KindArray, ArraySize: 0, ElementType: nil}
	}
	first := concretize(c.inferExpr(n.Elements[0], file), c.types)
	for _, el := range n.Elements[1:] {
		t := c.inferExpr(el, file)
		if !c.compatible(t, first) {
			c.errorf(el.Span(), file, "array literal element type mismatch: want %s, got %s", first, t)
		}
	}
	return &TypeEntry{Kind: KindArray, ArraySize: len(n.Elements), ElementType: first}
}

func (c *Checker) inferStructLiteral(n *StructLiteralExpr, file string) *TypeEntry {
	entry, ok := c.types.Lookup(n.Name)
	if !ok || entry.Kind != KindStruct {
		c.errorf(n.Span(), file, "%q is not a struct type", n.Name)
		return nil
	}
	for _, f := range n.Fields {
		ft, ok := entry.FieldTypes[f.Name]
		if !ok {
			c.errorf(f.Span(), file, "struct %q has no field %q", n.Name, f.Name)
			continue
		}
		vt := c.inferExpr(f.Value, file)
		if !c.compatible(vt, ft) {
			c.errorf(f.Value.Span(), file, "field %q: cannot assign %s to %s", f.Name, vt, ft)
		}
	}
	return entry
}

func (c *Checker) inferLambda(n *LambdaExpr, file string) *TypeEntry {
	var params []*TypeEntry
	c.symbols.Push()
	for _, p := range n.Params {
		pt := c.resolveType(p.Type)
		params = append(params, pt)
		c.symbols.Define(&Symbol{Name: p.Name, Type: pt, Mutable: true, DeclarationSpan: p.Span()})
	}
	ret := c.resolveType(n.ReturnType)
	if ret == nil {
		ret, _ = c.types.Lookup("void")
	}
	prevReturn := c.currentReturn
	c.currentReturn = ret
	c.checkBlock(n.Body, file)
	c.currentReturn = prevReturn
	c.symbols.Pop()
	return &TypeEntry{Kind: KindFunction, ParamTypes: params, ReturnType: ret}
}

// ---- Type resolution & compatibility ----

func (c *Checker) resolveType(t Type) *TypeEntry {
	switch n := t.(type) {
	case nil:
		return nil
	case *PrimitiveType:
		name := primitiveNames[n.Keyword]
		e, _ := c.types.Lookup(name)
		return e
	case *NamedType:
		e, ok := c.types.Lookup(n.Name)
		if !ok {
			return &TypeEntry{Kind: KindStruct, Name: n.Name, FieldTypes: map[string]*TypeEntry{}}
		}
		return e
	case *PointerType:
		return &TypeEntry{Kind: KindPointer, PointeeType: c.resolveType(n.Pointee)}
	case *ArrayType:
		size := -1
		if lit, ok := n.Size.(*LiteralExpr); ok && lit.Kind == TokenInt {
			size = parseIntLiteral(lit.Lexeme)
		}
		return &TypeEntry{Kind: KindArray, ArraySize: size, ElementType: c.resolveType(n.Element)}
	case *FunctionType:
		var params []*TypeEntry
		for _, p := range n.Params {
			params = append(params, c.resolveType(p))
		}
		return &TypeEntry{Kind: KindFunction, ParamTypes: params, ReturnType: c.resolveType(n.Return), Variadic: n.Variadic}
	case *MapType:
		return &TypeEntry{Kind: KindMap, MapKeyType: c.resolveType(n.Key), MapValueType: c.resolveType(n.Value)}
	case *TupleType:
		var elems []*TypeEntry
		for _, e := range n.Elements {
			elems = append(elems, c.resolveType(e))
		}
		return &TypeEntry{Kind: KindTuple, TupleElements: elems}
	case *GenericInstantiationType:
		var args []*TypeEntry
		for _, a := range n.Args {
			args = append(args, c.resolveType(a))
		}
		return &TypeEntry{Kind: KindStruct, Name: mangleGeneric(n.BaseName, args), FieldTypes: map[string]*TypeEntry{}}
	default:
		panic("truk: resolveType: unhandled type variant")
	}
}

func mangleGeneric(base string, args []*TypeEntry) string {
	var sb strings.Builder
	sb.WriteString(base)
	for _, a := range args {
		sb.WriteString("_")
		sb.WriteString(mangleType(a))
	}
	return sb.String()
}

func mangleType(t *TypeEntry) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case KindPointer:
		return "ptr_" + mangleType(t.PointeeType)
	case KindArray:
		if t.ArraySize < 0 {
			return "slice_" + mangleType(t.ElementType)
		}
		return "arr" + itoa(t.ArraySize) + "_" + mangleType(t.ElementType)
	default:
		return t.Name
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func parseIntLiteral(lexeme string) int {
	n := 0
	for _, r := range lexeme {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func isNumeric(t *TypeEntry) bool {
	if t == nil {
		return false
	}
	if t.Kind == KindUntypedInteger || t.Kind == KindUntypedFloat {
		return true
	}
	switch t.Name {
	case "i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64", "f32", "f64":
		return true
	}
	return false
}

func isInteger(t *TypeEntry) bool {
	if t == nil {
		return false
	}
	if t.Kind == KindUntypedInteger {
		return true
	}
	switch t.Name {
	case "i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64":
		return true
	}
	return false
}

func widerNumeric(a, b *TypeEntry) *TypeEntry {
	if a != nil && a.Kind != KindUntypedInteger && a.Kind != KindUntypedFloat {
		return a
	}
	return b
}

func (c *Checker) requireBool(t *TypeEntry, span Span, file string) {
	if t == nil || t.Name != "bool" {
		c.errorf(span, file, "condition must be bool, got %s", t)
	}
}

// concretize resolves an untyped literal type to a default concrete
// type (i32 / f64) when no declared type is present to coerce toward.
func concretize(t *TypeEntry, reg *TypeRegistry) *TypeEntry {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case KindUntypedInteger:
		e, _ := reg.Lookup("i32")
		return e
	case KindUntypedFloat:
		e, _ := reg.Lookup("f64")
		return e
	default:
		return t
	}
}

// compatible implements spec §4.4's assignment/coercion rule.
func (c *Checker) compatible(from, to *TypeEntry) bool {
	if from == nil || to == nil {
		return true // unresolved upstream error; don't cascade
	}
	if from.Kind == KindUntypedInteger && isNumeric(to) {
		return true
	}
	if from.Kind == KindUntypedFloat && (to.Name == "f32" || to.Name == "f64") {
		return true
	}
	if from.Name == "nil" && to.Kind == KindPointer {
		return true
	}
	if to.Name == "nil" && from.Kind == KindPointer {
		return true
	}
	if from.Kind == KindPointer && to.Kind == KindPointer {
		if from.PointeeType != nil && from.PointeeType.Name == "void" {
			return true
		}
		if to.PointeeType != nil && to.PointeeType.Name == "void" {
			return true
		}
		return c.compatible(from.PointeeType, to.PointeeType)
	}
	if from.Kind != to.Kind {
		return false
	}
	switch from.Kind {
	case KindPrimitive, KindVoid, KindStruct:
		return from.Name == to.Name
	case KindArray:
		if from.ArraySize >= 0 && to.ArraySize >= 0 && from.ArraySize != to.ArraySize {
			return false
		}
		return c.compatible(from.ElementType, to.ElementType)
	case KindMap:
		return c.compatible(from.MapKeyType, to.MapKeyType) && c.compatible(from.MapValueType, to.MapValueType)
	case KindTuple:
		if len(from.TupleElements) != len(to.TupleElements) {
			return false
		}
		for i := range from.TupleElements {
			if !c.compatible(from.TupleElements[i], to.TupleElements[i]) {
				return false
			}
		}
		return true
	case KindFunction:
		return true
	default:
		return false
	}
}

// mapKeyCompatible implements spec §4.4's restricted map-key rule:
// pointer-to-u8/i8, string literal (typed as pointer-to-u8), or
// slice-of-u8 are the only accepted key shapes.
func mapKeyCompatible(declared, actual *TypeEntry) bool {
	if declared == nil || actual == nil {
		return true
	}
	if actual.Kind == KindArray && actual.ArraySize < 0 && actual.ElementType != nil && actual.ElementType.Name == "u8" {
		return declared.Kind == KindPointer
	}
	if actual.Kind == KindPointer && declared.Kind == KindPointer {
		return isByteType(actual.PointeeType) && isByteType(declared.PointeeType)
	}
	return false
}

func isByteType(t *TypeEntry) bool {
	return t != nil && (t.Name == "u8" || t.Name == "i8")
}

// stmtAlwaysReturns is the control-flow checker invoked by the type
// checker on function bodies (spec §4.4's sub-visitor).
func stmtAlwaysReturns(s Stmt) bool {
	switch n := s.(type) {
	case *ReturnStmt:
		return true
	case *BlockStmt:
		for _, st := range n.Stmts {
			if stmtAlwaysReturns(st) {
				return true
			}
		}
		return false
	case *IfStmt:
		if n.Else == nil {
			return false
		}
		return stmtAlwaysReturns(n.Then) && stmtAlwaysReturns(n.Else)
	case *MatchStmt:
		hasDefault := false
		allReturn := len(n.Cases) > 0
		for _, mc := range n.Cases {
			if mc.Pattern == nil {
				hasDefault = true
			}
			if !stmtAlwaysReturns(mc.Body) {
				allReturn = false
			}
		}
		return hasDefault && allReturn
	default:
		return false
	}
}
