package emitc

import (
	"fmt"
	"strings"

	truk "github.com/trukc/truk"
)

// Emitter lowers a topologically-ordered declaration list into C99
// source text, following the phase sequence from spec §4.5:
// COLLECTION, FORWARD_DECLARATION, STRUCT_DEFINITION,
// GENERIC_INSTANTIATION, FUNCTION_DEFINITION, FINALIZATION.
type Emitter struct {
	types    *truk.TypeRegistry
	builtins map[string]truk.BuiltinKind
	space    string

	catalog *typeCatalog
	locals  *truk.SymbolTable

	forwardDecls *outputWriter
	structDefs   *outputWriter
	funcDefs     *outputWriter

	deferStack    [][]truk.Stmt
	lambdaDefs    []string
	lambdaCounter int

	currentReturnType *truk.TypeEntry

	testNames []string
}

func NewEmitter(types *truk.TypeRegistry) *Emitter {
	return &Emitter{
		types:        types,
		builtins:     builtinCatalog,
		space:        "    ",
		catalog:      newTypeCatalog(),
		locals:       truk.NewSymbolTable(),
		forwardDecls: newOutputWriter("    "),
		structDefs:   newOutputWriter("    "),
		funcDefs:     newOutputWriter("    "),
	}
}

var primitiveKeywordNames = map[truk.KeywordID]string{
	truk.KwI8: "i8", truk.KwI16: "i16", truk.KwI32: "i32", truk.KwI64: "i64",
	truk.KwU8: "u8", truk.KwU16: "u16", truk.KwU32: "u32", truk.KwU64: "u64",
	truk.KwF32: "f32", truk.KwF64: "f64", truk.KwBool: "bool", truk.KwVoid: "void",
}

// resolveType mirrors the checker's AST->TypeEntry resolution; it is
// duplicated rather than shared because the checker's is unexported
// and operates over its own scope state the emitter doesn't carry.
func (e *Emitter) resolveType(t truk.Type) *truk.TypeEntry {
	switch n := t.(type) {
	case nil:
		return nil
	case *truk.PrimitiveType:
		name := primitiveKeywordNames[n.Keyword]
		entry, _ := e.types.Lookup(name)
		return entry
	case *truk.NamedType:
		entry, ok := e.types.Lookup(n.Name)
		if !ok {
			return &truk.TypeEntry{Kind: truk.KindStruct, Name: n.Name}
		}
		return entry
	case *truk.PointerType:
		return &truk.TypeEntry{Kind: truk.KindPointer, PointeeType: e.resolveType(n.Pointee)}
	case *truk.ArrayType:
		size := -1
		if lit, ok := n.Size.(*truk.LiteralExpr); ok && lit.Kind == truk.TokenInt {
			size = atoiSimple(lit.Lexeme)
		}
		return &truk.TypeEntry{Kind: truk.KindArray, ArraySize: size, ElementType: e.resolveType(n.Element)}
	case *truk.MapType:
		return &truk.TypeEntry{Kind: truk.KindMap, MapKeyType: e.resolveType(n.Key), MapValueType: e.resolveType(n.Value)}
	case *truk.TupleType:
		var elems []*truk.TypeEntry
		for _, el := range n.Elements {
			elems = append(elems, e.resolveType(el))
		}
		return &truk.TypeEntry{Kind: truk.KindTuple, TupleElements: elems}
	case *truk.FunctionType:
		var params []*truk.TypeEntry
		for _, p := range n.Params {
			params = append(params, e.resolveType(p))
		}
		return &truk.TypeEntry{Kind: truk.KindFunction, ParamTypes: params, ReturnType: e.resolveType(n.Return), Variadic: n.Variadic}
	case *truk.GenericInstantiationType:
		var args []*truk.TypeEntry
		for _, a := range n.Args {
			args = append(args, e.resolveType(a))
		}
		return &truk.TypeEntry{Kind: truk.KindStruct, Name: mangleGenericName(n.BaseName, args)}
	default:
		panic("emitc: resolveType: unhandled type variant")
	}
}

func mangleGenericName(base string, args []*truk.TypeEntry) string {
	var b strings.Builder
	b.WriteString(base)
	for _, a := range args {
		b.WriteString("_")
		b.WriteString(elemTag(a))
	}
	return b.String()
}

func atoiSimple(lexeme string) int {
	n := 0
	for _, r := range lexeme {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// Emit drives the full phase sequence and returns the assembled
// translation unit plus its metadata chunks.
func (e *Emitter) Emit(decls []truk.Decl, opts *truk.CompilerOptions) *Result {
	// COLLECTION: every named type that appears anywhere feeds the
	// slice/map/tuple catalog so FINALIZATION can emit each shape once.
	for _, d := range decls {
		e.collect(d)
	}

	// FORWARD_DECLARATION
	for _, d := range decls {
		if s, ok := d.(*truk.StructDecl); ok {
			e.forwardDecls.writel(fmt.Sprintf("struct %s;", mangle(s.Name)))
		}
	}
	for _, d := range decls {
		if fn, ok := d.(*truk.FnDecl); ok {
			e.forwardDecls.writel(e.functionSignature(fn) + ";")
		}
	}

	// STRUCT_DEFINITION
	for _, d := range decls {
		if s, ok := d.(*truk.StructDecl); ok {
			e.emitStruct(s)
		}
		if en, ok := d.(*truk.EnumDecl); ok {
			e.emitEnum(en)
		}
	}

	// Global var/const declarations are defined into the local-scope
	// table up front so references to them inside function bodies
	// resolve during map/tuple-aware lowering below (inferExprType).
	for _, d := range decls {
		switch n := d.(type) {
		case *truk.VarDecl:
			e.locals.Define(&truk.Symbol{Name: n.Name, Type: e.resolveType(n.Type)})
		case *truk.ConstDecl:
			e.locals.Define(&truk.Symbol{Name: n.Name, Type: e.resolveType(n.Type)})
		}
	}

	// GENERIC_INSTANTIATION has no pass of its own: resolveType's
	// GenericInstantiationType branch mangles each generic use into a
	// concrete name (e.g. Box_i32), but no specialized struct definition
	// is emitted under that name; a generic StructDecl is emitted once,
	// with its type-parameter fields left unsubstituted.

	// FUNCTION_DEFINITION: also detect main (spec §4.5 COLLECTION note:
	// "detect main, count mains"), kept here rather than an earlier
	// pass since a main with no body (an extern declaration) doesn't
	// count as a definition.
	var mainCount int
	var firstMain *truk.FnDecl
	for _, d := range decls {
		if fn, ok := d.(*truk.FnDecl); ok && fn.Body != nil {
			e.emitFunction(fn)
			if fn.IsTest {
				e.testNames = append(e.testNames, fn.Name)
			}
			if fn.Name == "main" {
				mainCount++
				if firstMain == nil {
					firstMain = fn
				}
			}
		}
	}

	return e.finalize(opts, firstMain, mainCount)
}

func (e *Emitter) collect(d truk.Decl) {
	switch n := d.(type) {
	case *truk.StructDecl:
		for _, f := range n.Fields {
			e.catalog.note(e.resolveType(f.Type))
		}
	case *truk.FnDecl:
		for _, p := range n.Params {
			e.catalog.note(e.resolveType(p.Type))
		}
		e.catalog.note(e.resolveType(n.ReturnType))
		if n.Body != nil {
			e.collectStmt(n.Body)
		}
	case *truk.VarDecl:
		e.catalog.note(e.resolveType(n.Type))
	case *truk.ConstDecl:
		e.catalog.note(e.resolveType(n.Type))
	}
}

// collectStmt walks a function body noting every locally declared
// type so slice/map/tuple shapes introduced only inside a body (not
// visible in any signature) still get a typedef during FINALIZATION.
func (e *Emitter) collectStmt(s truk.Stmt) {
	switch n := s.(type) {
	case *truk.BlockStmt:
		for _, st := range n.Stmts {
			e.collectStmt(st)
		}
	case *truk.IfStmt:
		e.collectStmt(n.Then)
		if n.Else != nil {
			e.collectStmt(n.Else)
		}
	case *truk.WhileStmt:
		e.collectStmt(n.Body)
	case *truk.ForStmt:
		if n.Init != nil {
			e.collectStmt(n.Init)
		}
		e.collectStmt(n.Body)
	case *truk.MatchStmt:
		for _, mc := range n.Cases {
			e.collectStmt(mc.Body)
		}
	case *truk.DeferStmt:
		e.collectStmt(n.Code)
	case *truk.DeclStmt:
		if v, ok := n.Decl.(*truk.VarDecl); ok && v.Type != nil {
			e.catalog.note(e.resolveType(v.Type))
		}
		if c, ok := n.Decl.(*truk.ConstDecl); ok && c.Type != nil {
			e.catalog.note(e.resolveType(c.Type))
		}
	}
}

func (e *Emitter) functionSignature(fn *truk.FnDecl) string {
	ret := "__truk_void"
	if fn.ReturnType != nil {
		ret = cName(e.resolveType(fn.ReturnType))
	}
	var params []string
	for _, p := range fn.Params {
		params = append(params, fmt.Sprintf("%s %s", cName(e.resolveType(p.Type)), p.Name))
	}
	if fn.Variadic {
		params = append(params, "...")
	} else if len(params) == 0 {
		params = append(params, "void")
	}
	return fmt.Sprintf("%s %s(%s)", ret, mangle(fn.Name), strings.Join(params, ", "))
}

func (e *Emitter) emitStruct(s *truk.StructDecl) {
	e.structDefs.writel(fmt.Sprintf("struct %s {", mangle(s.Name)))
	e.structDefs.indent()
	for _, f := range s.Fields {
		e.structDefs.writel(fmt.Sprintf("%s %s;", cName(e.resolveType(f.Type)), f.Name))
	}
	e.structDefs.unindent()
	e.structDefs.writel("};")
}

// emitEnum lowers variants to a plain C enum whose members are named
// <enum>_<variant>; no separate integer typedef is emitted.
func (e *Emitter) emitEnum(en *truk.EnumDecl) {
	e.structDefs.writel(fmt.Sprintf("enum %s {", mangle(en.Name)))
	e.structDefs.indent()
	for _, v := range en.Variants {
		if v.Value != nil {
			e.structDefs.writel(fmt.Sprintf("%s_%s = %s,", mangle(en.Name), v.Name, e.lowerExpr(v.Value)))
		} else {
			e.structDefs.writel(fmt.Sprintf("%s_%s,", mangle(en.Name), v.Name))
		}
	}
	e.structDefs.unindent()
	e.structDefs.writel("};")
}

func (e *Emitter) emitFunction(fn *truk.FnDecl) {
	prevReturn := e.currentReturnType
	e.currentReturnType = e.resolveType(fn.ReturnType)
	e.locals.Push()
	for _, p := range fn.Params {
		e.locals.Define(&truk.Symbol{Name: p.Name, Type: e.resolveType(p.Type)})
	}
	e.funcDefs.writel(e.functionSignature(fn) + " {")
	e.funcDefs.indent()
	e.pushDeferFrame()
	for _, st := range fn.Body.Stmts {
		e.lowerStmt(e.funcDefs, st)
	}
	e.flushDefers(e.funcDefs)
	e.popDeferFrame()
	e.funcDefs.unindent()
	e.funcDefs.writel("}")
	e.locals.Pop()
	e.currentReturnType = prevReturn
}

// inferExprType resolves the type of an arbitrary expression well
// enough to branch emission on its Kind (slice vs map indexing, tuple
// vs scalar returns). It mirrors the checker's inferExpr but only as
// far as Kind-level dispatch requires; it is not a substitute for the
// checker's full compatibility rules, which have already run by the
// time the emitter sees this AST.
func (e *Emitter) inferExprType(ex truk.Expr) *truk.TypeEntry {
	switch n := ex.(type) {
	case *truk.IdentExpr:
		if sym, ok := e.locals.Resolve(n.Name); ok {
			return sym.Type
		}
		if entry, ok := e.types.Lookup(n.Name); ok {
			return entry
		}
		return nil
	case *truk.MemberExpr:
		xt := e.inferExprType(n.X)
		if xt == nil || xt.Kind != truk.KindStruct {
			return nil
		}
		return xt.FieldTypes[n.Field]
	case *truk.IndexExpr:
		xt := e.inferExprType(n.X)
		if xt == nil {
			return nil
		}
		switch xt.Kind {
		case truk.KindArray:
			return xt.ElementType
		case truk.KindMap:
			return xt.MapValueType
		case truk.KindPointer:
			return xt.PointeeType
		default:
			return nil
		}
	case *truk.CallExpr:
		id, ok := n.Callee.(*truk.IdentExpr)
		if !ok {
			return nil
		}
		entry, ok := e.types.Lookup(id.Name)
		if !ok {
			return nil
		}
		return entry.ReturnType
	case *truk.CastExpr:
		return e.resolveType(n.Target)
	case *truk.StructLiteralExpr:
		entry, _ := e.types.Lookup(n.Name)
		return entry
	case *truk.EnumValueAccessExpr:
		entry, _ := e.types.Lookup(n.Enum)
		return entry
	case *truk.UnaryExpr:
		return e.inferExprType(n.Operand)
	default:
		return nil
	}
}

// finalize assembles the prelude, synthesized slice/map/tuple
// typedefs, forward declarations, struct bodies and function bodies
// into the final chunked Result (spec §4.5's metadata assembly).
// mainFn/mainCount come from Emit's FUNCTION_DEFINITION sweep.
func (e *Emitter) finalize(opts *truk.CompilerOptions, mainFn *truk.FnDecl, mainCount int) *Result {
	typedefs := newOutputWriter(e.space)
	helpers := newOutputWriter(e.space)
	for _, t := range e.catalog.slices {
		emitSliceTypedef(typedefs, t)
		helpers.write(slicePreludeFor(sliceTypeName(t.ElementType), cName(t.ElementType)))
	}
	for _, t := range e.catalog.maps {
		emitMapTypedef(typedefs, t)
		name := mapTypeName(t.MapKeyType, t.MapValueType)
		keyC := mapKeyCType(t.MapKeyType)
		valC := cName(t.MapValueType)
		hashFn, cmpFn := mapKeyFuncs(t.MapKeyType)
		helpers.write(mapPreludeFor(name, keyC, valC, hashFn, cmpFn))
	}
	for _, t := range e.catalog.tuples {
		emitTupleTypedef(typedefs, t)
	}

	r := &Result{
		Prelude:           prelude,
		Typedefs:          typedefs.String(),
		Helpers:           helpers.String(),
		ForwardDecls:      e.forwardDecls.String(),
		StructDefs:        e.structDefs.String(),
		FuncDefs:          e.funcDefs.String() + strings.Join(e.lambdaDefs, "\n"),
		TestNames:         e.testNames,
		HasMainFunction:   mainCount > 0,
		MainFunctionCount: mainCount,
	}
	if mainCount > 1 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("multiple main functions found (%d); using %q's first occurrence as the entry point", mainCount, mainFn.Name))
	}

	emission := truk.EmitApplication
	libraryHeader := "truk_output"
	if opts != nil {
		emission = opts.Emission
		if opts.LibraryHeader != "" {
			libraryHeader = opts.LibraryHeader
		}
	}

	switch emission {
	case truk.EmitLibrary:
		r.Header = assembleLibraryHeader(libraryHeader, r)
		r.Source = assembleLibrarySource(libraryHeader, r)
	default:
		if mainCount == 0 && !(opts != nil && opts.EmitTestRunner) {
			r.Diagnostics = append(r.Diagnostics, truk.Diagnostic{
				Kind:    truk.ErrEmission,
				Message: "no main function found for an application build",
			})
		}
		r.Source = r.assemble()
		if mainFn != nil {
			r.Source += assembleEntryWrapper(mainFn)
		}
	}
	if opts != nil && opts.EmitTestRunner {
		r.TestRunnerSource = r.assembleTestRunner()
	}
	return r
}
