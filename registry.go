package truk

import "fmt"

// TypeKind is the closed set of type-registry entry kinds (spec §3's
// Type registry entry).
type TypeKind int

const (
	KindPrimitive TypeKind = iota
	KindStruct
	KindFunction
	KindPointer
	KindArray
	KindMap
	KindTuple
	KindVoid
	KindUntypedInteger
	KindUntypedFloat
)

func (k TypeKind) String() string {
	names := [...]string{"primitive", "struct", "function", "pointer", "array", "map", "tuple", "void", "untyped-integer", "untyped-float"}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// BuiltinKind tags an intrinsic function's dispatch identity so the
// emitter selects code generation by tag, not by textual name
// (spec's builtin-dispatch invariant).
type BuiltinKind int

const (
	BuiltinNone BuiltinKind = iota
	BuiltinMake
	BuiltinDelete
	BuiltinLen
	BuiltinSizeof
	BuiltinPanic
	BuiltinEach
	BuiltinVaArgI32
	BuiltinVaArgI64
	BuiltinVaArgF64
	BuiltinVaArgPtr
)

// TypeEntry is a resolved, deeply clonable type-registry record.
type TypeEntry struct {
	Kind TypeKind
	Name string

	PointerDepth   int
	ArraySize      int // -1 => unsized (slice)
	PointeeType    *TypeEntry
	ElementType    *TypeEntry
	MapKeyType     *TypeEntry
	MapValueType   *TypeEntry
	TupleElements  []*TypeEntry
	FieldNames     []string
	FieldTypes     map[string]*TypeEntry
	ParamTypes     []*TypeEntry
	ReturnType     *TypeEntry
	Variadic       bool

	IsBuiltin   bool
	BuiltinKind BuiltinKind
}

func (t *TypeEntry) Clone() *TypeEntry {
	if t == nil {
		return nil
	}
	c := *t
	c.FieldTypes = make(map[string]*TypeEntry, len(t.FieldTypes))
	for k, v := range t.FieldTypes {
		c.FieldTypes[k] = v.Clone()
	}
	c.ParamTypes = nil
	for _, p := range t.ParamTypes {
		c.ParamTypes = append(c.ParamTypes, p.Clone())
	}
	c.TupleElements = nil
	for _, e := range t.TupleElements {
		c.TupleElements = append(c.TupleElements, e.Clone())
	}
	c.PointeeType = t.PointeeType.Clone()
	c.ElementType = t.ElementType.Clone()
	c.MapKeyType = t.MapKeyType.Clone()
	c.MapValueType = t.MapValueType.Clone()
	c.ReturnType = t.ReturnType.Clone()
	return &c
}

func (t *TypeEntry) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPrimitive, KindStruct, KindVoid, KindUntypedInteger, KindUntypedFloat:
		return t.Name
	case KindPointer:
		return "*" + t.PointeeType.String()
	case KindArray:
		if t.ArraySize < 0 {
			return "[]" + t.ElementType.String()
		}
		return fmt.Sprintf("[%d]%s", t.ArraySize, t.ElementType.String())
	case KindMap:
		return fmt.Sprintf("map[%s,%s]", t.MapKeyType.String(), t.MapValueType.String())
	case KindTuple:
		return "tuple"
	case KindFunction:
		return "fn(...)"
	default:
		return "<?>"
	}
}

// TypeRegistry is consulted by both the checker and the emitter
// (spec §4.4, §4.5, component 7).
type TypeRegistry struct {
	entries map[string]*TypeEntry
}

func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{entries: map[string]*TypeEntry{}}
	r.registerPrimitives()
	r.registerBuiltins()
	return r
}

var primitiveNames = map[KeywordID]string{
	KwI8: "i8", KwI16: "i16", KwI32: "i32", KwI64: "i64",
	KwU8: "u8", KwU16: "u16", KwU32: "u32", KwU64: "u64",
	KwF32: "f32", KwF64: "f64", KwBool: "bool", KwVoid: "void",
}

func (r *TypeRegistry) registerPrimitives() {
	for kw, name := range primitiveNames {
		kind := KindPrimitive
		if kw == KwVoid {
			kind = KindVoid
		}
		r.entries[name] = &TypeEntry{Kind: kind, Name: name}
	}
}

func (r *TypeRegistry) registerBuiltins() {
	u8ptr := &TypeEntry{Kind: KindPointer, PointeeType: r.entries["u8"]}
	voidType := r.entries["void"]
	i32 := r.entries["i32"]
	builtins := []struct {
		name string
		kind BuiltinKind
		ret  *TypeEntry
	}{
		{"make", BuiltinMake, voidType}, // actual return resolved per call site by the checker
		{"delete", BuiltinDelete, voidType},
		{"len", BuiltinLen, r.entries["u64"]},
		{"sizeof", BuiltinSizeof, r.entries["u64"]},
		{"panic", BuiltinPanic, voidType},
		{"each", BuiltinEach, voidType},
		{"va_arg_i32", BuiltinVaArgI32, i32},
		{"va_arg_i64", BuiltinVaArgI64, r.entries["i64"]},
		{"va_arg_f64", BuiltinVaArgF64, r.entries["f64"]},
		{"va_arg_ptr", BuiltinVaArgPtr, u8ptr},
	}
	for _, b := range builtins {
		r.entries[b.name] = &TypeEntry{
			Kind: KindFunction, Name: b.name, ReturnType: b.ret,
			IsBuiltin: true, BuiltinKind: b.kind, Variadic: true,
		}
	}
}

func (r *TypeRegistry) Lookup(name string) (*TypeEntry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

func (r *TypeRegistry) Define(name string, entry *TypeEntry) {
	r.entries[name] = entry
}

// Symbol is the spec §3 Symbol entry.
type Symbol struct {
	Name               string
	Type               *TypeEntry
	Mutable            bool
	DeclarationSpan    Span
}

// Scope is one level of the checker's lexical scope stack (spec
// §4.4's "stack of scopes").
type Scope struct {
	symbols map[string]*Symbol
	parent  *Scope
}

func newScope(parent *Scope) *Scope {
	return &Scope{symbols: map[string]*Symbol{}, parent: parent}
}

func (s *Scope) define(sym *Symbol) { s.symbols[sym.Name] = sym }

func (s *Scope) resolve(name string) (*Symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// SymbolTable is the checker's stack of scopes, innermost last.
type SymbolTable struct {
	top *Scope
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{top: newScope(nil)}
}

func (st *SymbolTable) Push() { st.top = newScope(st.top) }

func (st *SymbolTable) Pop() {
	if st.top.parent == nil {
		panic("truk: SymbolTable: pop of root scope")
	}
	st.top = st.top.parent
}

func (st *SymbolTable) Define(sym *Symbol) { st.top.define(sym) }

func (st *SymbolTable) Resolve(name string) (*Symbol, bool) { return st.top.resolve(name) }
