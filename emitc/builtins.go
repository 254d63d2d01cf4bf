package emitc

import (
	"fmt"
	"strings"

	truk "github.com/trukc/truk"
)

// builtinCatalog mirrors the name -> BuiltinKind mapping the checker's
// TypeRegistry registers, duplicated here so the emitter can dispatch
// by tag without depending on checker internals.
var builtinCatalog = map[string]truk.BuiltinKind{
	"make":       truk.BuiltinMake,
	"delete":     truk.BuiltinDelete,
	"len":        truk.BuiltinLen,
	"sizeof":     truk.BuiltinSizeof,
	"panic":      truk.BuiltinPanic,
	"each":       truk.BuiltinEach,
	"va_arg_i32": truk.BuiltinVaArgI32,
	"va_arg_i64": truk.BuiltinVaArgI64,
	"va_arg_f64": truk.BuiltinVaArgF64,
	"va_arg_ptr": truk.BuiltinVaArgPtr,
}

func (e *Emitter) lowerBuiltinCall(kind truk.BuiltinKind, n *truk.CallExpr) string {
	switch kind {
	case truk.BuiltinMake:
		return e.lowerMake(n)
	case truk.BuiltinDelete:
		return e.lowerDelete(n)
	case truk.BuiltinLen:
		return e.lowerExpr(n.Args[0]) + ".len"
	case truk.BuiltinSizeof:
		tp := n.Args[0].(*truk.TypeParamExpr)
		return fmt.Sprintf("sizeof(%s)", cName(e.resolveType(tp.Type)))
	case truk.BuiltinPanic:
		return fmt.Sprintf("__truk_panic(%s)", e.lowerExpr(n.Args[0]))
	case truk.BuiltinEach:
		objType := e.inferExprType(n.Args[0])
		obj := e.lowerExpr(n.Args[0])
		fn := e.lowerExpr(n.Args[1])
		name := mapTypeName(objType.MapKeyType, objType.MapValueType)
		return fmt.Sprintf("%s_each(&%s, %s)", name, obj, fn)
	case truk.BuiltinVaArgI32:
		return fmt.Sprintf("va_arg(%s, __truk_i32)", e.lowerExpr(n.Args[0]))
	case truk.BuiltinVaArgI64:
		return fmt.Sprintf("va_arg(%s, __truk_i64)", e.lowerExpr(n.Args[0]))
	case truk.BuiltinVaArgF64:
		return fmt.Sprintf("va_arg(%s, __truk_f64)", e.lowerExpr(n.Args[0]))
	case truk.BuiltinVaArgPtr:
		return fmt.Sprintf("va_arg(%s, void*)", e.lowerExpr(n.Args[0]))
	default:
		panic("emitc: lowerBuiltinCall: unhandled builtin kind")
	}
}

// lowerMake handles both forms: make(@T, count) for a slice, and
// make(@map[K,V]) for an empty hash map, distinguished by the @type
// argument's resolved kind.
func (e *Emitter) lowerMake(n *truk.CallExpr) string {
	tp := n.Args[0].(*truk.TypeParamExpr)
	target := e.resolveType(tp.Type)
	if target != nil && target.Kind == truk.KindMap {
		name := mapTypeName(target.MapKeyType, target.MapValueType)
		return fmt.Sprintf("%s_new()", name)
	}
	count := "0"
	if len(n.Args) > 1 {
		count = e.lowerExpr(n.Args[1])
	}
	slice := sliceTypeName(target)
	return fmt.Sprintf("truk_slice_new_%s(%s)", slice, count)
}

// lowerDelete branches on the deleted operand's resolved kind: a
// slice frees its backing storage (spec scenario "delete(a)" on a
// []i32, a single-argument call), a map removes one key (spec
// scenario 4's two-argument "delete(m, key)" form), and a
// single-argument delete on a map deinitializes the whole map.
func (e *Emitter) lowerDelete(n *truk.CallExpr) string {
	objType := e.inferExprType(n.Args[0])
	obj := e.lowerExpr(n.Args[0])
	if objType != nil && objType.Kind == truk.KindMap {
		if len(n.Args) > 1 {
			key := e.lowerMapKey(n.Args[1], objType.MapKeyType)
			name := mapTypeName(objType.MapKeyType, objType.MapValueType)
			return fmt.Sprintf("%s_remove(&%s, %s)", name, obj, key)
		}
		name := mapTypeName(objType.MapKeyType, objType.MapValueType)
		return fmt.Sprintf("%s_deinit(&%s)", name, obj)
	}
	return fmt.Sprintf("free(%s.data)", obj)
}

// slicePreludeFor emits one static truk_slice_new_<name> constructor
// per slice typedef, so each instantiation gets its own non-generic
// copy; no append helper is emitted.
func slicePreludeFor(name, elem string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("static struct %s truk_slice_new_%s(__truk_u64 n) {\n", name, name))
	b.WriteString(fmt.Sprintf("\tstruct %s s; s.len = n; s.cap = n; s.data = (%s*)__truk_alloc(n, sizeof(%s));\n", name, elem, elem))
	b.WriteString("\treturn s;\n}\n")
	return b.String()
}

// mapPreludeFor emits the typed insert/get/remove/each wrapper
// functions for one map[K, V] shape over the shared
// __truk_map_generic backend (spec §6.3), the map analogue of
// slicePreludeFor above.
func mapPreludeFor(name, keyC, valC, hashFn, cmpFn string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "static void %s_init(%s* m) {\n", name, name)
	fmt.Fprintf(&b, "\t__truk_map_init_generic((struct __truk_map_generic*)m, sizeof(%s), sizeof(%s), %s, %s);\n", keyC, valC, hashFn, cmpFn)
	b.WriteString("}\n")
	fmt.Fprintf(&b, "static %s %s_new(void) {\n\t%s m;\n\t%s_init(&m);\n\treturn m;\n}\n", name, name, name, name)
	fmt.Fprintf(&b, "static void %s_set(%s* m, %s key, %s value) {\n", name, name, keyC, valC)
	b.WriteString("\t__truk_map_set_generic((struct __truk_map_generic*)m, &key, &value);\n}\n")
	fmt.Fprintf(&b, "static %s* %s_get(%s* m, %s key) {\n", valC, name, name, keyC)
	fmt.Fprintf(&b, "\treturn (%s*)__truk_map_get_generic((struct __truk_map_generic*)m, &key);\n}\n", valC)
	fmt.Fprintf(&b, "static void %s_remove(%s* m, %s key) {\n", name, name, keyC)
	b.WriteString("\t__truk_map_remove_generic((struct __truk_map_generic*)m, &key);\n}\n")
	fmt.Fprintf(&b, "static void %s_deinit(%s* m) {\n\t__truk_map_deinit_generic((struct __truk_map_generic*)m);\n}\n", name, name)
	fmt.Fprintf(&b, "static void %s_each(%s* m, void (*fn)(%s, %s)) {\n", name, name, keyC, valC)
	b.WriteString("\tstruct __truk_map_iter_state it = __truk_map_iter();\n")
	b.WriteString("\tunsigned char* e;\n")
	b.WriteString("\twhile ((e = (unsigned char*)__truk_map_next_generic((struct __truk_map_generic*)m, &it)) != NULL) {\n")
	fmt.Fprintf(&b, "\t\t%s k; %s v;\n", keyC, valC)
	fmt.Fprintf(&b, "\t\tmemcpy(&k, e, sizeof(%s));\n", keyC)
	fmt.Fprintf(&b, "\t\tmemcpy(&v, e + sizeof(%s), sizeof(%s));\n", keyC, valC)
	b.WriteString("\t\tfn(k, v);\n\t}\n}\n")
	return b.String()
}
