package emitc

import (
	"fmt"
	"strings"

	truk "github.com/trukc/truk"
)

// cName renders a TypeEntry as the C type spelling used at the point
// of declaration (variables, fields, params, returns). Named structs,
// slices and tuples render as "struct <mangled name>", maps as their
// synthesized typedef name; primitives map onto the fixed prelude
// typedefs.
func cName(t *truk.TypeEntry) string {
	if t == nil {
		return "__truk_void"
	}
	switch t.Kind {
	case truk.KindVoid:
		return "__truk_void"
	case truk.KindUntypedInteger:
		return "__truk_i32"
	case truk.KindUntypedFloat:
		return "__truk_f64"
	case truk.KindPrimitive:
		return "__truk_" + t.Name
	case truk.KindStruct:
		return "struct " + mangle(t.Name)
	case truk.KindPointer:
		if t.PointeeType != nil && t.PointeeType.Name == "void" {
			return "void*"
		}
		return cName(t.PointeeType) + "*"
	case truk.KindArray:
		if t.ArraySize < 0 {
			return "struct " + sliceTypeName(t.ElementType)
		}
		return cName(t.ElementType) // caller appends "[N]" at the declarator
	case truk.KindMap:
		return mapTypeName(t.MapKeyType, t.MapValueType)
	case truk.KindFunction:
		return cName(t.ReturnType) + "(*)(" + joinParamTypes(t.ParamTypes) + ")"
	case truk.KindTuple:
		return "struct " + tupleTypeName(t.TupleElements)
	default:
		return "void"
	}
}

func joinParamTypes(params []*truk.TypeEntry) string {
	var parts []string
	for _, p := range params {
		parts = append(parts, cName(p))
	}
	if len(parts) == 0 {
		return "void"
	}
	return strings.Join(parts, ", ")
}

func mangle(name string) string {
	return "truk_" + strings.ReplaceAll(name, ".", "_")
}

func sliceTypeName(elem *truk.TypeEntry) string {
	return "truk_slice_" + elemTag(elem)
}

func mapTypeName(key, value *truk.TypeEntry) string {
	return fmt.Sprintf("truk_map_%s_%s", elemTag(key), elemTag(value))
}

func tupleTypeName(elems []*truk.TypeEntry) string {
	var tags []string
	for _, e := range elems {
		tags = append(tags, elemTag(e))
	}
	return "truk_tuple_" + strings.Join(tags, "_")
}

func elemTag(t *truk.TypeEntry) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case truk.KindPointer:
		return "ptr_" + elemTag(t.PointeeType)
	case truk.KindArray:
		if t.ArraySize < 0 {
			return sliceTypeName(t.ElementType)
		}
		return fmt.Sprintf("arr%d_%s", t.ArraySize, elemTag(t.ElementType))
	case truk.KindStruct:
		return mangle(t.Name)
	default:
		return t.Name
	}
}

// typeCatalog tracks every distinct slice/map/tuple shape encountered
// during emission so FINALIZATION can synthesize their typedefs exactly
// once each, in first-seen order (spec §4.5/§6.3).
type typeCatalog struct {
	slices   []*truk.TypeEntry
	maps     []*truk.TypeEntry
	tuples   []*truk.TypeEntry
	seen     map[string]bool
}

func newTypeCatalog() *typeCatalog {
	return &typeCatalog{seen: map[string]bool{}}
}

func (c *typeCatalog) note(t *truk.TypeEntry) {
	if t == nil {
		return
	}
	switch t.Kind {
	case truk.KindArray:
		if t.ArraySize < 0 {
			key := "slice:" + sliceTypeName(t.ElementType)
			if !c.seen[key] {
				c.seen[key] = true
				c.slices = append(c.slices, t)
			}
			c.note(t.ElementType)
		} else {
			c.note(t.ElementType)
		}
	case truk.KindMap:
		key := "map:" + mapTypeName(t.MapKeyType, t.MapValueType)
		if !c.seen[key] {
			c.seen[key] = true
			c.maps = append(c.maps, t)
		}
		c.note(t.MapKeyType)
		c.note(t.MapValueType)
	case truk.KindTuple:
		key := "tuple:" + tupleTypeName(t.TupleElements)
		if !c.seen[key] {
			c.seen[key] = true
			c.tuples = append(c.tuples, t)
		}
		for _, e := range t.TupleElements {
			c.note(e)
		}
	case truk.KindPointer:
		c.note(t.PointeeType)
	}
}

// emitSliceTypedef writes the fat-pointer slice representation:
// {ptr, len, cap} over the element's C type.
func emitSliceTypedef(w *outputWriter, t *truk.TypeEntry) {
	name := sliceTypeName(t.ElementType)
	w.writel(fmt.Sprintf("struct %s { %s* data; __truk_u64 len; __truk_u64 cap; };", name, cName(t.ElementType)))
}

// emitMapTypedef aliases one key/value shape's map name onto the
// shared type-erased backend (__truk_map_generic); the typed
// insert/get/remove/each wrapper functions for this shape are written
// into the helpers chunk by mapPreludeFor.
func emitMapTypedef(w *outputWriter, t *truk.TypeEntry) {
	name := mapTypeName(t.MapKeyType, t.MapValueType)
	w.writel(fmt.Sprintf("typedef struct __truk_map_generic %s;", name))
}

// mapKeyCType renders the C type a map's key is actually stored and
// hashed as. Slice-of-u8 keys degrade to the underlying byte pointer
// (spec §4.3: "slice-of-u8 is accepted and uses .data as the key
// pointer"), so the wrapper functions never see the slice struct.
func mapKeyCType(key *truk.TypeEntry) string {
	if key != nil && key.Kind == truk.KindArray && key.ArraySize < 0 {
		return "__truk_u8*"
	}
	return cName(key)
}

var mapHashFnByPrimitive = map[string]string{
	"i8": "__truk_map_hash_i8", "i16": "__truk_map_hash_i16", "i32": "__truk_map_hash_i32", "i64": "__truk_map_hash_i64",
	"u8": "__truk_map_hash_u8", "u16": "__truk_map_hash_u16", "u32": "__truk_map_hash_u32", "u64": "__truk_map_hash_u64",
	"f32": "__truk_map_hash_f32", "f64": "__truk_map_hash_f64", "bool": "__truk_map_hash_bool",
}

// mapKeyFuncs picks the hash/compare function pair the emitter wires
// into a map's init call, selected by the key's resolved kind (spec
// §4.5/§6.3: the generic hash-map is instantiated with a
// key-hash-function and key-compare-function chosen by key type).
func mapKeyFuncs(key *truk.TypeEntry) (hashFn, cmpFn string) {
	if key == nil {
		return "__truk_map_hash_mem", "__truk_map_cmp_mem"
	}
	isStringLike := key.Kind == truk.KindPointer && key.PointeeType != nil && (key.PointeeType.Name == "u8" || key.PointeeType.Name == "i8")
	isStringLike = isStringLike || (key.Kind == truk.KindArray && key.ArraySize < 0)
	if isStringLike {
		return "__truk_map_hash_str", "__truk_map_cmp_str"
	}
	if key.Kind == truk.KindPrimitive {
		if fn, ok := mapHashFnByPrimitive[key.Name]; ok {
			return fn, "__truk_map_cmp_mem"
		}
	}
	return "__truk_map_hash_mem", "__truk_map_cmp_mem"
}

func emitTupleTypedef(w *outputWriter, t *truk.TypeEntry) {
	name := tupleTypeName(t.TupleElements)
	w.writei(fmt.Sprintf("struct %s { ", name))
	for i, el := range t.TupleElements {
		w.write(fmt.Sprintf("%s _%d; ", cName(el), i))
	}
	w.writel("};")
}
