package emitc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	truk "github.com/trukc/truk"
)

func TestCNamePrimitivesAndPointers(t *testing.T) {
	i32 := &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "i32"}
	assert.Equal(t, "__truk_i32", cName(i32))

	ptr := &truk.TypeEntry{Kind: truk.KindPointer, PointeeType: i32}
	assert.Equal(t, "__truk_i32*", cName(ptr))

	voidPtr := &truk.TypeEntry{Kind: truk.KindPointer, PointeeType: &truk.TypeEntry{Kind: truk.KindVoid, Name: "void"}}
	assert.Equal(t, "void*", cName(voidPtr))
}

func TestCNameSliceProducesOpaqueStructName(t *testing.T) {
	i32 := &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "i32"}
	slice := &truk.TypeEntry{Kind: truk.KindArray, ArraySize: -1, ElementType: i32}
	assert.Equal(t, "struct truk_slice_i32", cName(slice))
}

func TestTypeCatalogDedupesRepeatedShapes(t *testing.T) {
	i32 := &truk.TypeEntry{Kind: truk.KindPrimitive, Name: "i32"}
	sliceA := &truk.TypeEntry{Kind: truk.KindArray, ArraySize: -1, ElementType: i32}
	sliceB := &truk.TypeEntry{Kind: truk.KindArray, ArraySize: -1, ElementType: i32}

	c := newTypeCatalog()
	c.note(sliceA)
	c.note(sliceB)
	assert.Len(t, c.slices, 1)
}

func TestMangleReplacesDots(t *testing.T) {
	assert.Equal(t, "truk_math_Vector", mangle("math.Vector"))
}
