package truk

import "fmt"

// EmissionKind selects what kind of C assembly the emitter produces
// (spec §4.5).
type EmissionKind int

const (
	EmitApplication EmissionKind = iota
	EmitLibrary
)

func (k EmissionKind) String() string {
	if k == EmitLibrary {
		return "library"
	}
	return "application"
}

// CompilerOptions is a typed successor to the teacher's map-of-typed-
// values Config (config.go): the set of knobs is small and fixed for
// a single compiler, so the values live as real struct fields instead
// of a stringly-keyed map, but the same set/get-with-type-assertion
// discipline is kept for the handful of options that are still most
// naturally looked up by path (search-path ordering, backend flags).
type CompilerOptions struct {
	SearchPaths      []string
	Emission         EmissionKind
	LibraryHeader    string
	OptimizeLevel    int
	TrustCImports    bool
	EmitTestRunner   bool

	extra map[string]*cfgVal
}

func NewCompilerOptions() *CompilerOptions {
	return &CompilerOptions{
		SearchPaths:   []string{"."},
		Emission:      EmitApplication,
		OptimizeLevel: 0,
		TrustCImports: false,
		extra:         map[string]*cfgVal{},
	}
}

type cfgValType int

const (
	cfgValUndefined cfgValType = iota
	cfgValBool
	cfgValInt
	cfgValString
)

func (vt cfgValType) String() string {
	switch vt {
	case cfgValBool:
		return "bool"
	case cfgValInt:
		return "int"
	case cfgValString:
		return "string"
	default:
		return "undefined"
	}
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("can't retrieve %s from %s setting", vt, v.typ))
	}
}

// SetBool/SetInt/SetString/GetBool/GetInt/GetString give callers an
// escape hatch for backend-specific flags (e.g. a future emitc knob)
// that don't warrant a dedicated struct field yet. Misuse is a
// programmer error, not user input, so it panics rather than erroring.
func (c *CompilerOptions) SetBool(path string, v bool) {
	c.extra[path] = &cfgVal{typ: cfgValBool, asBool: v}
}

func (c *CompilerOptions) SetInt(path string, v int) {
	c.extra[path] = &cfgVal{typ: cfgValInt, asInt: v}
}

func (c *CompilerOptions) SetString(path string, v string) {
	c.extra[path] = &cfgVal{typ: cfgValString, asString: v}
}

func (c *CompilerOptions) GetBool(path string) bool {
	val, ok := c.extra[path]
	if !ok {
		panic(fmt.Sprintf("bool setting %q does not exist", path))
	}
	val.checkType(cfgValBool)
	return val.asBool
}

func (c *CompilerOptions) GetInt(path string) int {
	val, ok := c.extra[path]
	if !ok {
		panic(fmt.Sprintf("int setting %q does not exist", path))
	}
	val.checkType(cfgValInt)
	return val.asInt
}

func (c *CompilerOptions) GetString(path string) string {
	val, ok := c.extra[path]
	if !ok {
		panic(fmt.Sprintf("string setting %q does not exist", path))
	}
	val.checkType(cfgValString)
	return val.asString
}
