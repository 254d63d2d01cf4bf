package emitc

import (
	"fmt"
	"strings"

	truk "github.com/trukc/truk"
)

// Result holds the emitted translation unit split into the chunks
// spec §4.5 calls out for metadata assembly, plus an optional
// synthesized test-runner main (the test_-prefix convention supplement
// grounded on original_source's test.cpp).
type Result struct {
	Prelude      string
	Typedefs     string
	Helpers      string
	ForwardDecls string
	StructDefs   string
	FuncDefs     string
	TestNames    []string

	// HasMainFunction/MainFunctionCount are the finalize-time metadata
	// spec §4.5 requires ("metadata reports has_main_function=true,
	// main_function_count=1" for the minimal-function scenario).
	HasMainFunction   bool
	MainFunctionCount int
	Warnings          []string
	Diagnostics       []truk.Diagnostic

	// Header is populated only in LIBRARY mode: the .h half of the
	// split output (spec §4.5/§6.4). Source carries the .c half in
	// that mode, and the whole translation unit in APPLICATION mode.
	Header string

	Source           string
	TestRunnerSource string
}

func (r *Result) HasErrors() bool { return len(r.Diagnostics) > 0 }

func (r *Result) chunks() string {
	var b strings.Builder
	b.WriteString(r.Prelude)
	b.WriteString(r.Typedefs)
	b.WriteString("\n")
	b.WriteString(r.Helpers)
	b.WriteString("\n")
	b.WriteString(r.ForwardDecls)
	b.WriteString("\n")
	b.WriteString(r.StructDefs)
	b.WriteString("\n")
	b.WriteString(r.FuncDefs)
	return b.String()
}

func (r *Result) assemble() string {
	return r.chunks()
}

// assembleEntryWrapper synthesizes the APPLICATION-mode C main that
// forwards argc/argv into the user's entry point (spec §4.5:
// "APPLICATION: concatenation of all chunks plus a synthesized C main
// that forwards argc/argv into the user's main"). mainFn is nil when
// no main function was found, in which case the caller never calls
// this (APPLICATION with zero main is a fatal error instead).
func assembleEntryWrapper(mainFn *truk.FnDecl) string {
	var b strings.Builder
	b.WriteString("\n\nint main(int argc, char** argv) {\n")
	ret := "0"
	if len(mainFn.Params) >= 2 {
		ret = fmt.Sprintf("(int)%s(argc, argv)", mangle(mainFn.Name))
	} else if len(mainFn.Params) == 1 {
		ret = fmt.Sprintf("(int)%s(argc)", mangle(mainFn.Name))
	} else {
		b.WriteString("\t(void)argc;\n\t(void)argv;\n")
		if mainFn.ReturnType != nil {
			ret = fmt.Sprintf("(int)%s()", mangle(mainFn.Name))
		} else {
			b.WriteString(fmt.Sprintf("\t%s();\n", mangle(mainFn.Name)))
			ret = "0"
		}
	}
	b.WriteString(fmt.Sprintf("\treturn %s;\n}\n", ret))
	return b.String()
}

// assembleTestRunner appends a synthesized main() that calls every
// test_-prefixed function in declaration order, printing RUN and PASS
// lines around each call and "all tests passed" at the end. Failures
// are not detected: every test that returns is reported as PASS.
func (r *Result) assembleTestRunner() string {
	var b strings.Builder
	b.WriteString(r.chunks())
	b.WriteString("\n\nint main(void) {\n")
	b.WriteString("\tint failed = 0;\n")
	for _, name := range r.TestNames {
		b.WriteString("\tprintf(\"RUN  " + name + "\\n\");\n")
		b.WriteString("\t" + mangle(name) + "();\n")
		b.WriteString("\tprintf(\"PASS " + name + "\\n\");\n")
	}
	b.WriteString("\tif (failed) return 1;\n")
	b.WriteString("\tprintf(\"all tests passed\\n\");\n")
	b.WriteString("\treturn 0;\n}\n")
	return b.String()
}

// assembleLibraryHeader renders the LIBRARY-mode .h half: synthesized
// slice/map/tuple typedefs, forward declarations (function prototypes)
// and struct/enum definitions; the primitive typedefs stay in the .c
// file's prelude. The header is guarded the conventional way so it tolerates
// multiple inclusion (spec §4.5/§6.4).
func assembleLibraryHeader(headerBasename string, r *Result) string {
	guard := strings.ToUpper(strings.Map(func(rn rune) rune {
		if rn >= 'a' && rn <= 'z' || rn >= 'A' && rn <= 'Z' || rn >= '0' && rn <= '9' {
			return rn
		}
		return '_'
	}, headerBasename)) + "_H"
	var b strings.Builder
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)
	b.WriteString(r.Typedefs)
	b.WriteString("\n")
	b.WriteString(r.ForwardDecls)
	b.WriteString("\n")
	b.WriteString(r.StructDefs)
	b.WriteString(fmt.Sprintf("\n#endif /* %s */\n", guard))
	return b.String()
}

// assembleLibrarySource renders the LIBRARY-mode .c half: the runtime
// prelude, helpers, and function bodies, #including the header rather
// than repeating its declarations (spec §6.4: "the .c #includes the
// .h").
func assembleLibrarySource(headerBasename string, r *Result) string {
	var b strings.Builder
	b.WriteString(r.Prelude)
	b.WriteString(r.Helpers)
	b.WriteString("\n")
	fmt.Fprintf(&b, "#include \"%s.h\"\n\n", headerBasename)
	b.WriteString(r.FuncDefs)
	return b.String()
}
