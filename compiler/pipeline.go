// Package compiler wires the truk front end (tokenizer, parser,
// resolver, checker) to the emitc back end. It lives apart from
// package truk because emitc imports truk for its AST and type
// registry, and Go forbids the reverse edge.
package compiler

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trukc/truk"
	"github.com/trukc/truk/emitc"
)

// Result is what a caller gets back from a full compile: the emitted
// C source (and optional test-runner variant) plus any diagnostics
// the front end accumulated along the way.
type Result struct {
	Source           string
	Header           string
	TestRunnerSource string
	Diagnostics      []truk.Diagnostic
	Warnings         []string

	HasMainFunction   bool
	MainFunctionCount int
}

func (r *Result) HasErrors() bool { return len(r.Diagnostics) > 0 }

// CompileFile runs the full pipeline starting at entryPath: resolve
// imports, check types, emit C. It has no error return: source
// problems surface as Diagnostics on the returned Result.
func CompileFile(entryPath string, opts *truk.CompilerOptions, logger *zap.Logger) *Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts == nil {
		opts = truk.NewCompilerOptions()
	}

	buildID := uuid.New().String()
	logger = logger.With(zap.String("build_id", buildID))

	logger.Info("resolving imports", zap.String("entry", entryPath))
	resolved := truk.Resolve(entryPath, truk.NewOSImportLoader(), opts.SearchPaths)
	if resolved.HasErrors() {
		logger.Warn("import resolution failed", zap.Int("diagnostics", len(resolved.Diagnostics)))
		return &Result{Diagnostics: resolved.Diagnostics}
	}
	logger.Info("resolved declarations", zap.Int("count", len(resolved.Declarations)))

	checker := truk.NewChecker(resolved.DeclFile)
	reporter := checker.Check(resolved.Declarations)
	if reporter.HasErrors() {
		logger.Warn("type check failed", zap.Int("diagnostics", len(reporter.Diagnostics())))
		return &Result{Diagnostics: reporter.Diagnostics()}
	}
	logger.Info("type check passed")

	e := emitc.NewEmitter(checker.Types())
	out := e.Emit(resolved.Declarations, opts)
	if out.HasErrors() {
		logger.Warn("emission failed", zap.Int("diagnostics", len(out.Diagnostics)))
		return &Result{Diagnostics: out.Diagnostics}
	}
	logger.Info("emitted C source", zap.Int("bytes", len(out.Source)), zap.Bool("has_main_function", out.HasMainFunction), zap.Int("main_function_count", out.MainFunctionCount))
	for _, w := range out.Warnings {
		logger.Warn(w)
	}

	return &Result{
		Source:            out.Source,
		Header:            out.Header,
		TestRunnerSource:  out.TestRunnerSource,
		Warnings:          out.Warnings,
		HasMainFunction:   out.HasMainFunction,
		MainFunctionCount: out.MainFunctionCount,
	}
}

// TableOfContents renders the top-level declarations resolvable from
// entryPath without running the checker, grounded on original_source's
// table-of-contents command (spec's supplemented feature list).
func TableOfContents(entryPath string, opts *truk.CompilerOptions, logger *zap.Logger) (string, []truk.Diagnostic) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts == nil {
		opts = truk.NewCompilerOptions()
	}
	resolved := truk.Resolve(entryPath, truk.NewOSImportLoader(), opts.SearchPaths)
	if resolved.HasErrors() {
		return "", resolved.Diagnostics
	}
	var b strings.Builder
	for _, d := range resolved.Declarations {
		name := truk.DeclName(d)
		if name == "" {
			continue
		}
		fmt.Fprintf(&b, "%-12s %-24s %s\n", declKindLabel(d), name, resolved.DeclFile[d])
	}
	return b.String(), nil
}

func declKindLabel(d truk.Decl) string {
	switch d.(type) {
	case *truk.FnDecl:
		return "fn"
	case *truk.StructDecl:
		return "struct"
	case *truk.EnumDecl:
		return "enum"
	case *truk.VarDecl:
		return "var"
	case *truk.ConstDecl:
		return "const"
	case *truk.LetDecl:
		return "let"
	case *truk.ShardDecl:
		return "shard"
	default:
		return "decl"
	}
}
