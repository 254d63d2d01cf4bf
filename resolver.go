package truk

import (
	"fmt"
	"strings"
)

// ResolveResult is the merged, topologically sorted output of import
// resolution (spec §4.3).
type ResolveResult struct {
	Declarations []Decl
	DeclFile     map[Decl]string // decl -> source file path
	FileShards   map[string][]string
	CImports     []*CImportDecl
	Diagnostics  []Diagnostic
}

func (r *ResolveResult) HasErrors() bool { return len(r.Diagnostics) > 0 }

type resolver struct {
	loader      ImportLoader
	searchPaths []string

	processed   map[string]bool
	importStack []string

	allDecls     []Decl
	declFile     map[Decl]string
	fileShards   map[string][]string
	cimports     []*CImportDecl
	symbolToDecl map[string]Decl
	diags        []Diagnostic
}

// Resolve walks the import graph starting at entry, merging every
// reachable file's declarations, then returns them in dependency
// order (spec §4.3 steps 1-5).
func Resolve(entry string, loader ImportLoader, searchPaths []string) *ResolveResult {
	r := &resolver{
		loader:       loader,
		searchPaths:  searchPaths,
		processed:    map[string]bool{},
		declFile:     map[Decl]string{},
		fileShards:   map[string][]string{},
		symbolToDecl: map[string]Decl{},
	}
	r.processFile(entry)

	if r.hasError() {
		return &ResolveResult{Diagnostics: r.diags}
	}

	sorted, cycleErr := r.topoSort()
	if cycleErr != nil {
		r.diags = append(r.diags, *cycleErr)
		return &ResolveResult{Diagnostics: r.diags}
	}

	return &ResolveResult{
		Declarations: sorted,
		DeclFile:     r.declFile,
		FileShards:   r.fileShards,
		CImports:     r.cimports,
		Diagnostics:  r.diags,
	}
}

func (r *resolver) hasError() bool { return len(r.diags) > 0 }

func (r *resolver) processFile(path string) {
	for _, inflight := range r.importStack {
		if inflight == path {
			cycle := append(append([]string{}, r.importStack...), path)
			r.diags = append(r.diags, Diagnostic{
				Kind:    ErrImportResolution,
				Message: "circular import: " + strings.Join(cycle, " -> "),
			})
			return
		}
	}
	if r.processed[path] {
		return
	}

	r.importStack = append(r.importStack, path)

	content, err := r.loader.ReadFile(path)
	if err != nil {
		r.diags = append(r.diags, Diagnostic{Kind: ErrFileIO, Message: err.Error(), File: path})
		r.popStack()
		return
	}

	pr := Parse(content, path, unknownFileID)
	if !pr.Success {
		d := *pr.Err
		d.File = path
		r.diags = append(r.diags, d)
		r.popStack()
		return
	}

	r.mergeFile(path, pr.File)
	r.popStack()
	r.processed[path] = true
}

func (r *resolver) popStack() {
	r.importStack = r.importStack[:len(r.importStack)-1]
}

func (r *resolver) mergeFile(path string, f *File) {
	for _, d := range f.Declarations {
		switch n := d.(type) {
		case *ImportDecl:
			target, err := r.loader.Resolve(n.Path, path, r.searchPaths)
			if err != nil {
				r.diags = append(r.diags, Diagnostic{Kind: ErrImportResolution, Message: err.Error(), File: path, Span: n.Span()})
				continue
			}
			r.processFile(target)
		case *CImportDecl:
			r.cimports = append(r.cimports, n)
		case *ShardDecl:
			for _, inner := range n.Decls {
				r.registerDecl(path, inner)
			}
			r.fileShards[path] = append(r.fileShards[path], n.Name)
		default:
			r.registerDecl(path, d)
		}
	}
}

func (r *resolver) registerDecl(path string, d Decl) {
	r.allDecls = append(r.allDecls, d)
	r.declFile[d] = path
	name := DeclName(d)
	if name == "" {
		return
	}
	if existing, ok := r.symbolToDecl[name]; ok {
		r.diags = append(r.diags, Diagnostic{
			Kind: ErrImportResolution, File: path, Span: d.Span(),
			Message: fmt.Sprintf("duplicate top-level symbol %q (also declared in %s)", name, r.declFile[existing]),
		})
		return
	}
	r.symbolToDecl[name] = d
}

// topoSort implements Kahn's algorithm over the dependency edges
// discovered by findDeclDeps (spec §4.3 step 3-4).
func (r *resolver) topoSort() ([]Decl, *Diagnostic) {
	deps := map[Decl][]Decl{}
	inDegree := map[Decl]int{}
	for _, d := range r.allDecls {
		inDegree[d] = 0
	}
	for _, d := range r.allDecls {
		for _, dep := range findDeclDeps(d, r.symbolToDecl) {
			deps[dep] = append(deps[dep], d)
			inDegree[d]++
		}
	}

	var queue []Decl
	for _, d := range r.allDecls {
		if inDegree[d] == 0 {
			queue = append(queue, d)
		}
	}

	var out []Decl
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		out = append(out, d)
		for _, dependant := range deps[d] {
			inDegree[dependant]--
			if inDegree[dependant] == 0 {
				queue = append(queue, dependant)
			}
		}
	}

	if len(out) != len(r.allDecls) {
		return nil, &Diagnostic{Kind: ErrImportResolution, Message: "circular dependency among top-level declarations"}
	}
	return out, nil
}

// findDeclDeps walks d's body collecting references to other known
// top-level symbols, respecting local shadowing (spec §4.3's "local
// scope tracker").
func findDeclDeps(d Decl, symbols map[string]Decl) []Decl {
	w := &depWalker{symbols: symbols, seen: map[Decl]bool{}, locals: []map[string]bool{{}}}
	w.walkDecl(d)
	var out []Decl
	for dep := range w.seen {
		if dep != d {
			out = append(out, dep)
		}
	}
	return out
}

type depWalker struct {
	symbols map[string]Decl
	seen    map[Decl]bool
	locals  []map[string]bool
}

func (w *depWalker) push()        { w.locals = append(w.locals, map[string]bool{}) }
func (w *depWalker) pop()         { w.locals = w.locals[:len(w.locals)-1] }
func (w *depWalker) bind(n string) { w.locals[len(w.locals)-1][n] = true }

func (w *depWalker) isLocal(name string) bool {
	for i := len(w.locals) - 1; i >= 0; i-- {
		if w.locals[i][name] {
			return true
		}
	}
	return false
}

func (w *depWalker) reference(name string) {
	if w.isLocal(name) {
		return
	}
	if dep, ok := w.symbols[name]; ok {
		w.seen[dep] = true
	}
}

func (w *depWalker) walkDecl(d Decl) {
	switch n := d.(type) {
	case *FnDecl:
		w.push()
		for _, p := range n.Params {
			w.bind(p.Name)
			w.walkType(p.Type)
		}
		w.walkType(n.ReturnType)
		if n.Body != nil {
			w.walkStmt(n.Body)
		}
		w.pop()
	case *StructDecl:
		for _, f := range n.Fields {
			w.walkType(f.Type)
		}
	case *EnumDecl:
		w.walkType(n.BackingType)
		for _, v := range n.Variants {
			w.walkExpr(v.Value)
		}
	case *VarDecl:
		w.walkType(n.Type)
		w.walkExpr(n.Init)
	case *ConstDecl:
		w.walkType(n.Type)
		w.walkExpr(n.Value)
	case *LetDecl:
		w.walkExpr(n.Init)
	}
}

func (w *depWalker) walkType(t Type) {
	switch n := t.(type) {
	case nil:
	case *NamedType:
		w.reference(n.Name)
	case *PointerType:
		w.walkType(n.Pointee)
	case *ArrayType:
		w.walkType(n.Element)
		w.walkExpr(n.Size)
	case *FunctionType:
		for _, p := range n.Params {
			w.walkType(p)
		}
		w.walkType(n.Return)
	case *MapType:
		w.walkType(n.Key)
		w.walkType(n.Value)
	case *TupleType:
		for _, e := range n.Elements {
			w.walkType(e)
		}
	case *GenericInstantiationType:
		w.reference(n.BaseName)
		for _, a := range n.Args {
			w.walkType(a)
		}
	}
}

func (w *depWalker) walkStmt(s Stmt) {
	switch n := s.(type) {
	case nil:
	case *BlockStmt:
		w.push()
		for _, st := range n.Stmts {
			w.walkStmt(st)
		}
		w.pop()
	case *IfStmt:
		w.walkExpr(n.Cond)
		w.walkStmt(n.Then)
		w.walkStmt(n.Else)
	case *WhileStmt:
		w.walkExpr(n.Cond)
		w.walkStmt(n.Body)
	case *ForStmt:
		w.push()
		w.walkStmt(n.Init)
		w.walkExpr(n.Cond)
		w.walkStmt(n.Post)
		w.walkStmt(n.Body)
		w.pop()
	case *ReturnStmt:
		for _, v := range n.Values {
			w.walkExpr(v)
		}
	case *DeferStmt:
		w.walkStmt(n.Code)
	case *MatchStmt:
		w.walkExpr(n.Scrutinee)
		for _, c := range n.Cases {
			w.walkExpr(c.Pattern)
			w.walkStmt(c.Body)
		}
	case *AssignStmt:
		w.walkExpr(n.Target)
		w.walkExpr(n.Value)
	case *ExprStmt:
		w.walkExpr(n.X)
	case *DeclStmt:
		switch inner := n.Decl.(type) {
		case *VarDecl:
			w.walkType(inner.Type)
			w.walkExpr(inner.Init)
			w.bind(inner.Name)
		case *ConstDecl:
			w.walkType(inner.Type)
			w.walkExpr(inner.Value)
			w.bind(inner.Name)
		case *LetDecl:
			w.walkExpr(inner.Init)
			w.bind(inner.Name)
		}
	case *BreakStmt, *ContinueStmt:
	}
}

func (w *depWalker) walkExpr(e Expr) {
	switch n := e.(type) {
	case nil:
	case *BinaryExpr:
		w.walkExpr(n.LHS)
		w.walkExpr(n.RHS)
	case *UnaryExpr:
		w.walkExpr(n.Operand)
	case *CastExpr:
		w.walkExpr(n.X)
		w.walkType(n.Target)
	case *CallExpr:
		w.walkExpr(n.Callee)
		for _, a := range n.Args {
			w.walkExpr(a)
		}
	case *IndexExpr:
		w.walkExpr(n.X)
		w.walkExpr(n.Index)
	case *MemberExpr:
		w.walkExpr(n.X)
	case *IdentExpr:
		w.reference(n.Name)
	case *ArrayLiteralExpr:
		for _, el := range n.Elements {
			w.walkExpr(el)
		}
	case *StructLiteralExpr:
		w.reference(n.Name)
		for _, f := range n.Fields {
			w.walkExpr(f.Value)
		}
	case *LambdaExpr:
		w.push()
		for _, p := range n.Params {
			w.bind(p.Name)
			w.walkType(p.Type)
		}
		w.walkType(n.ReturnType)
		w.walkStmt(n.Body)
		w.pop()
	case *TypeParamExpr:
		w.walkType(n.Type)
	case *EnumValueAccessExpr:
		w.reference(n.Enum)
	case *LiteralExpr:
	}
}
