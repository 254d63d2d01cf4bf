// Package truk implements the front end of the truk compiler: a
// tokenizer, a recursive-descent parser, a multi-file import resolver
// with topological ordering, and a type checker for a small statically
// typed, C-family source language. A validated program is handed to
// the emitc package for lowering to C.
//
// The pipeline is strictly linear and single-threaded per invocation:
// Tokenize feeds Parse, Parse feeds the Resolver, the Resolver feeds
// the Checker, and the Checker's output (unchanged on success) is what
// emitc consumes. See compiler/pipeline.go for the orchestration entry
// points.
package truk
