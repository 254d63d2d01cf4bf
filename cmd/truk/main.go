package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trukc/truk"
	"github.com/trukc/truk/compiler"
)

var (
	searchPaths    []string
	outputPath     string
	headerName     string
	optimizeLevel  int
	emitLibrary    bool
	emitTestRunner bool
	verbose        bool
)

func main() {
	root := &cobra.Command{
		Use:   "truk",
		Short: "Compile truk sources to C",
	}
	root.PersistentFlags().StringSliceVarP(&searchPaths, "search-path", "I", nil, "additional import search path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	build := &cobra.Command{
		Use:   "build <entry-file>",
		Short: "Resolve, check, and emit C for the given entry file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuild,
	}
	build.Flags().StringVarP(&outputPath, "output", "o", "/dev/stdout", "path to write the generated C source")
	build.Flags().IntVar(&optimizeLevel, "optimize", 0, "optimization level hint passed through to the emitter")
	build.Flags().BoolVar(&emitLibrary, "library", false, "emit a library (.h/.c pair, no entry-point wrapper) instead of an application")
	build.Flags().StringVar(&headerName, "header-name", "", "basename for the library header (defaults to the output file's basename); only used with --library")
	build.Flags().BoolVar(&emitTestRunner, "test", false, "emit a synthesized test-runner main calling every test_-prefixed function")

	toc := &cobra.Command{
		Use:   "toc <entry-file>",
		Short: "Print the table of contents reachable from the given entry file",
		Args:  cobra.ExactArgs(1),
		RunE:  runTOC,
	}

	root.AddCommand(build, toc)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %s", err))
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func buildOptions() *truk.CompilerOptions {
	opts := truk.NewCompilerOptions()
	if len(searchPaths) > 0 {
		opts.SearchPaths = searchPaths
	}
	opts.OptimizeLevel = optimizeLevel
	opts.EmitTestRunner = emitTestRunner
	if emitLibrary {
		opts.Emission = truk.EmitLibrary
		opts.LibraryHeader = libraryHeaderBasename()
	}
	return opts
}

// libraryHeaderBasename derives the name the emitted .c's #include and
// the .h's include guard use: the explicit --header-name flag if
// given, otherwise the output file's name with its extension dropped.
func libraryHeaderBasename() string {
	if headerName != "" {
		return headerName
	}
	base := filepath.Base(outputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runBuild(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	result := compiler.CompileFile(args[0], buildOptions(), logger)
	if result.HasErrors() {
		for _, d := range result.Diagnostics {
			fmt.Fprintln(os.Stderr, d.Render(os.Stderr))
		}
		return fmt.Errorf("compilation failed with %d error(s)", len(result.Diagnostics))
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, color.YellowString("warning: %s", w))
	}

	if emitLibrary {
		headerPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".h"
		if err := os.WriteFile(headerPath, []byte(result.Header), 0644); err != nil {
			return err
		}
		return os.WriteFile(outputPath, []byte(result.Source), 0644)
	}

	source := result.Source
	if emitTestRunner {
		source = result.TestRunnerSource
	}
	return os.WriteFile(outputPath, []byte(source), 0644)
}

func runTOC(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	listing, diags := compiler.TableOfContents(args[0], buildOptions(), logger)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.Render(os.Stderr))
		}
		return fmt.Errorf("could not resolve table of contents")
	}
	fmt.Print(listing)
	return nil
}
