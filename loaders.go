package truk

import (
	"os"
	"path/filepath"
)

// ImportLoader abstracts file access for the resolver, the way the
// teacher's RelativeImportLoader/InMemoryImportLoader pair does, so
// tests can resolve a multi-file import graph without touching disk.
type ImportLoader interface {
	Resolve(importPath, fromFile string, searchPaths []string) (string, error)
	ReadFile(path string) ([]byte, error)
}

type OSImportLoader struct{}

func NewOSImportLoader() *OSImportLoader { return &OSImportLoader{} }

func (l *OSImportLoader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Resolve implements spec §6.2: first relative to the importing
// file's directory, then against each configured search path, in
// order. The first existing file wins.
func (l *OSImportLoader) Resolve(importPath, fromFile string, searchPaths []string) (string, error) {
	candidate := filepath.Join(filepath.Dir(fromFile), importPath)
	if _, err := os.Stat(candidate); err == nil {
		return filepath.Clean(candidate), nil
	}
	for _, sp := range searchPaths {
		candidate = filepath.Join(sp, importPath)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Clean(candidate), nil
		}
	}
	return "", Wrap(os.ErrNotExist, "import not found: "+importPath)
}

// InMemoryImportLoader backs resolver tests with a synthetic file set.
type InMemoryImportLoader struct {
	files map[string][]byte
}

func NewInMemoryImportLoader() *InMemoryImportLoader {
	return &InMemoryImportLoader{files: map[string][]byte{}}
}

func (l *InMemoryImportLoader) Add(path string, content []byte) { l.files[path] = content }

func (l *InMemoryImportLoader) ReadFile(path string) ([]byte, error) {
	b, ok := l.files[path]
	if !ok {
		return nil, Wrap(os.ErrNotExist, "import not found: "+path)
	}
	return b, nil
}

func (l *InMemoryImportLoader) Resolve(importPath, fromFile string, searchPaths []string) (string, error) {
	candidate := filepath.Join(filepath.Dir(fromFile), importPath)
	if _, ok := l.files[candidate]; ok {
		return candidate, nil
	}
	for _, sp := range searchPaths {
		candidate = filepath.Join(sp, importPath)
		if _, ok := l.files[candidate]; ok {
			return candidate, nil
		}
	}
	return "", Wrap(os.ErrNotExist, "import not found: "+importPath)
}
