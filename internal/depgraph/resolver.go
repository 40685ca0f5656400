// Package depgraph discovers direct dependency edges between workspace files
// by textually scanning import-like statements and resolving relative
// specifiers against the filesystem.
package depgraph

import (
	"path/filepath"
	"strings"
)

// FileSystem is the slice of the host filesystem the resolver needs.
type FileSystem interface {
	ReadFile(path string) (string, error)
	Exists(path string) bool
}

// Resolver resolves the direct dependencies of a file. Edges are cached
// indefinitely per file; edits do not invalidate them. That staleness is a
// deliberate simplification — callers that need fresh edges call ClearCache.
type Resolver struct {
	fs         FileSystem
	scanner    ImportScanner
	extensions []string
	cache      map[string][]string
}

// NewResolver builds a resolver trying the given source extensions, in order,
// when a specifier names no file directly.
func NewResolver(fs FileSystem, scanner ImportScanner, extensions []string) *Resolver {
	return &Resolver{
		fs:         fs,
		scanner:    scanner,
		extensions: extensions,
		cache:      make(map[string][]string),
	}
}

// DependenciesOf returns the resolved paths of file's direct dependencies.
// Unreadable files and unresolvable specifiers contribute no edges; the
// method never fails.
func (r *Resolver) DependenciesOf(file string) []string {
	if deps, ok := r.cache[file]; ok {
		return deps
	}

	deps := r.resolve(file)
	r.cache[file] = deps
	return deps
}

// ClearCache drops every cached edge list.
func (r *Resolver) ClearCache() {
	r.cache = make(map[string][]string)
}

func (r *Resolver) resolve(file string) []string {
	text, err := r.fs.ReadFile(file)
	if err != nil {
		return nil
	}

	var deps []string
	seen := make(map[string]bool)
	for _, spec := range r.scanner.Scan(text) {
		// Bare package names are skipped entirely; there is no node_modules
		// traversal.
		if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
			continue
		}
		resolved := r.resolveRelative(filepath.Dir(file), spec)
		if resolved == "" || seen[resolved] {
			continue
		}
		seen[resolved] = true
		deps = append(deps, resolved)
	}
	return deps
}

// resolveRelative tries spec+ext for each configured extension, then
// spec/index+ext. The first filesystem hit wins; no hit means no edge.
func (r *Resolver) resolveRelative(baseDir, spec string) string {
	base := filepath.Join(baseDir, spec)
	for _, ext := range r.extensions {
		if candidate := base + ext; r.fs.Exists(candidate) {
			return candidate
		}
	}
	for _, ext := range r.extensions {
		if candidate := filepath.Join(base, "index"+ext); r.fs.Exists(candidate) {
			return candidate
		}
	}
	return ""
}
