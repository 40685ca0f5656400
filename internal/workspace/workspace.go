// Package workspace provides the host-environment shims the core consumes:
// bounded file reads and searches over a single workspace root, document
// change notifications, and a best-effort VCS signal.
package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// skipDirs are dependency-manager and build-output directories excluded from
// every workspace scan.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".idea":        true,
	".vscode":      true,
}

// sourceExtensions is the allowlist of extensions considered source text
// during workspace scans.
var sourceExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".go": true, ".java": true, ".py": true, ".rb": true,
	".rs": true, ".c": true, ".cpp": true, ".h": true,
	".cs": true, ".php": true, ".swift": true, ".kt": true,
}

// Workspace is a read-only view of one project root.
type Workspace struct {
	root           string
	ignorePatterns []string
}

// New returns a workspace rooted at root with extra ignore glob patterns.
func New(root string, ignorePatterns []string) *Workspace {
	return &Workspace{root: root, ignorePatterns: ignorePatterns}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// ReadFile reads the whole file as text.
func (w *Workspace) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(w.abs(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Exists reports whether path exists and is a regular file.
func (w *Workspace) Exists(path string) bool {
	info, err := os.Stat(w.abs(path))
	return err == nil && info.Mode().IsRegular()
}

// Rel returns path relative to the workspace root when possible.
func (w *Workspace) Rel(path string) string {
	if rel, err := filepath.Rel(w.root, w.abs(path)); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func (w *Workspace) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.root, path)
}

// SourceFiles walks the workspace and returns up to limit source file paths,
// skipping dependency-manager directories and ignored patterns. A limit of 0
// means no bound; callers are expected to pass one.
func (w *Workspace) SourceFiles(limit int) []string {
	var out []string
	_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries contribute nothing
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if w.isIgnored(path) {
			return nil
		}
		out = append(out, path)
		if limit > 0 && len(out) >= limit {
			return filepath.SkipAll
		}
		return nil
	})
	return out
}

// FindFiles returns up to limit source files whose base name or relative path
// matches the glob pattern.
func (w *Workspace) FindFiles(pattern string, limit int) []string {
	var out []string
	for _, path := range w.SourceFiles(0) {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); !matched {
			if matched, _ = filepath.Match(pattern, w.Rel(path)); !matched {
				continue
			}
		}
		out = append(out, path)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// isIgnored reports whether path matches any configured ignore pattern,
// checked against the base name, the root-relative path, and the full path.
func (w *Workspace) isIgnored(path string) bool {
	rel := w.Rel(path)
	base := filepath.Base(path)
	for _, pattern := range w.ignorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}
	return false
}
