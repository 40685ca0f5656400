package workspace

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strings"
)

// ChangedFiles returns the workspace files with uncommitted changes according
// to git. Best-effort: a missing git binary or a non-repository root yields
// an empty slice.
func (w *Workspace) ChangedFiles(limit int) []string {
	run := func(args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = w.root
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			return ""
		}
		return strings.TrimRight(out.String(), "\n")
	}

	raw := run("diff", "--name-only", "HEAD")
	if raw == "" {
		raw = run("diff", "--name-only", "--cached")
	}
	if raw == "" {
		return nil
	}

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		path := filepath.Join(w.root, line)
		if w.isIgnored(path) {
			continue
		}
		out = append(out, path)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
