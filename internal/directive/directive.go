// Package directive scans source comments for author-written AI directives
// and binds each one to the code range it governs.
package directive

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/fakeyudi/promptmark/internal/source"
)

// ErrNotFound is returned by Get when no directive with the requested id
// exists for the file. It signals a desynchronized caller, not a scan failure.
var ErrNotFound = errors.New("directive not found")

// Directive is one author instruction bound to a code range.
//
// The range is always one of: the span of the next top-level symbol after the
// directive's source line, the rest of the file when no symbol follows, or
// the zero-length start-of-file range for global directives.
type Directive struct {
	File  string       `json:"file"`
	Range source.Range `json:"range"`
	Text  string       `json:"prompt"`
	ID    string       `json:"id"`
}

// IsGlobal reports whether d applies to the whole file.
func (d Directive) IsGlobal() bool {
	return d.Range.IsZero()
}

// stableID derives a deterministic id for a directive without an explicit one,
// so re-scans of unchanged content produce identical records.
func stableID(file string, line int, text string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%d\x00%s", file, line, text)
	return fmt.Sprintf("d-%016x", h.Sum64())
}
