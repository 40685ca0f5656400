package xref

import (
	"regexp"
	"strings"

	"github.com/fakeyudi/promptmark/internal/oracle"
	"github.com/fakeyudi/promptmark/internal/source"
)

// Candidate is a symbol name worth cross-referencing, anchored at its
// declaration position in the queried document.
type Candidate struct {
	Name string
	Pos  source.Position
}

// Extractor finds candidate symbol names within a document range. Pluggable
// so the regex fallback can be swapped for an AST-backed strategy.
type Extractor interface {
	Extract(doc *source.Document, r source.Range, symbols []oracle.Symbol) []Candidate
}

// minNameLen filters one- and two-character names, which are mostly loop
// variables and noise.
const minNameLen = 3

var (
	declRe          = regexp.MustCompile(`\b(?:class|interface|type|enum|function|const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	namedImportRe   = regexp.MustCompile(`import\s+\{([^}]+)\}`)
	defaultImportRe = regexp.MustCompile(`import\s+([A-Za-z_$][A-Za-z0-9_$]*)\s+from`)
)

// RegexExtractor unions the oracle's symbols inside the range with
// declaration- and import-shaped regex matches over the range text.
type RegexExtractor struct{}

func (RegexExtractor) Extract(doc *source.Document, r source.Range, symbols []oracle.Symbol) []Candidate {
	var out []Candidate
	seen := make(map[string]bool)

	add := func(name string, pos source.Position) {
		name = strings.TrimSpace(name)
		if len(name) < minNameLen || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, Candidate{Name: name, Pos: pos})
	}

	// Oracle symbols intersecting the range anchor at their name token.
	for _, s := range oracle.InRange(symbols, r) {
		pos := s.SelectionRange.Start
		if s.SelectionRange == (source.Range{}) {
			pos = s.Range.Start
		}
		add(s.Name, pos)
	}

	// Regex fallback over the range text.
	lines := doc.Lines()
	start, end := r.Start.Line, r.End.Line
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	for i := start; i <= end; i++ {
		line := lines[i]
		for _, m := range declRe.FindAllStringSubmatchIndex(line, -1) {
			name := line[m[2]:m[3]]
			add(name, source.Position{Line: i, Column: m[2]})
		}
		for _, m := range namedImportRe.FindAllStringSubmatch(line, -1) {
			for _, part := range strings.Split(m[1], ",") {
				name := strings.TrimSpace(part)
				// "orig as alias" binds the alias.
				if idx := strings.LastIndex(name, " as "); idx >= 0 {
					name = strings.TrimSpace(name[idx+4:])
				}
				col := strings.Index(line, name)
				if col < 0 {
					col = 0
				}
				add(name, source.Position{Line: i, Column: col})
			}
		}
		for _, m := range defaultImportRe.FindAllStringSubmatchIndex(line, -1) {
			name := line[m[2]:m[3]]
			add(name, source.Position{Line: i, Column: m[2]})
		}
	}

	return out
}
