package depgraph

import "regexp"

// ImportScanner extracts raw module specifiers from file text. It is a
// pluggable strategy so the textual heuristic can later be replaced by a real
// parser without touching resolution or scoring.
type ImportScanner interface {
	Scan(text string) []string
}

// RegexScanner recognizes ES-module import statements and CommonJS require
// calls. It is a heuristic, not a parser: specifiers inside strings or
// comments are matched too, and misses are acceptable.
type RegexScanner struct{}

var (
	esImportRe = regexp.MustCompile(`import\s+(?:[\w${},*\s]+\s+from\s+)?['"]([^'"]+)['"]`)
	requireRe  = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
)

// Scan returns every specifier found by either pattern, in document order per
// pattern, duplicates included.
func (RegexScanner) Scan(text string) []string {
	var out []string
	for _, m := range esImportRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	for _, m := range requireRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
