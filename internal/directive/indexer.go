package directive

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fakeyudi/promptmark/internal/oracle"
	"github.com/fakeyudi/promptmark/internal/source"
)

// Directive comment forms, matched against the text after the comment marker.
// Only one form matches per line; tagged wins over plain, plain over global.
var (
	// @prompt("instruction") or @prompt("instruction", "id")
	taggedRe = regexp.MustCompile(`^\s*@prompt\(\s*"([^"]*)"\s*(?:,\s*"([^"]*)"\s*)?\)\s*$`)
	// ai: instruction text
	plainRe = regexp.MustCompile(`^\s*ai:\s+(\S.*?)\s*$`)
	// ai: with nothing after it opens a global block
	globalRe = regexp.MustCompile(`^\s*ai:\s*$`)
)

// Subscriber receives the path of a file whose directive list was replaced.
// It fires after every scan, even when the effective content is unchanged.
type Subscriber func(file string)

// Indexer maintains one directive list per scanned file. Re-scanning a file
// replaces its entire list; directives with an explicit id keep their identity
// across scans, and id-less directives get a content-derived stable id.
//
// The indexer is built for the host's single logical thread and does no
// locking of its own.
type Indexer struct {
	oracle      oracle.Oracle
	markers     []*regexp.Regexp
	byFile      map[string][]Directive
	subscribers []Subscriber
}

// NewIndexer builds an indexer that recognizes the given single-line comment
// markers (e.g. "//", "#", "--").
func NewIndexer(o oracle.Oracle, markers []string) *Indexer {
	ms := make([]*regexp.Regexp, 0, len(markers))
	for _, m := range markers {
		ms = append(ms, regexp.MustCompile(`^\s*`+regexp.QuoteMeta(m)+`(.*)$`))
	}
	return &Indexer{
		oracle:  o,
		markers: ms,
		byFile:  make(map[string][]Directive),
	}
}

// Subscribe registers fn on the change-notification stream.
func (ix *Indexer) Subscribe(fn Subscriber) {
	ix.subscribers = append(ix.subscribers, fn)
}

// Index re-scans doc and replaces its directive list, then notifies
// subscribers unconditionally.
func (ix *Indexer) Index(ctx context.Context, doc *source.Document) {
	ix.byFile[doc.Path] = ix.scan(ctx, doc)
	for _, fn := range ix.subscribers {
		fn(doc.Path)
	}
}

// Forget drops the directive list for a file (e.g. when the host closes it).
func (ix *Indexer) Forget(file string) {
	delete(ix.byFile, file)
}

// Clear drops every directive list.
func (ix *Indexer) Clear() {
	ix.byFile = make(map[string][]Directive)
}

// AllForRange returns the texts of directives whose bound range intersects r.
func (ix *Indexer) AllForRange(file string, r source.Range) []string {
	var out []string
	for _, d := range ix.byFile[file] {
		if d.Range.Intersects(r) {
			out = append(out, d.Text)
		}
	}
	return out
}

// ForFile returns the texts of all directives for a file, ignoring range.
func (ix *Indexer) ForFile(file string) []string {
	ds := ix.byFile[file]
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Text
	}
	return out
}

// Directives returns the full directive records for a file.
func (ix *Indexer) Directives(file string) []Directive {
	ds := ix.byFile[file]
	out := make([]Directive, len(ds))
	copy(out, ds)
	return out
}

// Files returns every file with at least one indexed directive.
func (ix *Indexer) Files() []string {
	out := make([]string, 0, len(ix.byFile))
	for f, ds := range ix.byFile {
		if len(ds) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Get returns the directive with the given id, or ErrNotFound.
func (ix *Indexer) Get(file, id string) (Directive, error) {
	for _, d := range ix.byFile[file] {
		if d.ID == id {
			return d, nil
		}
	}
	return Directive{}, fmt.Errorf("%w: %s in %s", ErrNotFound, id, file)
}

// scan walks the document line by line and produces its directive list.
func (ix *Indexer) scan(ctx context.Context, doc *source.Document) []Directive {
	lines := doc.Lines()

	// Symbol Oracle failures degrade to rest-of-file binding.
	var symbols []oracle.Symbol
	if ix.oracle != nil {
		if syms, err := ix.oracle.DocumentSymbols(ctx, doc); err == nil {
			symbols = syms
		}
	}

	var out []Directive
	for i := 0; i < len(lines); i++ {
		rest, ok := ix.commentText(lines[i])
		if !ok {
			continue
		}

		// Form 1: tagged prompt with optional explicit id.
		if m := taggedRe.FindStringSubmatch(rest); m != nil {
			id := m[2]
			if id == "" {
				id = stableID(doc.Path, i, m[1])
			}
			out = append(out, Directive{
				File:  doc.Path,
				Range: ix.bindAfter(doc, symbols, i),
				Text:  m[1],
				ID:    id,
			})
			continue
		}

		// Form 2: plain single-line directive.
		if m := plainRe.FindStringSubmatch(rest); m != nil {
			out = append(out, Directive{
				File:  doc.Path,
				Range: ix.bindAfter(doc, symbols, i),
				Text:  m[1],
				ID:    stableID(doc.Path, i, m[1]),
			})
			continue
		}

		// Form 3: global block opener; the contiguous comment lines below it
		// form the directive body.
		if globalRe.MatchString(rest) {
			var body []string
			j := i + 1
			for ; j < len(lines); j++ {
				text, ok := ix.commentText(lines[j])
				if !ok {
					break
				}
				body = append(body, strings.TrimPrefix(text, " "))
			}
			text := strings.Join(body, "\n")
			out = append(out, Directive{
				File:  doc.Path,
				Range: source.Range{}, // zero span marks a whole-file directive
				Text:  text,
				ID:    stableID(doc.Path, i, text),
			})
			i = j - 1
		}
	}
	return out
}

// commentText returns the text after the first matching comment marker.
func (ix *Indexer) commentText(line string) (string, bool) {
	for _, m := range ix.markers {
		if sub := m.FindStringSubmatch(line); sub != nil {
			return sub[1], true
		}
	}
	return "", false
}

// bindAfter resolves the range a directive on the given line governs: the
// next symbol's span, or the rest of the file starting one line below.
func (ix *Indexer) bindAfter(doc *source.Document, symbols []oracle.Symbol, line int) source.Range {
	if next := oracle.NextAfterLine(symbols, line); next != nil {
		return next.Range
	}
	last := doc.LineCount() - 1
	return doc.Clamp(source.Range{
		Start: source.Position{Line: line + 1},
		End:   source.Position{Line: last, Column: len(doc.Line(last))},
	})
}
