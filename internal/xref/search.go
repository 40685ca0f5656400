// Package xref finds symbol definitions and references related to a code
// snippet, combining the Symbol Oracle with a bounded text-based fallback.
package xref

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fakeyudi/promptmark/internal/oracle"
	"github.com/fakeyudi/promptmark/internal/source"
)

// RefKind classifies a cross-reference result.
type RefKind string

const (
	KindDefinition     RefKind = "definition"
	KindReference      RefKind = "reference"
	KindImplementation RefKind = "implementation"
)

// Reference is one cross-reference result for a named symbol.
type Reference struct {
	File   string       `json:"file"`
	Range  source.Range `json:"range"`
	Kind   RefKind      `json:"kind"`
	Symbol string       `json:"symbol"`
}

// Related is the full result of a cross-reference search over a snippet.
type Related struct {
	Definitions    []Reference
	References     []Reference
	RelatedSymbols []Reference
}

// Fan-out bounds. Unbounded search across a large workspace is the primary
// performance risk here; every stage is capped.
const (
	maxFallbackFiles = 50 // workspace files scanned per textual fallback
	maxFallbackDefs  = 3  // fallback definitions admitted per name
	maxRefsPerSymbol = 5  // oracle references admitted per symbol
	maxRelated       = 5  // related-symbol results in total
	cacheSize        = 512
)

// Workspace is the slice of the host filesystem the fallback search needs.
type Workspace interface {
	SourceFiles(limit int) []string
	ReadFile(path string) (string, error)
}

// Searcher performs cross-reference lookups with per-key caching. Caches are
// owned by the instance and cleared via ClearCache, never package statics.
type Searcher struct {
	oracle    oracle.Oracle
	ws        Workspace
	extractor Extractor

	defCache *lru.Cache[string, []Reference]
	refCache *lru.Cache[string, []Reference]
}

// NewSearcher builds a searcher over the given oracle and workspace. A nil
// extractor defaults to the regex strategy.
func NewSearcher(o oracle.Oracle, ws Workspace, extractor Extractor) (*Searcher, error) {
	if extractor == nil {
		extractor = RegexExtractor{}
	}
	defCache, err := lru.New[string, []Reference](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating definition cache: %w", err)
	}
	refCache, err := lru.New[string, []Reference](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating reference cache: %w", err)
	}
	return &Searcher{
		oracle:    o,
		ws:        ws,
		extractor: extractor,
		defCache:  defCache,
		refCache:  refCache,
	}, nil
}

// ClearCache drops all cached lookups.
func (s *Searcher) ClearCache() {
	s.defCache.Purge()
	s.refCache.Purge()
}

// FindRelated extracts candidate symbols from the given range of doc and
// returns their definitions, references, and related symbol declarations.
// Oracle failures and unreadable files contribute nothing.
func (s *Searcher) FindRelated(ctx context.Context, doc *source.Document, r source.Range) Related {
	var symbols []oracle.Symbol
	if s.oracle != nil {
		if syms, err := s.oracle.DocumentSymbols(ctx, doc); err == nil {
			symbols = syms
		}
	}

	candidates := s.extractor.Extract(doc, r, symbols)

	var out Related
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		out.Definitions = append(out.Definitions, s.definitions(ctx, doc, c)...)
		out.References = append(out.References, s.references(ctx, doc, c)...)

		if len(out.RelatedSymbols) < maxRelated {
			out.RelatedSymbols = append(out.RelatedSymbols, Reference{
				File:   doc.Path,
				Range:  source.Range{Start: c.Pos, End: c.Pos},
				Kind:   KindImplementation,
				Symbol: c.Name,
			})
		}
	}
	return out
}

// cacheKey identifies one lookup: document, declaration position, and name.
func cacheKey(doc *source.Document, c Candidate) string {
	return fmt.Sprintf("%s:%d:%d:%s", doc.Path, c.Pos.Line, c.Pos.Column, c.Name)
}

// definitions returns the definition sites for a candidate, consulting the
// oracle first and falling back to a bounded text search when it has nothing.
func (s *Searcher) definitions(ctx context.Context, doc *source.Document, c Candidate) []Reference {
	key := cacheKey(doc, c)
	if cached, ok := s.defCache.Get(key); ok {
		return cached
	}

	var out []Reference
	if s.oracle != nil {
		locs, err := s.oracle.Definitions(ctx, doc, c.Pos)
		if err == nil {
			for _, loc := range locs {
				// A definition that is just the declaration site we queried
				// from is a trivial self-match.
				if loc.File == doc.Path && loc.Range.Contains(c.Pos) {
					continue
				}
				out = append(out, Reference{File: loc.File, Range: loc.Range, Kind: KindDefinition, Symbol: c.Name})
			}
		}
	}

	if len(out) == 0 {
		out = s.textualDefinitions(ctx, doc, c.Name)
	}

	s.defCache.Add(key, out)
	return out
}

// references returns up to maxRefsPerSymbol reference sites for a candidate.
func (s *Searcher) references(ctx context.Context, doc *source.Document, c Candidate) []Reference {
	key := cacheKey(doc, c)
	if cached, ok := s.refCache.Get(key); ok {
		return cached
	}

	var out []Reference
	if s.oracle != nil {
		locs, err := s.oracle.References(ctx, doc, c.Pos)
		if err == nil {
			for _, loc := range locs {
				out = append(out, Reference{File: loc.File, Range: loc.Range, Kind: KindReference, Symbol: c.Name})
				if len(out) >= maxRefsPerSymbol {
					break
				}
			}
		}
	}

	s.refCache.Add(key, out)
	return out
}

// textualDefinitions scans up to maxFallbackFiles workspace files for
// declaration-shaped lines naming the symbol. Read failures skip the file.
func (s *Searcher) textualDefinitions(ctx context.Context, doc *source.Document, name string) []Reference {
	if s.ws == nil {
		return nil
	}

	pattern, err := regexp.Compile(`\b(?:class|interface|type|enum|function|const|let|var)\s+` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return nil
	}

	var out []Reference
	for _, path := range s.ws.SourceFiles(maxFallbackFiles) {
		if ctx.Err() != nil {
			break
		}
		if path == doc.Path {
			continue
		}
		text, err := s.ws.ReadFile(path)
		if err != nil {
			continue // skip unreadable files
		}
		for i, line := range strings.Split(text, "\n") {
			loc := pattern.FindStringIndex(line)
			if loc == nil {
				continue
			}
			out = append(out, Reference{
				File:   path,
				Range:  source.LineRange(i, i),
				Kind:   KindDefinition,
				Symbol: name,
			})
			if len(out) >= maxFallbackDefs {
				return out
			}
		}
	}
	return out
}
