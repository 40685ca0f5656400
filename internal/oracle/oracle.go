// Package oracle defines the structural-facts interface the indexer and
// assembler consume: per-document symbol trees plus definition and reference
// lookups. Implementations are best-effort; an oracle that cannot answer
// returns empty results, never an error the caller must handle specially.
package oracle

import (
	"context"

	"github.com/fakeyudi/promptmark/internal/source"
)

// SymbolKind classifies a symbol in the tree.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindType      SymbolKind = "type"
	KindConstant  SymbolKind = "constant"
	KindVariable  SymbolKind = "variable"
	KindField     SymbolKind = "field"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
	KindClass     SymbolKind = "class"
)

// Symbol is one node of a hierarchical document symbol tree.
type Symbol struct {
	Name           string       `json:"name"`
	Kind           SymbolKind   `json:"kind"`
	Range          source.Range `json:"range"`           // full defining span
	SelectionRange source.Range `json:"selection_range"` // the name token
	Children       []Symbol     `json:"children,omitempty"`
}

// Oracle supplies structural facts about source documents. Every method may
// return empty results when the oracle has no answer for the document; that
// is the normal "unavailable" signal, not a failure.
type Oracle interface {
	// DocumentSymbols returns the hierarchical symbol tree for doc.
	DocumentSymbols(ctx context.Context, doc *source.Document) ([]Symbol, error)
	// Definitions returns locations defining the symbol at pos in doc.
	Definitions(ctx context.Context, doc *source.Document, pos source.Position) ([]source.Location, error)
	// References returns locations referencing the symbol at pos in doc.
	References(ctx context.Context, doc *source.Document, pos source.Position) ([]source.Location, error)
}

// Flatten returns the symbol tree as a pre-order flat list.
func Flatten(symbols []Symbol) []Symbol {
	var out []Symbol
	var walk func([]Symbol)
	walk = func(syms []Symbol) {
		for _, s := range syms {
			out = append(out, s)
			walk(s.Children)
		}
	}
	walk(symbols)
	return out
}

// NextAfterLine returns the first symbol (in the flattened tree) whose
// defining range starts strictly after line, or nil when none follows.
func NextAfterLine(symbols []Symbol, line int) *Symbol {
	var best *Symbol
	for _, s := range Flatten(symbols) {
		if s.Range.Start.Line <= line {
			continue
		}
		if best == nil || s.Range.Start.Line < best.Range.Start.Line {
			c := s
			best = &c
		}
	}
	return best
}

// InnermostEnclosing returns the smallest symbol whose range contains pos,
// found by a top-down recursive descent, or nil when no symbol contains it.
func InnermostEnclosing(symbols []Symbol, pos source.Position) *Symbol {
	for i := range symbols {
		s := &symbols[i]
		if !s.Range.Contains(pos) {
			continue
		}
		if inner := InnermostEnclosing(s.Children, pos); inner != nil {
			return inner
		}
		return s
	}
	return nil
}

// InRange returns the flattened symbols whose ranges intersect r.
func InRange(symbols []Symbol, r source.Range) []Symbol {
	var out []Symbol
	for _, s := range Flatten(symbols) {
		if s.Range.Intersects(r) {
			out = append(out, s)
		}
	}
	return out
}
