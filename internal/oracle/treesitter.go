package oracle

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/fakeyudi/promptmark/internal/source"
)

// DocumentSource supplies the set of documents a TreeSitter oracle may search
// when resolving definitions and references. Typically the open documents of
// the host plus a bounded slice of the workspace.
type DocumentSource func() []*source.Document

// maxLookupDocs bounds how many documents a definition or reference lookup
// will parse. Lookups past the bound silently return what was found so far.
const maxLookupDocs = 50

// TreeSitter is an Oracle backed by tree-sitter grammars. Grammars are
// registered per file extension; documents with an unregistered extension
// yield no symbols, which callers treat as "oracle unavailable".
type TreeSitter struct {
	languages map[string]*sitter.Language
	kinds     map[string]map[string]SymbolKind // extension → node kind → symbol kind
	docs      DocumentSource
}

// NewTreeSitter builds an oracle with the Go and Java grammars registered.
// docs may be nil, in which case definition and reference lookups only see
// the queried document itself.
func NewTreeSitter(docs DocumentSource) *TreeSitter {
	ts := &TreeSitter{
		languages: make(map[string]*sitter.Language),
		kinds:     make(map[string]map[string]SymbolKind),
		docs:      docs,
	}
	ts.Register(".go", sitter.NewLanguage(tree_sitter_go.Language()), goNodeKinds)
	ts.Register(".java", sitter.NewLanguage(tree_sitter_java.Language()), javaNodeKinds)
	return ts
}

// Register adds a grammar for the given file extension (leading dot) together
// with its node-kind classification table.
func (ts *TreeSitter) Register(ext string, lang *sitter.Language, kinds map[string]SymbolKind) {
	ts.languages[ext] = lang
	ts.kinds[ext] = kinds
}

var goNodeKinds = map[string]SymbolKind{
	"function_declaration": KindFunction,
	"method_declaration":   KindMethod,
	"type_spec":            KindType,
	"const_spec":           KindConstant,
	"var_spec":             KindVariable,
}

var javaNodeKinds = map[string]SymbolKind{
	"class_declaration":       KindClass,
	"interface_declaration":   KindInterface,
	"enum_declaration":        KindEnum,
	"record_declaration":      KindClass,
	"method_declaration":      KindMethod,
	"constructor_declaration": KindMethod,
}

// parse returns the parsed tree for doc, or nil when no grammar is registered
// for the document's extension. The caller must Close a non-nil tree.
func (ts *TreeSitter) parse(doc *source.Document) (*sitter.Tree, map[string]SymbolKind, error) {
	ext := strings.ToLower(filepath.Ext(doc.Path))
	lang, ok := ts.languages[ext]
	if !ok {
		return nil, nil, nil
	}

	p := sitter.NewParser()
	defer p.Close()
	if err := p.SetLanguage(lang); err != nil {
		return nil, nil, fmt.Errorf("setting grammar for %s: %w", ext, err)
	}

	tree := p.Parse([]byte(doc.Text), nil)
	if tree == nil {
		return nil, nil, fmt.Errorf("tree-sitter failed to parse %s", doc.Path)
	}
	return tree, ts.kinds[ext], nil
}

// DocumentSymbols walks the AST and builds a hierarchical symbol tree from
// the nodes classified by the language's node-kind table.
func (ts *TreeSitter) DocumentSymbols(ctx context.Context, doc *source.Document) ([]Symbol, error) {
	tree, kinds, err := ts.parse(doc)
	if err != nil || tree == nil {
		return nil, err
	}
	defer tree.Close()

	src := []byte(doc.Text)
	return collectSymbols(tree.RootNode(), src, kinds), nil
}

// collectSymbols recurses over the AST. Classified nodes become symbols whose
// children are collected from the node's subtree; everything else is
// transparent.
func collectSymbols(n *sitter.Node, src []byte, kinds map[string]SymbolKind) []Symbol {
	var out []Symbol
	for i := uint(0); i < uint(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		kind, ok := kinds[child.Kind()]
		if !ok {
			out = append(out, collectSymbols(child, src, kinds)...)
			continue
		}
		name, nameNode := nodeName(child, src)
		if name == "" {
			out = append(out, collectSymbols(child, src, kinds)...)
			continue
		}
		sym := Symbol{
			Name:     name,
			Kind:     kind,
			Range:    nodeRange(child),
			Children: collectSymbols(child, src, kinds),
		}
		if nameNode != nil {
			sym.SelectionRange = nodeRange(nameNode)
		} else {
			sym.SelectionRange = sym.Range
		}
		out = append(out, sym)
	}
	return out
}

// nodeName returns the declared name of a definition node, preferring the
// grammar's "name" field and falling back to the first identifier child.
func nodeName(n *sitter.Node, src []byte) (string, *sitter.Node) {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Utf8Text(src), nameNode
	}
	for i := uint(0); i < uint(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier", "type_identifier", "field_identifier":
			return child.Utf8Text(src), child
		}
	}
	return "", nil
}

func nodeRange(n *sitter.Node) source.Range {
	return source.Range{
		Start: source.Position{Line: int(n.StartPosition().Row), Column: int(n.StartPosition().Column)},
		End:   source.Position{Line: int(n.EndPosition().Row), Column: int(n.EndPosition().Column)},
	}
}

// Definitions resolves the identifier at pos and returns the selection ranges
// of matching symbol declarations across the oracle's document set.
func (ts *TreeSitter) Definitions(ctx context.Context, doc *source.Document, pos source.Position) ([]source.Location, error) {
	name := ts.identifierAt(doc, pos)
	if name == "" {
		return nil, nil
	}

	var out []source.Location
	for _, d := range ts.lookupDocs(doc) {
		if ctx.Err() != nil {
			break
		}
		syms, err := ts.DocumentSymbols(ctx, d)
		if err != nil {
			continue // unparseable document contributes nothing
		}
		for _, s := range Flatten(syms) {
			if s.Name == name {
				out = append(out, source.Location{File: d.Path, Range: s.Range})
			}
		}
	}
	return out, nil
}

// References resolves the identifier at pos and returns every occurrence of
// that identifier across the oracle's document set.
func (ts *TreeSitter) References(ctx context.Context, doc *source.Document, pos source.Position) ([]source.Location, error) {
	name := ts.identifierAt(doc, pos)
	if name == "" {
		return nil, nil
	}

	var out []source.Location
	for _, d := range ts.lookupDocs(doc) {
		if ctx.Err() != nil {
			break
		}
		tree, _, err := ts.parse(d)
		if err != nil || tree == nil {
			continue
		}
		src := []byte(d.Text)
		collectIdentifiers(tree.RootNode(), src, name, d.Path, &out)
		tree.Close()
	}
	return out, nil
}

// lookupDocs returns the bounded document set for a lookup, always including
// the queried document first.
func (ts *TreeSitter) lookupDocs(doc *source.Document) []*source.Document {
	out := []*source.Document{doc}
	if ts.docs == nil {
		return out
	}
	for _, d := range ts.docs() {
		if d.Path == doc.Path {
			continue
		}
		out = append(out, d)
		if len(out) >= maxLookupDocs {
			break
		}
	}
	return out
}

// identifierAt returns the text of the identifier-like node containing pos.
func (ts *TreeSitter) identifierAt(doc *source.Document, pos source.Position) string {
	tree, _, err := ts.parse(doc)
	if err != nil || tree == nil {
		return ""
	}
	defer tree.Close()

	src := []byte(doc.Text)
	n := deepestAt(tree.RootNode(), pos)
	for n != nil {
		switch n.Kind() {
		case "identifier", "type_identifier", "field_identifier", "package_identifier":
			return n.Utf8Text(src)
		}
		n = n.Parent()
	}
	return ""
}

// deepestAt descends to the deepest node whose span contains pos.
func deepestAt(n *sitter.Node, pos source.Position) *sitter.Node {
	for {
		var next *sitter.Node
		for i := uint(0); i < uint(n.ChildCount()); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if nodeRange(child).Contains(pos) {
				next = child
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

// collectIdentifiers appends a location for every identifier node in the
// subtree whose text equals name.
func collectIdentifiers(n *sitter.Node, src []byte, name, path string, out *[]source.Location) {
	switch n.Kind() {
	case "identifier", "type_identifier", "field_identifier":
		if n.Utf8Text(src) == name {
			*out = append(*out, source.Location{File: path, Range: nodeRange(n)})
		}
		return
	}
	for i := uint(0); i < uint(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil {
			collectIdentifiers(child, src, name, path, out)
		}
	}
}
