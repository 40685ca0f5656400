package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fakeyudi/promptmark/internal/assembler"
	"github.com/fakeyudi/promptmark/internal/config"
	"github.com/fakeyudi/promptmark/internal/depgraph"
	"github.com/fakeyudi/promptmark/internal/directive"
	"github.com/fakeyudi/promptmark/internal/history"
	"github.com/fakeyudi/promptmark/internal/oracle"
	"github.com/fakeyudi/promptmark/internal/source"
	"github.com/fakeyudi/promptmark/internal/workspace"
	"github.com/fakeyudi/promptmark/internal/xref"
)

// oracleDocLimit caps the documents handed to the oracle for cross-file
// definition and reference lookups.
const oracleDocLimit = 50

// engine wires the full indexing and assembly pipeline over one workspace.
type engine struct {
	ws         *workspace.Workspace
	oracle     *oracle.TreeSitter
	directives *directive.Indexer
	deps       *depgraph.Resolver
	xrefs      *xref.Searcher
	ledger     *history.Ledger
	assembler  *assembler.Assembler
}

// newEngine builds the pipeline rooted at the current working directory.
func newEngine(c config.Config) (*engine, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	return newEngineAt(root, c)
}

// newEngineAt builds the pipeline rooted at root.
func newEngineAt(root string, c config.Config) (*engine, error) {
	ws := workspace.New(root, c.IgnorePatterns)

	o := oracle.NewTreeSitter(func() []*source.Document {
		var docs []*source.Document
		for _, path := range ws.SourceFiles(oracleDocLimit) {
			text, err := ws.ReadFile(path)
			if err != nil {
				continue
			}
			docs = append(docs, source.NewDocument(path, text))
		}
		return docs
	})

	directives := directive.NewIndexer(o, c.CommentMarkers)
	deps := depgraph.NewResolver(ws, &depgraph.RegexScanner{}, c.SourceExtensions)
	xrefs, err := xref.NewSearcher(o, ws, nil)
	if err != nil {
		return nil, fmt.Errorf("building cross-reference search: %w", err)
	}
	ledger := history.NewLedger()

	// Edits invalidate everything derived from file content.
	directives.Subscribe(func(string) {
		deps.ClearCache()
		xrefs.ClearCache()
	})

	return &engine{
		ws:         ws,
		oracle:     o,
		directives: directives,
		deps:       deps,
		xrefs:      xrefs,
		ledger:     ledger,
		assembler:  assembler.New(ws, o, directives, deps, xrefs, ledger, c.TokenBudget),
	}, nil
}

// indexFile reads and indexes one file's directives.
func (e *engine) indexFile(ctx context.Context, path string) error {
	text, err := e.ws.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	e.directives.Index(ctx, source.NewDocument(path, text))
	return nil
}

// indexAll scans every workspace source file into the directive index and
// returns how many files were indexed.
func (e *engine) indexAll(ctx context.Context) (int, error) {
	count := 0
	for _, path := range e.ws.SourceFiles(0) {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if err := e.indexFile(ctx, path); err != nil {
			continue
		}
		count++
	}
	return count, nil
}

// allDirectives flattens the index across every indexed file.
func (e *engine) allDirectives() []directive.Directive {
	var out []directive.Directive
	for _, file := range e.directives.Files() {
		out = append(out, e.directives.Directives(file)...)
	}
	return out
}
