package assembler

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fakeyudi/promptmark/internal/depgraph"
	"github.com/fakeyudi/promptmark/internal/directive"
	"github.com/fakeyudi/promptmark/internal/history"
	"github.com/fakeyudi/promptmark/internal/oracle"
	"github.com/fakeyudi/promptmark/internal/source"
	"github.com/fakeyudi/promptmark/internal/xref"
)

// Workspace is the slice of the host filesystem assembly needs.
type Workspace interface {
	Root() string
	ReadFile(path string) (string, error)
	Rel(path string) string
	SourceFiles(limit int) []string
	FindFiles(pattern string, limit int) []string
	ChangedFiles(limit int) []string
}

// Importance scoring constants. Definitions rank above references; intent
// matches and directive presence raise related files above the admission bar.
const (
	importanceCurrent   = 1.0
	importanceBase      = 0.5
	boostDefinition     = 0.3
	boostReference      = 0.1
	boostIntentMatch    = 0.3
	boostHasDirectives  = 0.2
	historyDecay        = 0.7
	admissionFloor      = 0.3
	truncationThreshold = 0.8
)

// Fan-out bounds per call site.
const (
	maxRelatedFiles  = 10  // related-file union size
	maxImporterScan  = 100 // files read while looking for importers
	maxSimilarNames  = 10  // similar-basename candidates
	maxHistoryFiles  = 10  // files pulled from conversation history
	maxHistoryItems  = 3   // recently-modified items appended at the end
	maxReferenceItem = 3   // reference-derived items from cross-reference search
	historyTurns     = 3   // turns carried on the assembled context
)

var testPathRe = regexp.MustCompile(`(\.test\.|\.spec\.|_test\.|__tests__)`)

// Request is one context-assembly invocation.
type Request struct {
	Intent    string
	File      string           // optional target file
	Selection *source.Range    // active selection, if any
	Cursor    *source.Position // cursor position when the selection is empty
}

// Assembler orchestrates directives, dependencies, cross-references, and
// conversation history into a budget-fitted ProjectContext. All collaborators
// are injected; the assembler owns no global state.
type Assembler struct {
	ws         Workspace
	oracle     oracle.Oracle
	directives *directive.Indexer
	deps       *depgraph.Resolver
	xrefs      *xref.Searcher
	ledger     *history.Ledger
	budget     int
}

// New builds an assembler with the given token budget; a non-positive budget
// falls back to the 8000-token default.
func New(ws Workspace, o oracle.Oracle, ix *directive.Indexer, deps *depgraph.Resolver, xrefs *xref.Searcher, ledger *history.Ledger, budget int) *Assembler {
	if budget <= 0 {
		budget = 8000
	}
	return &Assembler{
		ws:         ws,
		oracle:     o,
		directives: ix,
		deps:       deps,
		xrefs:      xrefs,
		ledger:     ledger,
		budget:     budget,
	}
}

// ClearCache drops the dependency and cross-reference caches.
func (a *Assembler) ClearCache() {
	if a.deps != nil {
		a.deps.ClearCache()
	}
	if a.xrefs != nil {
		a.xrefs.ClearCache()
	}
}

// Assemble builds a fresh ProjectContext for the request. Stages run in
// strict order and each missing signal (unreadable file, absent oracle)
// degrades to "no contribution".
func (a *Assembler) Assemble(ctx context.Context, req Request) (*ProjectContext, error) {
	pc := &ProjectContext{
		Workspace: WorkspaceInfo{Root: a.ws.Root()},
	}

	// Stage 1: the current item.
	current, doc := a.currentItem(ctx, req)
	if current != nil {
		pc.Items = append(pc.Items, *current)
	}

	// Stage 2: cross-reference expansion over the current item.
	if current != nil && a.xrefs != nil {
		a.addCrossReferences(ctx, pc, doc, current.Range)
	}

	// Stage 3: the related-file union.
	for _, file := range a.relatedFiles(ctx, req, doc) {
		item, ok := a.buildFileItem(ctx, file, req.Intent, 1.0)
		if !ok {
			continue
		}
		a.admit(pc, item)
	}

	// Stage 4: recently-modified history files at decayed importance.
	if a.ledger != nil {
		count := 0
		for _, file := range a.ledger.RecentFiles(maxHistoryFiles) {
			if count >= maxHistoryItems {
				break
			}
			item, ok := a.buildFileItem(ctx, file, req.Intent, historyDecay)
			if !ok {
				continue
			}
			if a.admit(pc, item) {
				count++
			}
		}
	}

	// Stage 5: budget fitting and final accounting.
	a.fitToBudget(pc)
	for _, item := range pc.Items {
		if item.Truncated {
			pc.Warnings = append(pc.Warnings,
				fmt.Sprintf("%s truncated to fit the %d-token budget", item.File, a.budget))
		}
	}

	if a.ledger != nil {
		pc.ConversationHistory = a.ledger.RecentTurns(historyTurns)
	}
	pc.Workspace.FileCount = len(a.ws.SourceFiles(0))

	return pc, nil
}

// currentItem resolves the snippet the request is about: the selection, the
// innermost symbol around the cursor, or the whole file.
func (a *Assembler) currentItem(ctx context.Context, req Request) (*ContextItem, *source.Document) {
	if req.File == "" {
		return nil, nil
	}
	text, err := a.ws.ReadFile(req.File)
	if err != nil {
		return nil, nil
	}
	doc := source.NewDocument(req.File, text)

	var symbols []oracle.Symbol
	if a.oracle != nil {
		if syms, oerr := a.oracle.DocumentSymbols(ctx, doc); oerr == nil {
			symbols = syms
		}
	}

	r := doc.Clamp(source.LineRange(0, doc.LineCount()-1)) // whole file as last resort
	switch {
	case req.Selection != nil && !req.Selection.IsZero():
		r = doc.Clamp(*req.Selection)
	case req.Cursor != nil:
		if sym := oracle.InnermostEnclosing(symbols, *req.Cursor); sym != nil {
			r = sym.Range
		}
	}

	return &ContextItem{
		File:       req.File,
		Range:      r,
		Content:    doc.Slice(r),
		Importance: importanceCurrent,
		Type:       TypeCurrent,
		Symbols:    oracle.InRange(symbols, r),
	}, doc
}

// addCrossReferences turns the current item's definitions into import items
// and its first references into related items, with ranges expanded to the
// full enclosing symbol.
func (a *Assembler) addCrossReferences(ctx context.Context, pc *ProjectContext, doc *source.Document, r source.Range) {
	related := a.xrefs.FindRelated(ctx, doc, r)

	for _, def := range related.Definitions {
		item, ok := a.buildSymbolItem(ctx, def, TypeImport, importanceBase+boostDefinition)
		if !ok {
			continue
		}
		a.admit(pc, item)
	}

	for i, ref := range related.References {
		if i >= maxReferenceItem {
			break
		}
		item, ok := a.buildSymbolItem(ctx, ref, TypeRelated, importanceBase+boostReference)
		if !ok {
			continue
		}
		a.admit(pc, item)
	}
}

// buildSymbolItem reads the reference's file and expands its range to the
// innermost enclosing symbol.
func (a *Assembler) buildSymbolItem(ctx context.Context, ref xref.Reference, t ItemType, importance float64) (ContextItem, bool) {
	text, err := a.ws.ReadFile(ref.File)
	if err != nil {
		return ContextItem{}, false
	}
	doc := source.NewDocument(ref.File, text)

	r := doc.Clamp(ref.Range)
	var symbols []oracle.Symbol
	if a.oracle != nil {
		if syms, oerr := a.oracle.DocumentSymbols(ctx, doc); oerr == nil {
			symbols = syms
			if sym := oracle.InnermostEnclosing(syms, r.Start); sym != nil {
				r = sym.Range
			}
		}
	}

	return ContextItem{
		File:       ref.File,
		Range:      r,
		Content:    doc.Slice(r),
		Importance: importance,
		Type:       t,
		Symbols:    oracle.InRange(symbols, r),
	}, true
}

// buildFileItem builds a full-file item scored by the related-file rules,
// with the final importance multiplied by decay.
func (a *Assembler) buildFileItem(ctx context.Context, file, intent string, decay float64) (ContextItem, bool) {
	text, err := a.ws.ReadFile(file)
	if err != nil {
		return ContextItem{}, false
	}
	doc := source.NewDocument(file, text)

	importance := importanceBase
	if intent != "" && strings.Contains(strings.ToLower(text), strings.ToLower(intent)) {
		importance += boostIntentMatch
	}
	if a.directives != nil && len(a.directives.ForFile(file)) > 0 {
		importance += boostHasDirectives
	}
	importance *= decay

	t := TypeRelated
	if testPathRe.MatchString(file) {
		t = TypeTest
	}

	return ContextItem{
		File:       file,
		Range:      doc.Clamp(source.LineRange(0, doc.LineCount()-1)),
		Content:    text,
		Importance: importance,
		Type:       t,
	}, true
}

// admit applies the admission rule: never two items for one file, and either
// the importance clears the floor or a test item joins a context that already
// talks about tests.
func (a *Assembler) admit(pc *ProjectContext, item ContextItem) bool {
	if pc.HasFile(item.File) {
		return false
	}
	if item.Importance > admissionFloor {
		pc.Items = append(pc.Items, item)
		return true
	}
	if item.Type == TypeTest {
		for _, existing := range pc.Items {
			if strings.Contains(strings.ToLower(existing.Content), "test") {
				pc.Items = append(pc.Items, item)
				return true
			}
		}
	}
	return false
}

// relatedFiles computes the bounded union of related-file signals, in signal
// order, excluding the current file.
func (a *Assembler) relatedFiles(ctx context.Context, req Request, doc *source.Document) []string {
	var out []string
	seen := map[string]bool{}
	if req.File != "" {
		seen[req.File] = true
	}
	add := func(file string) {
		if file == "" || seen[file] || len(out) >= maxRelatedFiles {
			return
		}
		seen[file] = true
		out = append(out, file)
	}

	// Direct dependency edges.
	if a.deps != nil && req.File != "" {
		for _, dep := range a.deps.DependenciesOf(req.File) {
			add(dep)
		}
	}

	// Importers: files whose text mentions this file.
	if req.File != "" {
		for _, f := range a.importers(ctx, req.File) {
			add(f)
		}
	}

	// Test files when the intent asks about tests.
	if strings.Contains(strings.ToLower(req.Intent), "test") {
		for _, pattern := range []string{"*.test.*", "*.spec.*", "*_test.*"} {
			for _, f := range a.ws.FindFiles(pattern, 5) {
				add(f)
			}
		}
	}

	// Files touched by recent conversation turns.
	if a.ledger != nil {
		for _, f := range a.ledger.RecentFiles(maxHistoryFiles) {
			add(f)
		}
	}

	// Similar base names.
	if req.File != "" {
		for _, f := range a.similarNames(req.File) {
			add(f)
		}
	}

	// Uncommitted VCS changes, best-effort.
	for _, f := range a.ws.ChangedFiles(maxRelatedFiles) {
		add(f)
	}

	return out
}

// importers scans up to maxImporterScan workspace files for mentions of the
// target's relative path or base name.
func (a *Assembler) importers(ctx context.Context, file string) []string {
	rel := a.ws.Rel(file)
	base := filepath.Base(file)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var out []string
	for _, path := range a.ws.SourceFiles(maxImporterScan) {
		if ctx.Err() != nil {
			break
		}
		if path == file {
			continue
		}
		text, err := a.ws.ReadFile(path)
		if err != nil {
			continue
		}
		if strings.Contains(text, rel) || strings.Contains(text, stem) {
			out = append(out, path)
		}
	}
	return out
}

// similarNames returns workspace files sharing the target's base-name stem.
func (a *Assembler) similarNames(file string) []string {
	base := filepath.Base(file)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	stem = strings.TrimSuffix(strings.TrimSuffix(stem, ".test"), ".spec")

	var out []string
	for _, path := range a.ws.SourceFiles(0) {
		if path == file {
			continue
		}
		other := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if strings.Contains(other, stem) || strings.Contains(stem, other) {
			out = append(out, path)
			if len(out) >= maxSimilarNames {
				break
			}
		}
	}
	return out
}

// Budget returns the configured token budget.
func (a *Assembler) Budget() int {
	return a.budget
}

// DescribeItem renders a one-line human summary of an item, used by callers
// for logs and listings.
func DescribeItem(item ContextItem) string {
	return fmt.Sprintf("%-8s %.2f %5dtok %s", item.Type, item.Importance, item.Tokens(), item.File)
}
