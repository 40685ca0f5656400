package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/promptmark/internal/source"
)

const goFixture = `package demo

type Greeter struct {
	name string
}

func (g *Greeter) Greet() string {
	return "hello " + g.name
}

func NewGreeter(name string) *Greeter {
	return &Greeter{name: name}
}
`

func TestTreeSitterDocumentSymbolsGo(t *testing.T) {
	ts := NewTreeSitter(nil)
	doc := source.NewDocument("demo.go", goFixture)

	syms, err := ts.DocumentSymbols(context.Background(), doc)
	require.NoError(t, err)

	flat := Flatten(syms)
	byName := map[string]Symbol{}
	for _, s := range flat {
		byName[s.Name] = s
	}

	greeter, ok := byName["Greeter"]
	require.True(t, ok, "expected Greeter type symbol")
	assert.Equal(t, KindType, greeter.Kind)

	greet, ok := byName["Greet"]
	require.True(t, ok, "expected Greet method symbol")
	assert.Equal(t, KindMethod, greet.Kind)
	assert.Greater(t, greet.Range.Start.Line, greeter.Range.Start.Line)

	ctor, ok := byName["NewGreeter"]
	require.True(t, ok, "expected NewGreeter function symbol")
	assert.Equal(t, KindFunction, ctor.Kind)
}

func TestTreeSitterUnsupportedExtension(t *testing.T) {
	ts := NewTreeSitter(nil)
	doc := source.NewDocument("notes.txt", "not source code")

	syms, err := ts.DocumentSymbols(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, syms, "unregistered extension should yield no symbols")
}

func TestTreeSitterDefinitionsAcrossDocuments(t *testing.T) {
	other := source.NewDocument("lib.go", "package demo\n\nfunc Helper() int { return 1 }\n")
	caller := source.NewDocument("main.go", "package demo\n\nfunc run() int {\n\treturn Helper()\n}\n")

	ts := NewTreeSitter(func() []*source.Document {
		return []*source.Document{other, caller}
	})

	// Position of "Helper" on line 3 of main.go.
	defs, err := ts.Definitions(context.Background(), caller, source.Position{Line: 3, Column: 9})
	require.NoError(t, err)
	require.NotEmpty(t, defs, "expected a definition for Helper")
	assert.Equal(t, "lib.go", defs[0].File)
}

func TestTreeSitterReferences(t *testing.T) {
	doc := source.NewDocument("ref.go", "package demo\n\nfunc target() {}\n\nfunc use() {\n\ttarget()\n\ttarget()\n}\n")
	ts := NewTreeSitter(nil)

	// Position of the "target" declaration name on line 2.
	refs, err := ts.References(context.Background(), doc, source.Position{Line: 2, Column: 6})
	require.NoError(t, err)
	// Declaration identifier plus two call sites.
	assert.Len(t, refs, 3)
}

func TestTreeSitterDocumentSymbolsJava(t *testing.T) {
	javaSrc := "public class Widget {\n    public int size() {\n        return 1;\n    }\n}\n"
	ts := NewTreeSitter(nil)
	doc := source.NewDocument("Widget.java", javaSrc)

	syms, err := ts.DocumentSymbols(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "Widget", syms[0].Name)
	assert.Equal(t, KindClass, syms[0].Kind)
	require.Len(t, syms[0].Children, 1)
	assert.Equal(t, "size", syms[0].Children[0].Name)
}
