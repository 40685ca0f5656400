package payload_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/promptmark/internal/assembler"
	"github.com/fakeyudi/promptmark/internal/directive"
	"github.com/fakeyudi/promptmark/internal/history"
	"github.com/fakeyudi/promptmark/internal/payload"
	"github.com/fakeyudi/promptmark/internal/source"
)

// generateTime produces an arbitrary time.Time truncated to second precision
// (matches JSON round-trip fidelity via RFC3339).
func generateTime(t *rapid.T, label string) time.Time {
	sec := rapid.Int64Range(1_000_000_000, 1_700_000_000).Draw(t, label+"_unix_sec")
	return time.Unix(sec, 0).UTC()
}

func generateRange(t *rapid.T, label string) source.Range {
	start := rapid.IntRange(0, 500).Draw(t, label+"_start")
	end := start + rapid.IntRange(0, 50).Draw(t, label+"_span")
	return source.LineRange(start, end)
}

// generatePayload produces a fully-populated *payload.PromptPayload with at
// least one entry in every collection field.
func generatePayload(t *rapid.T) *payload.PromptPayload {
	numItems := rapid.IntRange(1, 4).Draw(t, "num_items")
	items := make([]assembler.ContextItem, numItems)
	total := 0
	for i := range items {
		items[i] = assembler.ContextItem{
			File:       rapid.StringN(1, 40, -1).Draw(t, "item_file"),
			Range:      generateRange(t, "item_range"),
			Content:    rapid.StringN(1, 200, -1).Draw(t, "item_content"),
			Importance: rapid.Float64Range(0, 1).Draw(t, "item_importance"),
			Type:       assembler.TypeRelated,
			Truncated:  rapid.Bool().Draw(t, "item_truncated"),
		}
		total += items[i].Tokens()
	}
	items[0].Type = assembler.TypeCurrent

	numTurns := rapid.IntRange(1, 3).Draw(t, "num_turns")
	turns := make([]history.Turn, numTurns)
	for i := range turns {
		turns[i] = history.Turn{
			ID:            rapid.StringN(1, 36, -1).Draw(t, "turn_id"),
			Request:       rapid.StringN(1, 60, -1).Draw(t, "turn_request"),
			Response:      rapid.StringN(1, 60, -1).Draw(t, "turn_response"),
			FilesModified: []string{rapid.StringN(1, 40, -1).Draw(t, "turn_file")},
			Timestamp:     generateTime(t, "turn_ts"),
		}
	}

	numDirectives := rapid.IntRange(1, 3).Draw(t, "num_directives")
	directives := make([]directive.Directive, numDirectives)
	for i := range directives {
		directives[i] = directive.Directive{
			File:  rapid.StringN(1, 40, -1).Draw(t, "dir_file"),
			Range: generateRange(t, "dir_range"),
			Text:  rapid.StringN(1, 80, -1).Draw(t, "dir_text"),
			ID:    rapid.StringN(1, 20, -1).Draw(t, "dir_id"),
		}
	}

	return &payload.PromptPayload{
		Meta: payload.Meta{
			ID:          rapid.StringN(1, 36, -1).Draw(t, "meta_id"),
			CreatedAt:   generateTime(t, "meta_created"),
			Workspace:   rapid.StringN(1, 50, -1).Draw(t, "meta_workspace"),
			TokenBudget: rapid.IntRange(1, 100_000).Draw(t, "meta_budget"),
			Version:     payload.PayloadVersion,
		},
		Intent: rapid.StringN(1, 60, -1).Draw(t, "intent"),
		Context: &assembler.ProjectContext{
			Items:               items,
			TotalTokens:         total,
			ConversationHistory: turns,
			Workspace: assembler.WorkspaceInfo{
				Root:      rapid.StringN(1, 50, -1).Draw(t, "ws_root"),
				FileCount: rapid.IntRange(0, 10_000).Draw(t, "ws_files"),
			},
		},
		Directives: directives,
	}
}

func TestJSONRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		original := generatePayload(t)

		data, err := (&payload.JSONRenderer{}).Render(original)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		parsed, err := (&payload.JSONParser{}).Parse(data)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if !reflect.DeepEqual(original, parsed) {
			t.Fatalf("round trip mismatch:\noriginal: %+v\nparsed:   %+v", original, parsed)
		}
	})
}

func TestMarkdownRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		original := generatePayload(t)

		data, err := (&payload.MarkdownRenderer{}).Render(original)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		parsed, err := (&payload.MarkdownParser{}).Parse(data)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if !reflect.DeepEqual(original, parsed) {
			t.Fatalf("round trip mismatch:\noriginal: %+v\nparsed:   %+v", original, parsed)
		}
	})
}

func TestMarkdownSections(t *testing.T) {
	p := payload.New("add error handling", &assembler.ProjectContext{
		Items: []assembler.ContextItem{{
			File:       "src/data.ts",
			Range:      source.LineRange(2, 4),
			Content:    "function processData(input) {\n  return input;\n}",
			Importance: 1.0,
			Type:       assembler.TypeCurrent,
		}},
		TotalTokens: 12,
		Workspace:   assembler.WorkspaceInfo{Root: "/ws", FileCount: 7},
		Warnings:    []string{"oracle unavailable, fell back to text search"},
	}, []directive.Directive{{
		File: "src/data.ts",
		Text: "always validate input",
		ID:   "d-1",
	}}, 8000)

	data, err := (&payload.MarkdownRenderer{}).Render(p)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"<!-- promptmark-payload-version: 1 -->",
		"<!-- promptmark-data: ",
		"## Summary",
		"- Intent: add error handling",
		"- Token budget: 8000",
		"## Directives",
		"always validate input",
		"(global)",
		"## Context Items",
		"### src/data.ts",
		"importance 1.00, lines 3-5",
		"processData",
		"## Conversation History",
		"_No prior turns._",
		"## Warnings",
		"oracle unavailable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered markdown missing %q", want)
		}
	}
}

func TestMarkdownParserRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"no sentinel":    "# Just a readme\n",
		"missing data":   "<!-- promptmark-payload-version: 1 -->\n# Title\n",
		"malformed data": "<!-- promptmark-payload-version: 1 -->\n<!-- promptmark-data: abc\n",
		"corrupt base64": "<!-- promptmark-payload-version: 1 -->\n<!-- promptmark-data: !!! -->\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := (&payload.MarkdownParser{}).Parse([]byte(input)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseFileDetectsFormat(t *testing.T) {
	p := payload.New("", &assembler.ProjectContext{Workspace: assembler.WorkspaceInfo{Root: "/ws"}}, nil, 8000)

	md, err := (&payload.MarkdownRenderer{}).Render(p)
	if err != nil {
		t.Fatalf("Render markdown: %v", err)
	}
	js, err := (&payload.JSONRenderer{}).Render(p)
	if err != nil {
		t.Fatalf("Render json: %v", err)
	}

	if got, err := payload.ParseFile(md); err != nil || got.Meta.ID != p.Meta.ID {
		t.Fatalf("ParseFile(markdown): %v", err)
	}
	if got, err := payload.ParseFile(js); err != nil || got.Meta.ID != p.Meta.ID {
		t.Fatalf("ParseFile(json): %v", err)
	}
}

func TestWriteAndReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "context.md")

	p := payload.New("tidy up", &assembler.ProjectContext{Workspace: assembler.WorkspaceInfo{Root: "/ws"}}, nil, 4000)
	data, err := (&payload.MarkdownRenderer{}).Render(p)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if err := payload.WriteFile(path, data); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the payload file, found %d entries", len(entries))
	}

	got, err := payload.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.Intent != "tidy up" || got.Meta.TokenBudget != 4000 {
		t.Fatalf("read back %+v", got)
	}
}
