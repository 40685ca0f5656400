package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/promptmark/internal/directive"
	"github.com/fakeyudi/promptmark/internal/payload"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// setupWorkspace creates a temp workspace, isolates HOME so no real profile or
// config is read, and chdirs into it for the duration of the test.
func setupWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	ws := t.TempDir()
	for name, content := range files {
		path := filepath.Join(ws, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	t.Chdir(ws)
	return ws
}

// resetAssembleFlags restores assemble flag state between runs; cobra only
// overwrites flag vars that are explicitly passed.
func resetAssembleFlags() {
	assembleIntent = ""
	assembleFile = ""
	assembleLine = 0
	assembleStart = 0
	assembleEnd = 0
	assembleFormat = ""
	assembleOutput = ""
	assembleBudget = 0
	assembleStdout = false
}

func TestDirectivesCommandListsDirectives(t *testing.T) {
	setupWorkspace(t, map[string]string{
		"data.ts": strings.Join([]string{
			"// ai: never mutate the input",
			"export function processData(input) {",
			"  return input;",
			"}",
		}, "\n"),
	})

	out, err := executeCommand(rootCmd, "directives")
	if err != nil {
		t.Fatalf("directives: %v\n%s", err, out)
	}
	if !strings.Contains(out, "never mutate the input") {
		t.Errorf("output missing directive text:\n%s", out)
	}
	if !strings.Contains(out, "data.ts") {
		t.Errorf("output missing file grouping:\n%s", out)
	}
}

func TestDirectivesCommandEmptyWorkspace(t *testing.T) {
	setupWorkspace(t, map[string]string{"plain.ts": "export const x = 1;"})

	out, err := executeCommand(rootCmd, "directives")
	if err != nil {
		t.Fatalf("directives: %v", err)
	}
	if !strings.Contains(out, "no directives found") {
		t.Errorf("expected empty-index message, got:\n%s", out)
	}
}

func TestDirectivesCommandJSON(t *testing.T) {
	setupWorkspace(t, map[string]string{
		"a.ts": "// @prompt(\"validate all inputs\", \"check-inputs\")\nfunction f() {}",
	})

	out, err := executeCommand(rootCmd, "directives", "--json")
	if err != nil {
		t.Fatalf("directives --json: %v", err)
	}

	var directives []directive.Directive
	if err := json.Unmarshal([]byte(out), &directives); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if len(directives) != 1 {
		t.Fatalf("directives = %d, want 1", len(directives))
	}
	if directives[0].Text != "validate all inputs" || directives[0].ID != "check-inputs" {
		t.Errorf("parsed directive = %+v", directives[0])
	}
}

func TestAssembleStdoutJSON(t *testing.T) {
	ws := setupWorkspace(t, map[string]string{
		"data.ts": "import { helper } from './util';\nexport function processData(x) { return helper(x); }",
		"util.ts": "export function helper(x) { return x; }",
	})
	resetAssembleFlags()

	out, err := executeCommand(rootCmd, "assemble",
		"--file", filepath.Join(ws, "data.ts"),
		"--intent", "add error handling",
		"--format", "json",
		"--stdout",
	)
	if err != nil {
		t.Fatalf("assemble: %v\n%s", err, out)
	}

	p, perr := (&payload.JSONParser{}).Parse([]byte(out))
	if perr != nil {
		t.Fatalf("output is not a JSON payload: %v\n%s", perr, out)
	}
	if p.Intent != "add error handling" {
		t.Errorf("intent = %q", p.Intent)
	}
	if p.Context == nil || len(p.Context.Items) == 0 {
		t.Fatal("assembled payload has no context items")
	}
	if p.Context.Items[0].File != filepath.Join(ws, "data.ts") {
		t.Errorf("first item = %q, want the target file", p.Context.Items[0].File)
	}
}

func TestAssembleWritesPayloadFile(t *testing.T) {
	ws := setupWorkspace(t, map[string]string{
		"data.ts": "export function processData(x) { return x; }",
	})
	resetAssembleFlags()

	outPath := filepath.Join(ws, "context.md")
	out, err := executeCommand(rootCmd, "assemble",
		"--file", filepath.Join(ws, "data.ts"),
		"--output", outPath,
	)
	if err != nil {
		t.Fatalf("assemble: %v\n%s", err, out)
	}
	if !strings.Contains(out, "wrote "+outPath) {
		t.Errorf("missing confirmation line:\n%s", out)
	}

	p, err := payload.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if p.Context == nil || !p.Context.HasFile(filepath.Join(ws, "data.ts")) {
		t.Error("written payload is missing the target file")
	}
}

func TestViewMissingFile(t *testing.T) {
	setupWorkspace(t, nil)

	out, err := executeCommand(rootCmd, "view", "does-not-exist.md")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !strings.Contains(out+err.Error(), "file not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestViewPlainOutput(t *testing.T) {
	ws := setupWorkspace(t, map[string]string{
		"data.ts": "// ai: keep this synchronous\nexport function f() {}",
	})
	resetAssembleFlags()

	payloadPath := filepath.Join(ws, "context.md")
	if out, err := executeCommand(rootCmd, "assemble",
		"--file", filepath.Join(ws, "data.ts"),
		"--intent", "speed this up",
		"--output", payloadPath,
	); err != nil {
		t.Fatalf("assemble: %v\n%s", err, out)
	}

	// printPayload writes to os.Stdout directly; capture it.
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	os.Stdout = w
	_, cmdErr := executeCommand(rootCmd, "view", "--plain", payloadPath)
	w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read captured stdout: %v", err)
	}
	r.Close()

	if cmdErr != nil {
		t.Fatalf("view: %v", cmdErr)
	}
	captured := buf.String()
	for _, want := range []string{
		"## Summary",
		"Intent:     speed this up",
		"## Directives",
		"keep this synchronous",
		"## Context Items",
	} {
		if !strings.Contains(captured, want) {
			t.Errorf("plain view missing %q:\n%s", want, captured)
		}
	}
}
