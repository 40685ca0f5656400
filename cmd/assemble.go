package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/promptmark/internal/assembler"
	"github.com/fakeyudi/promptmark/internal/directive"
	"github.com/fakeyudi/promptmark/internal/payload"
	"github.com/fakeyudi/promptmark/internal/source"
)

var (
	assembleIntent string
	assembleFile   string
	assembleLine   int
	assembleStart  int
	assembleEnd    int
	assembleFormat string
	assembleOutput string
	assembleBudget int
	assembleStdout bool
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble a token-budgeted context payload for an editing request",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetConfig()
		if assembleBudget > 0 {
			c.TokenBudget = assembleBudget
		}

		eng, err := newEngine(c)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if _, err := eng.indexAll(ctx); err != nil {
			return err
		}

		req := assembler.Request{
			Intent: assembleIntent,
			File:   assembleFile,
		}
		if assembleStart > 0 && assembleEnd >= assembleStart {
			// Flags are 1-based; ranges are 0-based.
			sel := source.LineRange(assembleStart-1, assembleEnd-1)
			req.Selection = &sel
		} else if assembleLine > 0 {
			req.Cursor = &source.Position{Line: assembleLine - 1}
		}

		pc, err := eng.assembler.Assemble(ctx, req)
		if err != nil {
			return fmt.Errorf("assembling context: %w", err)
		}

		p := payload.New(assembleIntent, pc, contextDirectives(eng, pc), eng.assembler.Budget())

		format := assembleFormat
		if format == "" {
			format = c.DefaultFormat
		}
		var renderer payload.Renderer
		ext := ".md"
		if format == "json" {
			renderer = &payload.JSONRenderer{}
			ext = ".json"
		} else {
			renderer = &payload.MarkdownRenderer{}
		}

		data, err := renderer.Render(p)
		if err != nil {
			return fmt.Errorf("rendering payload: %w", err)
		}

		if assembleStdout {
			cmd.Println(string(data))
			return nil
		}

		out := assembleOutput
		if out == "" {
			name := fmt.Sprintf("context-%s%s", time.Now().Format("20060102-150405"), ext)
			out = filepath.Join(c.OutputDir, name)
		}
		if err := payload.WriteFile(out, data); err != nil {
			return err
		}

		cmd.Printf("wrote %s (%d items, %d/%d tokens)\n",
			out, len(pc.Items), pc.TotalTokens, eng.assembler.Budget())
		return nil
	},
}

// contextDirectives collects the directives governing every admitted file:
// range-bound ones that overlap an admitted item plus all global ones.
func contextDirectives(eng *engine, pc *assembler.ProjectContext) []directive.Directive {
	var out []directive.Directive
	for _, item := range pc.Items {
		for _, d := range eng.directives.Directives(item.File) {
			if d.IsGlobal() || d.Range.Intersects(item.Range) {
				out = append(out, d)
			}
		}
	}
	return out
}

func init() {
	assembleCmd.Flags().StringVarP(&assembleIntent, "intent", "i", "", "what the edit is trying to do")
	assembleCmd.Flags().StringVarP(&assembleFile, "file", "f", "", "target file")
	assembleCmd.Flags().IntVar(&assembleLine, "line", 0, "cursor line (1-based)")
	assembleCmd.Flags().IntVar(&assembleStart, "start", 0, "selection start line (1-based)")
	assembleCmd.Flags().IntVar(&assembleEnd, "end", 0, "selection end line (1-based)")
	assembleCmd.Flags().StringVar(&assembleFormat, "format", "", "output format: markdown or json")
	assembleCmd.Flags().StringVarP(&assembleOutput, "output", "o", "", "output file path")
	assembleCmd.Flags().IntVar(&assembleBudget, "budget", 0, "token budget override")
	assembleCmd.Flags().BoolVar(&assembleStdout, "stdout", false, "print the payload instead of writing a file")
	rootCmd.AddCommand(assembleCmd)
}
