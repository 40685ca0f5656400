package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/promptmark/internal/payload"
	"github.com/fakeyudi/promptmark/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "View a rendered context payload file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}

		var parser payload.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			parser = &payload.JSONParser{}
		default:
			parser = &payload.MarkdownParser{}
		}

		p, err := parser.Parse(data)
		if err != nil {
			return err
		}

		if plainOutput {
			printPayload(p)
			return nil
		}
		return tui.Run(p, path)
	},
}

// printPayload writes a plain-text summary to stdout.
func printPayload(p *payload.PromptPayload) {
	fmt.Println("## Summary")
	fmt.Printf("  Workspace:  %s\n", p.Meta.Workspace)
	fmt.Printf("  Created:    %s\n", p.Meta.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if p.Intent != "" {
		fmt.Printf("  Intent:     %s\n", p.Intent)
	}
	fmt.Printf("  Budget:     %d tokens\n", p.Meta.TokenBudget)
	if p.Context != nil {
		fmt.Printf("  Used:       %d tokens\n", p.Context.TotalTokens)
	}
	fmt.Println()

	fmt.Println("## Directives")
	if len(p.Directives) == 0 {
		fmt.Println("  (none)")
	} else {
		for _, d := range p.Directives {
			scope := "global"
			if !d.IsGlobal() {
				scope = fmt.Sprintf("lines %d-%d", d.Range.Start.Line+1, d.Range.End.Line+1)
			}
			fmt.Printf("  %s (%s) %s\n", d.File, scope, d.Text)
		}
	}
	fmt.Println()

	fmt.Println("## Context Items")
	if p.Context == nil || len(p.Context.Items) == 0 {
		fmt.Println("  (none)")
	} else {
		for _, item := range p.Context.Items {
			mark := ""
			if item.Truncated {
				mark = " (truncated)"
			}
			fmt.Printf("  %-8s %.2f %5dtok  %s%s\n",
				item.Type, item.Importance, item.Tokens(), item.File, mark)
		}
	}
	fmt.Println()

	fmt.Println("## Conversation History")
	if p.Context == nil || len(p.Context.ConversationHistory) == 0 {
		fmt.Println("  (none)")
	} else {
		for _, turn := range p.Context.ConversationHistory {
			fmt.Printf("  [%s] %s\n", turn.Timestamp.Format("2006-01-02 15:04:05"), turn.Request)
			for _, f := range turn.FilesModified {
				fmt.Printf("    modified: %s\n", f)
			}
		}
	}
	fmt.Println()

	if p.Context != nil && len(p.Context.Warnings) > 0 {
		fmt.Println("## Warnings")
		for _, w := range p.Context.Warnings {
			fmt.Printf("  %s\n", w)
		}
		fmt.Println()
	}
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
