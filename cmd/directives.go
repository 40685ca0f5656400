package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/promptmark/internal/directive"
)

var directivesJSON bool

var directivesCmd = &cobra.Command{
	Use:   "directives [file...]",
	Short: "Scan the workspace for directive comments and list them",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(GetConfig())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if len(args) > 0 {
			for _, path := range args {
				if err := eng.indexFile(ctx, path); err != nil {
					return err
				}
			}
		} else {
			if _, err := eng.indexAll(ctx); err != nil {
				return err
			}
		}

		directives := eng.allDirectives()

		if directivesJSON {
			data, err := json.MarshalIndent(directives, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		}

		if len(directives) == 0 {
			cmd.Println("no directives found")
			return nil
		}
		printDirectives(cmd, eng, directives)
		return nil
	},
}

// printDirectives writes a plain-text listing grouped by file.
func printDirectives(cmd *cobra.Command, eng *engine, directives []directive.Directive) {
	lastFile := ""
	for _, d := range directives {
		if d.File != lastFile {
			cmd.Printf("%s\n", eng.ws.Rel(d.File))
			lastFile = d.File
		}
		scope := "global"
		if !d.IsGlobal() {
			scope = fmt.Sprintf("lines %d-%d", d.Range.Start.Line+1, d.Range.End.Line+1)
		}
		cmd.Printf("  [%s] (%s) %s\n", d.ID, scope, d.Text)
	}
}

func init() {
	directivesCmd.Flags().BoolVar(&directivesJSON, "json", false, "emit directives as JSON")
	rootCmd.AddCommand(directivesCmd)
}
