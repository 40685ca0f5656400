package payload

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Renderer serializes a PromptPayload to bytes.
type Renderer interface {
	Render(p *PromptPayload) ([]byte, error)
}

// JSONRenderer renders a PromptPayload as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(p *PromptPayload) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// MarkdownRenderer renders a PromptPayload as human-readable Markdown with
// an embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(p *PromptPayload) ([]byte, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder

	// Sentinel and embedded payload.
	fmt.Fprintf(&sb, "<!-- promptmark-payload-version: %d -->\n", PayloadVersion)
	fmt.Fprintf(&sb, "<!-- promptmark-data: %s -->\n\n", encoded)

	// Title.
	fmt.Fprintf(&sb, "# Prompt Context — %s — %s\n\n",
		p.Meta.Workspace,
		p.Meta.CreatedAt.Format("2006-01-02 15:04:05 MST"),
	)

	// ## Summary
	sb.WriteString("## Summary\n\n")
	if p.Intent != "" {
		fmt.Fprintf(&sb, "- Intent: %s\n", p.Intent)
	}
	fmt.Fprintf(&sb, "- Token budget: %d\n", p.Meta.TokenBudget)
	if p.Context != nil {
		fmt.Fprintf(&sb, "- Tokens used: %d\n", p.Context.TotalTokens)
		fmt.Fprintf(&sb, "- Workspace files: %d\n", p.Context.Workspace.FileCount)
	}
	sb.WriteString("\n")

	// ## Directives
	sb.WriteString("## Directives\n\n")
	if len(p.Directives) == 0 {
		sb.WriteString("_No directives._\n")
	} else {
		for _, d := range p.Directives {
			scope := "global"
			if !d.IsGlobal() {
				scope = fmt.Sprintf("lines %d-%d", d.Range.Start.Line+1, d.Range.End.Line+1)
			}
			fmt.Fprintf(&sb, "- `%s` (%s) %s\n", d.File, scope, d.Text)
		}
	}
	sb.WriteString("\n")

	// ## Context Items
	sb.WriteString("## Context Items\n\n")
	if p.Context == nil || len(p.Context.Items) == 0 {
		sb.WriteString("_No context items._\n")
	} else {
		for _, item := range p.Context.Items {
			truncated := ""
			if item.Truncated {
				truncated = ", truncated"
			}
			fmt.Fprintf(&sb, "### %s\n\n", item.File)
			fmt.Fprintf(&sb, "_%s, importance %.2f, lines %d-%d%s_\n\n",
				item.Type,
				item.Importance,
				item.Range.Start.Line+1,
				item.Range.End.Line+1,
				truncated,
			)
			sb.WriteString("```\n")
			sb.WriteString(item.Content)
			if !strings.HasSuffix(item.Content, "\n") {
				sb.WriteString("\n")
			}
			sb.WriteString("```\n\n")
		}
	}

	// ## Conversation History
	sb.WriteString("## Conversation History\n\n")
	if p.Context == nil || len(p.Context.ConversationHistory) == 0 {
		sb.WriteString("_No prior turns._\n")
	} else {
		for _, turn := range p.Context.ConversationHistory {
			fmt.Fprintf(&sb, "- [%s] %s\n",
				turn.Timestamp.Format("2006-01-02 15:04:05"),
				turn.Request,
			)
			if len(turn.FilesModified) > 0 {
				fmt.Fprintf(&sb, "  - modified: %s\n", strings.Join(turn.FilesModified, ", "))
			}
		}
	}
	sb.WriteString("\n")

	// ## Warnings
	if p.Context != nil && len(p.Context.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range p.Context.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}
