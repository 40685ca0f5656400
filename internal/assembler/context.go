// Package assembler builds the token-budgeted, importance-ranked working set
// of code snippets handed to the completion backend.
package assembler

import (
	"github.com/fakeyudi/promptmark/internal/history"
	"github.com/fakeyudi/promptmark/internal/oracle"
	"github.com/fakeyudi/promptmark/internal/source"
)

// ItemType classifies how a context item entered the working set.
type ItemType string

const (
	TypeCurrent ItemType = "current"
	TypeImport  ItemType = "import"
	TypeExport  ItemType = "export"
	TypeRelated ItemType = "related"
	TypeTest    ItemType = "test"
)

// ContextItem is one code snippet admitted into the prompt payload.
// Importance normally stays in [0,1]; transient values above 1 can appear
// during scoring before truncation normalizes consumption.
type ContextItem struct {
	File       string          `json:"file"`
	Range      source.Range    `json:"range"`
	Content    string          `json:"content"`
	Importance float64         `json:"importance"`
	Type       ItemType        `json:"type"`
	Symbols    []oracle.Symbol `json:"symbols,omitempty"`
	Truncated  bool            `json:"truncated,omitempty"`
}

// Tokens estimates the item's prompt cost: content length over four, rounded
// up. Crude, but consistent — the budget only needs a stable yardstick.
func (c ContextItem) Tokens() int {
	return (len(c.Content) + 3) / 4
}

// WorkspaceInfo is summary metadata about the workspace a context came from.
type WorkspaceInfo struct {
	Root      string `json:"root"`
	FileCount int    `json:"file_count"`
}

// ProjectContext is the assembled working set for one completion request.
// Built fresh per request and never persisted.
type ProjectContext struct {
	Items               []ContextItem  `json:"items"`
	TotalTokens         int            `json:"total_tokens"`
	ConversationHistory []history.Turn `json:"conversation_history,omitempty"`
	Workspace           WorkspaceInfo  `json:"workspace"`
	Warnings            []string       `json:"warnings,omitempty"`
}

// HasFile reports whether an item for the file is already admitted.
// No file ever appears twice in a ProjectContext.
func (pc *ProjectContext) HasFile(file string) bool {
	for _, item := range pc.Items {
		if item.File == file {
			return true
		}
	}
	return false
}
