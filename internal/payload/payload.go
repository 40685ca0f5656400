package payload

import (
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/promptmark/internal/assembler"
	"github.com/fakeyudi/promptmark/internal/directive"
)

// PromptPayload is the complete, renderable product of one assembly run:
// the budget-fitted context plus every directive that governs it.
type PromptPayload struct {
	Meta       Meta                      `json:"meta"`
	Intent     string                    `json:"intent"`
	Context    *assembler.ProjectContext `json:"context"`
	Directives []directive.Directive     `json:"directives"`
}

// Meta holds summary metadata about the assembly run.
type Meta struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Workspace   string    `json:"workspace"`
	TokenBudget int       `json:"token_budget"`
	Version     int       `json:"version"`
}

// PayloadVersion is the current payload format version.
const PayloadVersion = 1

// New wraps an assembled context into a payload with fresh metadata.
func New(intent string, pc *assembler.ProjectContext, directives []directive.Directive, budget int) *PromptPayload {
	workspace := ""
	if pc != nil {
		workspace = pc.Workspace.Root
	}
	return &PromptPayload{
		Meta: Meta{
			ID:          uuid.New().String(),
			CreatedAt:   time.Now().UTC(),
			Workspace:   workspace,
			TokenBudget: budget,
			Version:     PayloadVersion,
		},
		Intent:     intent,
		Context:    pc,
		Directives: directives,
	}
}
