package payload

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Parser deserializes a rendered payload back into structured data.
type Parser interface {
	Parse(data []byte) (*PromptPayload, error)
}

// JSONParser parses a JSON-encoded PromptPayload.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*PromptPayload, error) {
	var payload PromptPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON payload: %w", err)
	}
	return &payload, nil
}

// MarkdownParser parses a Markdown-rendered PromptPayload by extracting the
// embedded base64 JSON payload from the sentinel comments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*PromptPayload, error) {
	content := string(data)

	// Require the version sentinel.
	version := fmt.Sprintf("<!-- promptmark-payload-version: %d -->", PayloadVersion)
	if !strings.Contains(content, version) {
		return nil, fmt.Errorf("not a valid prompt payload: missing version sentinel")
	}

	// Extract the base64 payload from <!-- promptmark-data: <base64> -->.
	const prefix = "<!-- promptmark-data: "
	const suffix = " -->"
	start := strings.Index(content, prefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid prompt payload: missing data payload")
	}
	start += len(prefix)
	end := strings.Index(content[start:], suffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid prompt payload: malformed data payload")
	}
	encoded := content[start : start+end]

	jsonBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not a valid prompt payload: corrupted base64 payload: %w", err)
	}

	var payload PromptPayload
	if err := json.Unmarshal(jsonBytes, &payload); err != nil {
		return nil, fmt.Errorf("not a valid prompt payload: failed to parse embedded JSON: %w", err)
	}

	return &payload, nil
}

// ParseFile picks a parser from the rendered bytes themselves: Markdown when
// the sentinel is present, JSON otherwise.
func ParseFile(data []byte) (*PromptPayload, error) {
	if strings.Contains(string(data), "<!-- promptmark-payload-version:") {
		return (&MarkdownParser{}).Parse(data)
	}
	return (&JSONParser{}).Parse(data)
}
