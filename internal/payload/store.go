package payload

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes rendered payload bytes atomically via a temp file +
// os.Rename, so a reader never observes a half-written payload.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "payload-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write payload: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// ReadFile loads and parses a rendered payload from disk, auto-detecting
// the format.
func ReadFile(path string) (*PromptPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return ParseFile(data)
}
