package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable promptmark settings.
type Config struct {
	TokenBudget      int      `json:"token_budget"`      // max estimated tokens per assembled context
	CommentMarkers   []string `json:"comment_markers"`   // single-line comment markers scanned for directives
	SourceExtensions []string `json:"source_extensions"` // extensions tried when resolving relative imports
	IgnorePatterns   []string `json:"ignore_patterns"`   // glob patterns excluded from workspace scans
	DefaultFormat    string   `json:"default_format"`    // "markdown" | "json"
	OutputDir        string   `json:"output_dir"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		TokenBudget:      8000,
		CommentMarkers:   []string{"//", "#", "--"},
		SourceExtensions: []string{".ts", ".tsx", ".js", ".jsx", ".go", ".java"},
		IgnorePatterns:   []string{},
		DefaultFormat:    "markdown",
		OutputDir:        ".",
	}
}

// LoadGlobal reads ~/.config/promptmark/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, ".config", "promptmark", "config.json")
	return loadFile(path, true)
}

// LoadProject reads .promptmarkrc in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".promptmarkrc", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()

	apply := func(c *Config) {
		if c == nil {
			return
		}
		if c.TokenBudget > 0 {
			result.TokenBudget = c.TokenBudget
		}
		if len(c.CommentMarkers) > 0 {
			result.CommentMarkers = c.CommentMarkers
		}
		if len(c.SourceExtensions) > 0 {
			result.SourceExtensions = c.SourceExtensions
		}
		if len(c.IgnorePatterns) > 0 {
			result.IgnorePatterns = c.IgnorePatterns
		}
		if c.DefaultFormat != "" {
			result.DefaultFormat = c.DefaultFormat
		}
		if c.OutputDir != "" {
			result.OutputDir = c.OutputDir
		}
	}

	apply(global)
	apply(project)

	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
