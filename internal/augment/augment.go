// Package augment provides the optional external fact-augmentation
// capability used by the extraction engine. Providers propose additional
// memory candidates for a turn; every failure mode (timeout, transport,
// malformed output) is reported as an error for the engine to absorb —
// ingestion never depends on this package succeeding.
package augment

import (
	"context"
	"fmt"
	"os"

	"github.com/strata-agent/strata/internal/config"
)

// Candidate actions.
const (
	ActionCreate  = "create"
	ActionArchive = "archive"
)

// Candidate is one fact proposed by a provider.
type Candidate struct {
	Content    string
	Importance bool
	Tags       []string
	Action     string // "create" or "archive"
}

// Augmenter is the interface for fact-augmentation providers.
type Augmenter interface {
	Request(ctx context.Context, text string) ([]Candidate, error)
}

// NewClient creates an augmenter based on the config provider setting.
// Provider "none" (or empty) returns nil: pure heuristic extraction.
func NewClient(cfg config.AugmentConfig) (Augmenter, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "openai":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("openai provider requires %s", cfg.APIKeyEnv)
		}
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "https://api.openai.com/v1/chat/completions"
		}
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAI(endpoint, key, model), nil
	case "ollama":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "llama3.2"
		}
		return NewOllama(endpoint, model), nil
	default:
		return nil, fmt.Errorf("unknown augment provider: %q", cfg.Provider)
	}
}

// extractionPrompt asks the model for a bare JSON array of fact objects.
func extractionPrompt() string {
	return "You extract user memories as a JSON array of objects. " +
		"Each object: {content: string, importance: 0|1, tags: [string], action: 'create'|'archive'}. " +
		"Output ONLY a valid JSON array, no prose."
}
