package provider

import (
	"context"
	"errors"

	"github.com/bmaxza/tender-assistant/config"
	"github.com/bmaxza/tender-assistant/models"
	ollama_provider "github.com/bmaxza/tender-assistant/provider/ollama"
)

// Client represents different phrasing providers
type Client string

const (
	Ollama    Client = "ollama"
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Provider is the interface every phrasing implementation must satisfy. It
// wraps structured match results in conversational prose; when it fails the
// caller falls back to the structured rendering.
type Provider interface {
	PhraseResults(ctx context.Context, prompt string, structured string, results []models.MatchResult) (string, error)
	Available() bool
}

// NewProvider creates a phrasing client from configuration. A missing API key
// is not an error: the assistant runs degraded with structured-only replies.
func NewProvider(cfg config.PhrasingConfig) (Provider, error) {
	switch Client(cfg.Provider) {
	case Ollama:
		return ollama_provider.NewClient(
			cfg.Host,
			cfg.APIKey,
			cfg.Model,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	case OpenAI:
		return nil, errors.New("openai phrasing client not implemented yet")
	case Anthropic:
		return nil, errors.New("anthropic phrasing client not implemented yet")
	default:
		return nil, errors.New("unsupported phrasing provider")
	}
}
