// Package model wraps the remote embedding and chat models behind two
// narrow interfaces so the QA pipeline can run against deterministic fakes
// in tests.
package model

import (
	"context"
	"fmt"

	"docqa/config"
	"docqa/types"
)

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a free-text answer from an assembled prompt. The prior
// conversation turns are passed structurally so chat-style providers can map
// them onto their message format.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, history []types.ConversationTurn) (string, error)
}

// New builds the embedder and generator for the configured provider.
func New(cfg config.Config) (Embedder, Generator, error) {
	switch cfg.Provider {
	case "openai":
		c, err := NewOpenAIClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case "ollama":
		c := NewOllamaClient(cfg)
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
