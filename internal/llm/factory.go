package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/adjeilabs/gavel/internal/config"
)

func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, Transcriber, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "openai":
		c := NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.TranscriptionModel, cfg.BaseURL)
		return c, c, nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil // no transcription support

	case "claude":
		c := NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		return c, nil, nil // no transcription support

	case "ollama":
		// Ollama speaks the OpenAI-compatible API, so reuse that client.
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}

		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama" // dummy key, ignored by Ollama
		}

		c := NewOpenAIClient(apiKey, cfg.Model, cfg.TranscriptionModel, baseURL)
		return c, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
