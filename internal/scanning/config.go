package scanning

import (
	"fmt"
	"log/slog"
	"time"
)

// Config selects and configures the extraction oracle
type Config struct {
	Provider string // gemini, openai or ollama

	GeminiKey   string
	GeminiModel string

	OpenAIKey   string
	OpenAIModel string
	OpenAIURL   string

	OllamaURL   string
	OllamaModel string

	Timeout time.Duration
}

// Open builds the Scanner for the configured provider
func Open(cfg Config) (Scanner, error) {
	var (
		oracle Oracle
		err    error
	)

	switch cfg.Provider {
	case "gemini", "":
		slog.Info("Initializing Gemini oracle...", "model", cfg.GeminiModel)
		oracle, err = NewGemini(cfg.GeminiKey, cfg.GeminiModel, cfg.Timeout)
	case "openai":
		slog.Info("Initializing OpenAI oracle...", "model", cfg.OpenAIModel)
		oracle, err = NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIURL, cfg.Timeout)
	case "ollama":
		slog.Info("Initializing Ollama oracle...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		oracle, err = NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.Timeout)
	default:
		return nil, fmt.Errorf("invalid oracle %q: valid values are gemini, openai or ollama", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s: %w", cfg.Provider, err)
	}

	return New(oracle), nil
}
