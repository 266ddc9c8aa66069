package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/YM2132/PR-guard/internal/config"
)

// Completer is the single point of contact with a language model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAICompleter talks to OpenAI or any OpenAI-compatible endpoint.
type OpenAICompleter struct {
	model *openai.LLM
}

// NewOpenAICompleter creates a completer for the given model. baseURL
// is optional and points at an alternative OpenAI-compatible server.
func NewOpenAICompleter(key config.Secret, model, baseURL string) (*OpenAICompleter, error) {
	if !key.IsSet() {
		return nil, fmt.Errorf("model API key not set")
	}
	if model == "" {
		return nil, fmt.Errorf("model name not set")
	}

	opts := []openai.Option{
		openai.WithToken(key.Value()),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}

	return &OpenAICompleter{model: llm}, nil
}

// Complete issues one model call and returns the raw response text.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	// Low temperature: the caller parses the response strictly.
	return llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithTemperature(0.2))
}
