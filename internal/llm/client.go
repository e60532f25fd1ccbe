// Package llm provides the language model client used by the agent stages.
//
// Two back-ends are supported: any OpenAI-compatible cloud endpoint (Groq
// by default) and a local Ollama server. Provider "auto" picks the cloud
// endpoint when an API key is configured and falls back to Ollama.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/sweeplabs/sweepd/internal/config"
)

// ErrEmptyPrompt indicates a blank prompt.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// Client generates completions from a single prompt.
type Client struct {
	model       llms.Model
	provider    string
	modelName   string
	temperature float64
	logger      *zap.Logger
}

// New creates a client from the LLM configuration.
func New(cfg config.LLMConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := cfg.Provider
	if provider == "auto" {
		if cfg.APIKey != "" {
			provider = "openai"
		} else {
			provider = "ollama"
		}
	}

	c := &Client{
		provider:    provider,
		temperature: cfg.Temperature,
		logger:      logger,
	}

	switch provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm provider openai requires an api key")
		}
		model, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithModel(cfg.Model),
			openai.WithToken(cfg.APIKey),
		)
		if err != nil {
			return nil, fmt.Errorf("creating openai client: %w", err)
		}
		c.model = model
		c.modelName = cfg.Model

	case "ollama":
		model, err := ollama.New(
			ollama.WithServerURL(cfg.OllamaURL),
			ollama.WithModel(cfg.OllamaModel),
		)
		if err != nil {
			return nil, fmt.Errorf("creating ollama client: %w", err)
		}
		c.model = model
		c.modelName = cfg.OllamaModel

	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}

	logger.Info("llm client initialized",
		zap.String("provider", provider),
		zap.String("model", c.modelName),
		zap.Float64("temperature", c.temperature),
	)

	return c, nil
}

// NewWithModel creates a client around an existing model. Used by tests and
// by callers that construct providers themselves.
func NewWithModel(model llms.Model, temperature float64, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		model:       model,
		provider:    "custom",
		temperature: temperature,
		logger:      logger,
	}
}

// Provider returns the resolved provider name.
func (c *Client) Provider() string { return c.provider }

// Model returns the configured model name.
func (c *Client) Model() string { return c.modelName }

// Complete generates a completion for the prompt and strips common model
// meta-prefaces from the response.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithTemperature(c.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}

	c.logger.Debug("llm completion",
		zap.String("provider", c.provider),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(out)),
	)

	return StripPreamble(out), nil
}
