// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	"github.com/pdiddy/pdf-markdown/internal/secrets"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// New builds the Model selected by cfg.Provider. Keys missing from cfg are
// looked up in keys (as loaded by secrets.Load).
func New(ctx context.Context, cfg types.AIConfig, keys map[string]string) (Model, error) {
	switch cfg.Provider {
	case types.ProviderAzureOpenAI, "":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("azure-openai: %w", types.ErrMissingEndpoint)
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("azure-openai: deployment name (ai.model) is required")
		}
		token := secrets.Lookup(keys, cfg.BearerToken, secrets.AzureOpenAIToken)
		key := secrets.Lookup(keys, cfg.APIKey, secrets.AzureOpenAIKey)
		if key == "" && token == "" {
			return nil, fmt.Errorf("azure-openai: %w", types.ErrMissingAPIKey)
		}
		return &AzureOpenAI{
			Endpoint:    cfg.Endpoint,
			Deployment:  cfg.Model,
			APIVersion:  cfg.APIVersion,
			APIKey:      key,
			BearerToken: token,
			MaxTokens:   cfg.MaxTokens,
			MaxRetries:  cfg.MaxRetries,
			Timeout:     cfg.Timeout,
		}, nil

	case types.ProviderAnthropic:
		key := secrets.Lookup(keys, cfg.APIKey, secrets.AnthropicKey)
		if key == "" {
			return nil, fmt.Errorf("anthropic: %w", types.ErrMissingAPIKey)
		}
		model := cfg.Model
		if model == "" {
			model = DefaultAnthropicModel
		}
		return &Anthropic{
			APIKey:     key,
			Model:      model,
			MaxTokens:  cfg.MaxTokens,
			MaxRetries: cfg.MaxRetries,
			Timeout:    cfg.Timeout,
		}, nil

	case types.ProviderGemini:
		return NewGemini(ctx, secrets.Lookup(keys, cfg.APIKey, secrets.GeminiKey), cfg.Model)

	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownProvider, cfg.Provider)
	}
}
