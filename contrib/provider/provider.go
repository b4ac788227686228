// Package provider builds a completion client from a provider name.
package provider

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/convodesk/contrib/provider/claude"
	"github.com/sweetpotato0/convodesk/contrib/provider/gemini"
	"github.com/sweetpotato0/convodesk/contrib/provider/openai"
	"github.com/sweetpotato0/convodesk/llm"
)

// Settings name a provider and carry its credentials.
type Settings struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// New builds the llm.Client the settings describe. An empty name
// selects OpenAI.
func New(ctx context.Context, s Settings) (llm.Client, error) {
	switch s.Name {
	case "", "openai":
		cfg := openai.DefaultConfig().WithAPIKey(s.APIKey)
		if s.BaseURL != "" {
			cfg.WithBaseURL(s.BaseURL)
		}
		if s.Model != "" {
			cfg.WithModel(s.Model)
		}
		if s.MaxTokens > 0 {
			cfg.MaxTokens = s.MaxTokens
		}
		if s.Temperature > 0 {
			cfg.Temperature = s.Temperature
		}
		return openai.New(cfg), nil
	case "claude":
		cfg := claude.DefaultConfig(s.APIKey, s.BaseURL)
		if s.Model != "" {
			cfg.Model = s.Model
		}
		if s.MaxTokens > 0 {
			cfg.MaxTokens = s.MaxTokens
		}
		if s.Temperature > 0 {
			cfg.Temperature = s.Temperature
		}
		return claude.New(cfg), nil
	case "gemini":
		cfg := gemini.DefaultConfig(s.APIKey)
		if s.Model != "" {
			cfg.Model = s.Model
		}
		if s.MaxTokens > 0 {
			cfg.MaxTokens = int32(s.MaxTokens)
		}
		if s.Temperature > 0 {
			cfg.Temperature = float32(s.Temperature)
		}
		return gemini.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", s.Name)
	}
}
