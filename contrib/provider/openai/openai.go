// Package openai implements llm.Client on the official OpenAI SDK.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/sweetpotato0/convodesk/message"
)

// Config holds OpenAI client configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// WithBaseURL set BaseURL.
func (cfg *Config) WithBaseURL(url string) *Config {
	cfg.BaseURL = url
	return cfg
}

// WithAPIKey set api key.
func (cfg *Config) WithAPIKey(apiKey string) *Config {
	cfg.APIKey = apiKey
	return cfg
}

// WithModel set model.
func (cfg *Config) WithModel(model string) *Config {
	cfg.Model = model
	return cfg
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig() *Config {
	return &Config{
		APIKey:      "",
		Model:       "gpt-4o-mini",
		MaxTokens:   2000,
		Temperature: 0.7,
	}
}

// Client calls the OpenAI Chat Completions API.
type Client struct {
	config *Config
	client openai.Client
}

// New creates a new OpenAI client using the official SDK
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	client := openai.NewClient(options...)

	return &Client{
		config: config,
		client: client,
	}
}

// Complete implements llm.Client
func (c *Client) Complete(ctx context.Context, msgs []message.Message) (string, error) {
	if len(msgs) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	// Convert messages to OpenAI format
	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			openAIMessages = append(openAIMessages, openai.SystemMessage(msg.Content))
		case message.RoleUser:
			openAIMessages = append(openAIMessages, openai.UserMessage(msg.Content))
		case message.RoleAssistant:
			openAIMessages = append(openAIMessages, openai.AssistantMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: openAIMessages,
		Model:    openai.ChatModel(c.config.Model),
	}

	// Set temperature if provided
	if c.config.Temperature > 0 {
		params.Temperature = param.NewOpt(c.config.Temperature)
	}

	// Set max tokens if provided
	if c.config.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(c.config.MaxTokens)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return completion.Choices[0].Message.Content, nil
}

// SetTemperature updates the temperature setting
func (c *Client) SetTemperature(temp float64) {
	c.config.Temperature = temp
}

// SetMaxTokens updates the max tokens setting
func (c *Client) SetMaxTokens(max int64) {
	c.config.MaxTokens = max
}

// SetModel updates the model
func (c *Client) SetModel(model string) {
	c.config.Model = model
}
