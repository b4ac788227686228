// Package claude implements llm.Client on the official Anthropic SDK.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/sweetpotato0/convodesk/message"
)

// Config holds Claude client configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey, baseURL string) *Config {
	return &Config{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       "claude-3-5-sonnet-20241022",
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// Client calls the Anthropic Messages API.
type Client struct {
	config *Config
	client anthropic.Client
}

// New creates a new Claude client using the official SDK
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig("", "")
	}
	if config.Model == "" {
		config.Model = "claude-3-5-sonnet-20241022"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}

	options := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithAuthToken(""),
	}

	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(options...)

	return &Client{
		config: config,
		client: client,
	}
}

// Complete implements llm.Client
func (c *Client) Complete(ctx context.Context, msgs []message.Message) (string, error) {
	// Separate system messages from conversation
	var systemPrompts []string
	conversationMessages := make([]anthropic.MessageParam, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Content)
		case message.RoleUser:
			conversationMessages = append(conversationMessages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case message.RoleAssistant:
			conversationMessages = append(conversationMessages,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	if len(conversationMessages) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		Messages:  conversationMessages,
		MaxTokens: c.config.MaxTokens,
	}

	// Add system prompts if present
	if len(systemPrompts) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(systemPrompts, "\n")},
		}
	}

	// Add temperature if set
	if c.config.Temperature > 0 {
		params.Temperature = param.NewOpt(c.config.Temperature)
	}

	apiMessage, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	// Extract text from content blocks
	var sb strings.Builder
	for _, content := range apiMessage.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}

	return sb.String(), nil
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
