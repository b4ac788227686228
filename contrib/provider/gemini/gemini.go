// Package gemini implements llm.Client on the official Google Generative AI SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sweetpotato0/convodesk/message"
	"google.golang.org/api/option"
)

// Config holds Gemini client configuration
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

// Client calls the Gemini API through the genai SDK.
type Client struct {
	config *Config
	client *genai.Client
}

// New creates a new Gemini client using the official SDK
func New(ctx context.Context, config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &Client{
		config: config,
		client: client,
	}, nil
}

// Complete implements llm.Client
func (c *Client) Complete(ctx context.Context, msgs []message.Message) (string, error) {
	model := c.client.GenerativeModel(c.config.Model)
	if c.config.Temperature > 0 {
		model.SetTemperature(c.config.Temperature)
	}
	if c.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(c.config.MaxTokens)
	}

	// Gemini takes system prompts as a model-level instruction, not a turn.
	var systemPrompts []string
	conversation := make([]*genai.Content, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Content)
		case message.RoleUser:
			conversation = append(conversation, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		case message.RoleAssistant:
			conversation = append(conversation, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}

	if len(systemPrompts) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(systemPrompts, "\n"))},
		}
	}

	if len(conversation) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	last := conversation[len(conversation)-1]
	session := model.StartChat()
	session.History = conversation[:len(conversation)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return sb.String(), nil
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// SetTemperature updates the temperature setting
func (c *Client) SetTemperature(temp float32) {
	c.config.Temperature = temp
}

// SetMaxTokens updates the max tokens setting
func (c *Client) SetMaxTokens(max int32) {
	c.config.MaxTokens = max
}

// SetModel updates the model
func (c *Client) SetModel(model string) {
	c.config.Model = model
}
