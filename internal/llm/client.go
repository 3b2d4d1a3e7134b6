package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Client is a thin chat-completion wrapper over an OpenAI-compatible endpoint.
// Groq and Gemini both expose such endpoints, so one client type covers every
// LLM provider this service talks to.
type Client struct {
	name  string
	model string
	api   *openai.Client
}

const (
	groqBaseURL   = "https://api.groq.com/openai/v1"
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

	groqModel   = "llama-3.3-70b-versatile"
	geminiModel = "gemini-2.0-flash"
)

// NewGroq returns a client for Groq's OpenAI-compatible API.
func NewGroq(apiKey string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	return &Client{name: "groq", model: groqModel, api: openai.NewClientWithConfig(cfg)}
}

// NewGemini returns a client for Gemini's OpenAI-compatible API.
func NewGemini(apiKey string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = geminiBaseURL
	return &Client{name: "gemini", model: geminiModel, api: openai.NewClientWithConfig(cfg)}
}

func (c *Client) Name() string { return c.name }

// CompleteJSON runs one chat completion and returns the raw JSON document the
// model produced. Providers occasionally wrap JSON in markdown fences even
// when asked for a JSON object; those are stripped before returning.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("llm: client not configured")
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: %s completion failed: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: %s returned no choices", c.name)
	}

	return ExtractJSON(resp.Choices[0].Message.Content), nil
}
