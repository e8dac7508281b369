// Package openai provides a completion client backed by the OpenAI Chat
// Completions API. It adapts the normalized completion.Request into the SDK's
// message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/routecore/routecore/completion"
)

// Options configure the OpenAI completion client.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	MaxCompletionTokens int64
}

// Client wraps the OpenAI Chat Completions API behind the completion.Client interface.
type Client struct {
	client *openai.Client
	opts   Options
}

// NewClient creates a new OpenAI completion client using the official SDK.
func NewClient(optFns ...func(o *Options)) *Client {
	client := openai.NewClient()
	return NewClientFromClient(&client, optFns...)
}

// NewClientFromClient creates a completion client from an existing SDK client.
func NewClientFromClient(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 512,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Complete performs one synchronous chat completion and returns the first
// choice's message content.
func (c *Client) Complete(ctx context.Context, req completion.Request) (string, error) {
	model := c.opts.Model
	if req.Model != "" {
		model = req.Model
	}
	maxTokens := c.opts.MaxCompletionTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserMessage))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Info returns metadata about the client implementation.
func (c *Client) Info() completion.Info {
	return completion.Info{Name: c.opts.Model, Provider: "openai"}
}
