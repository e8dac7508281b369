// Package anthropic provides a completion client backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/routecore/routecore/completion"
)

// Options configures the Anthropic completion client (default model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
}

// Client wraps the Anthropic Messages API behind the completion.Client interface.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// NewClient creates a new Anthropic completion client using the official SDK.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Haiku20241022,
		MaxTokens: 512,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Client{
		client: &client,
		opts:   opts,
	}
}

// NewClientFromClient creates a completion client from an existing SDK client.
func NewClientFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Haiku20241022,
		MaxTokens: 512,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{
		client: client,
		opts:   opts,
	}
}

// Complete performs one synchronous message call and concatenates the text blocks
// of the response. Tool-use blocks are ignored; classification prompts never
// declare tools.
func (c *Client) Complete(ctx context.Context, req completion.Request) (string, error) {
	model := c.opts.Model
	if req.Model != "" {
		model = anthropic.Model(req.Model)
	}
	maxTokens := c.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			textBlock := block.AsText()
			sb.WriteString(textBlock.Text)
		}
	}

	return sb.String(), nil
}

// Info returns metadata about the client implementation.
func (c *Client) Info() completion.Info {
	return completion.Info{Name: string(c.opts.Model), Provider: "anthropic"}
}
