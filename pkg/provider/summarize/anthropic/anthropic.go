// Package anthropic provides a summarization provider backed by the Anthropic
// messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"time"

	ant "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/voxnote/voxnote/pkg/provider/summarize"
)

// systemPrompt is the one-shot summarization instruction sent with every call.
const systemPrompt = "Summarize the following transcription of a voicemail in at most 1 to 2 sentences."

const (
	temperature = 0.5
	maxTokens   = 2000
)

// Ensure Provider implements the summarize.Provider interface.
var _ summarize.Provider = (*Provider)(nil)

// Provider implements summarize.Provider using the Anthropic messages API.
type Provider struct {
	client ant.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default Anthropic API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new Anthropic summarization Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic summarize: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anthropic summarize: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Single best-effort attempt; the pipeline drops the summary on failure.
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := ant.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// Summarize condenses text into at most two sentences via a single messages
// API call. When the model answers with a non-text content block (e.g.,
// tool use) instead of prose, Summarize fails with an error wrapping
// [summarize.ErrNonTextContent] rather than coercing the block to a string —
// that failure mode is a model contract violation, not a transport fault.
func (p *Provider) Summarize(ctx context.Context, text string) (string, error) {
	msg, err := p.client.Messages.New(ctx, ant.MessageNewParams{
		Model:       ant.Model(p.model),
		MaxTokens:   maxTokens,
		Temperature: ant.Float(temperature),
		System: []ant.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []ant.MessageParam{
			ant.NewUserMessage(ant.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic summarize: messages: %w", err)
	}
	if len(msg.Content) == 0 {
		return "", fmt.Errorf("anthropic summarize: empty content in response")
	}

	block := msg.Content[0]
	if block.Type != "text" {
		return "", fmt.Errorf("anthropic summarize: block type %q: %w", block.Type, summarize.ErrNonTextContent)
	}
	if block.Text == "" {
		return "", fmt.Errorf("anthropic summarize: empty text block in response")
	}

	return block.Text, nil
}
