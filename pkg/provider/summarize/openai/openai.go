// Package openai provides a summarization provider backed by the OpenAI chat
// completions API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

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

// Provider implements summarize.Provider using the OpenAI chat completions API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
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

// New constructs a new OpenAI summarization Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai summarize: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai summarize: model must not be empty")
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

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// Summarize condenses text into at most two sentences via a single low
// temperature chat completion. Missing choices or empty content in an otherwise
// successful response is a hard error rather than a silent empty summary, so
// the caller can distinguish "the model said nothing" from "we asked for
// nothing".
func (p *Provider) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(text),
		},
		Temperature:         param.NewOpt(temperature),
		MaxCompletionTokens: param.NewOpt(int64(maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("openai summarize: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai summarize: empty choices in response")
	}
	if resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai summarize: empty content in response")
	}

	return resp.Choices[0].Message.Content, nil
}
