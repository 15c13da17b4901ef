// Package openai provides a transcription provider backed by the OpenAI audio API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/voxnote/voxnote/pkg/provider/transcribe"
)

// DefaultModel is the default OpenAI transcription model.
const DefaultModel = string(oai.AudioModelWhisper1)

// transcriptionPrompt is the fixed guidance prompt sent with every upload. It
// nudges the model towards paragraph-segmented output with action items pulled
// out as bullet points, which the formatter downstream relies on.
const transcriptionPrompt = "Transcribe the audio. Separate distinct topics into paragraphs and list any action items as bullet points."

// Ensure Provider implements the transcribe.Provider interface.
var _ transcribe.Provider = (*Provider)(nil)

// Provider implements transcribe.Provider using the OpenAI audio API.
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

// New constructs a new OpenAI transcription Provider.
// If model is empty, DefaultModel (whisper-1) is used.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai transcribe: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// One attempt per voice note; a failed call ends the job's
		// transcription step.
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

// Transcribe uploads the audio file at audioPath as multipart form data and
// returns the transcript from the response's text field.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (*transcribe.Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("openai transcribe: open audio: %w", err)
	}
	defer f.Close()

	resp, err := p.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		File:   f,
		Model:  oai.AudioModel(p.model),
		Prompt: param.NewOpt(transcriptionPrompt),
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcribe: request: %w", err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return nil, fmt.Errorf("openai transcribe: %w", transcribe.ErrNoTranscript)
	}
	return &transcribe.Result{Text: resp.Text}, nil
}
