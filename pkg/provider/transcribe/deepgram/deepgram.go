// Package deepgram provides a Deepgram-backed transcription provider using the
// Deepgram prerecorded (batch) API. It implements the transcribe.Provider
// interface.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/voxnote/voxnote/pkg/provider/transcribe"
)

const (
	defaultEndpoint = "https://api.deepgram.com/v1/listen"
	defaultModel    = "nova-2"
	defaultMimeType = "audio/ogg"
)

// Option is a functional option for configuring the Deepgram Provider.
type Option func(*Provider)

// WithModel sets the Deepgram model to use (e.g., "nova-2", "base").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL overrides the prerecorded API endpoint. Used by tests to point at
// a local server.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.endpoint = baseURL
	}
}

// WithMimeType sets the Content-Type sent with the audio payload. Voice notes
// arrive as single-channel Opus-in-Ogg containers, so the default is
// "audio/ogg".
func WithMimeType(mime string) Option {
	return func(p *Provider) {
		p.mimeType = mime
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements transcribe.Provider backed by the Deepgram prerecorded API.
type Provider struct {
	apiKey     string
	model      string
	endpoint   string
	mimeType   string
	httpClient *http.Client
}

// New creates a new Deepgram Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		model:      defaultModel,
		endpoint:   defaultEndpoint,
		mimeType:   defaultMimeType,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe submits the audio file at audioPath to Deepgram requesting speaker
// diarization, punctuation, and paragraph segmentation, and returns the
// paragraph-formatted transcript.
//
// The transcript is taken from the nested path
// results.channels[0].alternatives[0].paragraphs.transcript. If any segment of
// that path is absent the call fails with an error wrapping
// [transcribe.ErrNoTranscript] — Deepgram responses with a missing paragraphs
// block are never flattened into partial text.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (*transcribe.Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("deepgram: open audio: %w", err)
	}
	defer f.Close()

	reqURL, err := p.buildURL()
	if err != nil {
		return nil, fmt.Errorf("deepgram: build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, f)
	if err != nil {
		return nil, fmt.Errorf("deepgram: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.apiKey)
	req.Header.Set("Content-Type", p.mimeType)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deepgram: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram: unexpected status %d: %s", resp.StatusCode, body)
	}

	text, err := parseResponse(body)
	if err != nil {
		return nil, err
	}
	return &transcribe.Result{Text: text}, nil
}

// buildURL constructs the prerecorded endpoint URL with the feature flags the
// formatter downstream depends on (speaker labels, paragraph breaks).
func (p *Provider) buildURL() (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("model", p.model)
	q.Set("diarize", "true")
	q.Set("punctuate", "true")
	q.Set("paragraphs", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// prerecordedResponse mirrors the slice of the Deepgram response body we
// consume. Pointer fields distinguish "absent" from "empty" so the parser can
// validate the full expected shape in one pass.
type prerecordedResponse struct {
	Results *struct {
		Channels []struct {
			Alternatives []struct {
				Paragraphs *struct {
					Transcript string `json:"transcript"`
				} `json:"paragraphs"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// parseResponse extracts the paragraph transcript from a prerecorded API
// response body. Every missing segment of the expected nested path yields an
// error wrapping [transcribe.ErrNoTranscript].
func parseResponse(body []byte) (string, error) {
	var resp prerecordedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("deepgram: decode response: %w", err)
	}

	switch {
	case resp.Results == nil:
		return "", fmt.Errorf("deepgram: missing results: %w", transcribe.ErrNoTranscript)
	case len(resp.Results.Channels) == 0:
		return "", fmt.Errorf("deepgram: missing channels: %w", transcribe.ErrNoTranscript)
	case len(resp.Results.Channels[0].Alternatives) == 0:
		return "", fmt.Errorf("deepgram: missing alternatives: %w", transcribe.ErrNoTranscript)
	case resp.Results.Channels[0].Alternatives[0].Paragraphs == nil:
		return "", fmt.Errorf("deepgram: missing paragraphs: %w", transcribe.ErrNoTranscript)
	case resp.Results.Channels[0].Alternatives[0].Paragraphs.Transcript == "":
		return "", fmt.Errorf("deepgram: empty transcript: %w", transcribe.ErrNoTranscript)
	}

	return resp.Results.Channels[0].Alternatives[0].Paragraphs.Transcript, nil
}
