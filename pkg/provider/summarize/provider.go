// Package summarize defines the Provider interface for transcript summarization
// backends.
//
// A summarization provider wraps a hosted language-model API (OpenAI chat
// completions or the Anthropic messages API) behind a single one-shot call:
// transcript text in, short prose summary out. The pipeline treats a failed
// summary as optional — it logs, drops the summary, and still delivers the
// transcript — so providers report malformed responses as hard errors instead
// of silently coercing them into text.
//
// Implementations must be safe for concurrent use.
package summarize

import (
	"context"
	"errors"
)

// ErrNonTextContent is returned when the model answered with a non-text content
// block (e.g., a tool-use block) where prose was expected. It is distinct from
// transport failures so callers can tell a misbehaving model apart from a flaky
// network.
var ErrNonTextContent = errors.New("model returned non-text content")

// Provider is the abstraction over any summarization backend.
//
// Summarize condenses text into one or two sentences of plain prose. A single
// attempt is made; providers do not retry. An error means no summary is
// available — callers decide whether that is fatal.
type Provider interface {
	Summarize(ctx context.Context, text string) (string, error)
}
