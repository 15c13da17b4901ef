// Package transcribe defines the Provider interface for batch speech-to-text
// backends.
//
// A transcription provider wraps a hosted speech-to-text service (e.g., the
// OpenAI audio API or the Deepgram prerecorded API) and exposes a uniform
// one-shot interface: a locally materialised audio file goes in, a normalised
// [Result] comes out. Callers never see backend-specific response schemas.
//
// Implementations must be safe for concurrent use — the bot may process several
// voice notes at once, one provider instance shared between them.
package transcribe

import (
	"context"
	"errors"
)

// ErrNoTranscript is returned when a backend responded but its response did not
// contain a usable transcript (missing fields, empty text). It signals a failed
// transcription attempt that the caller should treat as "no transcript", never
// as partial text.
//
// Check with errors.Is; implementations wrap it with backend detail.
var ErrNoTranscript = errors.New("no transcript in provider response")

// Result is the normalised output of a single transcription call. It is
// immutable and lives only for the duration of one voice-note job.
type Result struct {
	// Text is the full transcript. Backends that support diarization prefix
	// utterances with "Speaker N:" labels inside this text.
	Text string
}

// Provider is the abstraction over any batch transcription backend.
//
// Transcribe reads the audio file at audioPath, submits it to the backend, and
// returns the normalised result. A single attempt is made; providers do not
// retry. Errors are ordinary Go errors — network failures, HTTP error statuses,
// and malformed responses all surface here rather than panicking, so the caller
// can log and degrade.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}
