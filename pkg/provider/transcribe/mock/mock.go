// Package mock provides a test double for the transcribe.Provider interface.
//
// Use Provider in unit tests to feed controlled transcripts into the pipeline
// without a live speech-to-text backend and to assert which audio files were
// submitted.
package mock

import (
	"context"
	"sync"

	"github.com/voxnote/voxnote/pkg/provider/transcribe"
)

// Provider is a mock implementation of transcribe.Provider.
// Zero values cause Transcribe to return an empty Result and nil error.
// Set Err to inject a failure.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Transcribe when Err is nil. When nil, an empty
	// Result is returned.
	Result *transcribe.Result

	// Err, if non-nil, is returned by Transcribe instead of Result.
	Err error

	// Calls records the audioPath of every Transcribe invocation.
	Calls []string
}

// Transcribe records the call and returns the configured result or error.
func (p *Provider) Transcribe(_ context.Context, audioPath string) (*transcribe.Result, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, audioPath)
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	if p.Result == nil {
		return &transcribe.Result{}, nil
	}
	return p.Result, nil
}

// CallCount returns the number of recorded Transcribe invocations.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
