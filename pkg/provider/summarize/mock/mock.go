// Package mock provides a test double for the summarize.Provider interface.
package mock

import (
	"context"
	"sync"
)

// Provider is a mock implementation of summarize.Provider.
// Set Err to inject a failure; otherwise Summary is returned.
type Provider struct {
	mu sync.Mutex

	// Summary is returned by Summarize when Err is nil.
	Summary string

	// Err, if non-nil, is returned by Summarize.
	Err error

	// Calls records the text of every Summarize invocation.
	Calls []string
}

// Summarize records the call and returns the configured summary or error.
func (p *Provider) Summarize(_ context.Context, text string) (string, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, text)
	p.mu.Unlock()

	if p.Err != nil {
		return "", p.Err
	}
	return p.Summary, nil
}

// CallCount returns the number of recorded Summarize invocations.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
