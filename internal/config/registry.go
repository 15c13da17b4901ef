package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/voxnote/voxnote/pkg/provider/summarize"
	"github.com/voxnote/voxnote/pkg/provider/transcribe"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// capability. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	transcriber map[string]func(ProviderEntry) (transcribe.Provider, error)
	summarizer  map[string]func(ProviderEntry) (summarize.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		transcriber: make(map[string]func(ProviderEntry) (transcribe.Provider, error)),
		summarizer:  make(map[string]func(ProviderEntry) (summarize.Provider, error)),
	}
}

// RegisterTranscriber registers a transcription provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterTranscriber(name string, factory func(ProviderEntry) (transcribe.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcriber[name] = factory
}

// RegisterSummarizer registers a summarization provider factory under name.
func (r *Registry) RegisterSummarizer(name string, factory func(ProviderEntry) (summarize.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summarizer[name] = factory
}

// CreateTranscriber instantiates a transcription provider using the factory
// registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for
// that name.
func (r *Registry) CreateTranscriber(entry ProviderEntry) (transcribe.Provider, error) {
	r.mu.RLock()
	factory, ok := r.transcriber[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: transcription/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSummarizer instantiates a summarization provider using the factory
// registered under entry.Name.
func (r *Registry) CreateSummarizer(entry ProviderEntry) (summarize.Provider, error) {
	r.mu.RLock()
	factory, ok := r.summarizer[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: summarization/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
