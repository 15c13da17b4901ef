package config_test

import (
	"errors"
	"testing"

	"github.com/voxnote/voxnote/internal/config"
	"github.com/voxnote/voxnote/pkg/provider/summarize"
	smock "github.com/voxnote/voxnote/pkg/provider/summarize/mock"
	"github.com/voxnote/voxnote/pkg/provider/transcribe"
	tmock "github.com/voxnote/voxnote/pkg/provider/transcribe/mock"
)

func TestRegistry_CreateTranscriber(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	var gotEntry config.ProviderEntry
	reg.RegisterTranscriber("stub", func(entry config.ProviderEntry) (transcribe.Provider, error) {
		gotEntry = entry
		return &tmock.Provider{}, nil
	})

	entry := config.ProviderEntry{Name: "stub", APIKey: "key", Model: "m1"}
	p, err := reg.CreateTranscriber(entry)
	if err != nil {
		t.Fatalf("CreateTranscriber() error = %v", err)
	}
	if p == nil {
		t.Fatal("CreateTranscriber() returned nil provider")
	}
	if gotEntry != entry {
		t.Errorf("factory received entry %+v, want %+v", gotEntry, entry)
	}
}

func TestRegistry_CreateSummarizer(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	reg.RegisterSummarizer("stub", func(entry config.ProviderEntry) (summarize.Provider, error) {
		return &smock.Provider{Summary: "ok"}, nil
	})

	p, err := reg.CreateSummarizer(config.ProviderEntry{Name: "stub"})
	if err != nil {
		t.Fatalf("CreateSummarizer() error = %v", err)
	}
	if p == nil {
		t.Fatal("CreateSummarizer() returned nil provider")
	}
}

func TestRegistry_UnregisteredName(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()

	if _, err := reg.CreateTranscriber(config.ProviderEntry{Name: "ghost"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateTranscriber() error = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := reg.CreateSummarizer(config.ProviderEntry{Name: "ghost"}); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("CreateSummarizer() error = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_FactoryErrorPropagates(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	boom := errors.New("bad credentials")
	reg.RegisterTranscriber("stub", func(entry config.ProviderEntry) (transcribe.Provider, error) {
		return nil, boom
	})

	if _, err := reg.CreateTranscriber(config.ProviderEntry{Name: "stub"}); !errors.Is(err, boom) {
		t.Errorf("CreateTranscriber() error = %v, want factory error", err)
	}
}

func TestRegistry_ReRegisterOverwrites(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	reg.RegisterSummarizer("stub", func(entry config.ProviderEntry) (summarize.Provider, error) {
		return &smock.Provider{Summary: "first"}, nil
	})
	reg.RegisterSummarizer("stub", func(entry config.ProviderEntry) (summarize.Provider, error) {
		return &smock.Provider{Summary: "second"}, nil
	})

	p, err := reg.CreateSummarizer(config.ProviderEntry{Name: "stub"})
	if err != nil {
		t.Fatalf("CreateSummarizer() error = %v", err)
	}
	mp, ok := p.(*smock.Provider)
	if !ok {
		t.Fatalf("provider has type %T, want *mock.Provider", p)
	}
	if mp.Summary != "second" {
		t.Errorf("summary = %q, want latest registration to win", mp.Summary)
	}
}
