package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/voxnote/voxnote/pkg/provider/summarize"
	smock "github.com/voxnote/voxnote/pkg/provider/summarize/mock"
	"github.com/voxnote/voxnote/pkg/provider/transcribe"
	tmock "github.com/voxnote/voxnote/pkg/provider/transcribe/mock"
)

// fakeDownloader writes canned bytes into the destination file.
type fakeDownloader struct {
	data  string
	err   error
	calls int
}

func (d *fakeDownloader) Download(_ context.Context, _ VoiceNote, dst io.Writer) error {
	d.calls++
	if d.err != nil {
		return d.err
	}
	_, err := io.WriteString(dst, d.data)
	return err
}

// fakeReplier records outbound replies and can fail selectively.
type fakeReplier struct {
	mu      sync.Mutex
	replies []string

	// failNth makes the nth call (1-based) return an error; 0 disables.
	failNth int
	calls   int
}

func (r *fakeReplier) Reply(_ context.Context, _ VoiceNote, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failNth != 0 && r.calls == r.failNth {
		return errors.New("send failed")
	}
	r.replies = append(r.replies, text)
	return nil
}

func testNote() VoiceNote {
	return VoiceNote{
		MessageID:  "3EB0B43A",
		ChannelID:  "chan-1",
		AuthorID:   "user-1",
		PayloadURL: "https://cdn.example/audio.oga",
	}
}

// newTestPipeline wires a pipeline with mocks; override fields on the returned
// collaborators before calling Process.
func newTestPipeline(t *testing.T, tr *tmock.Provider, sm *smock.Provider, rep *fakeReplier, enabled bool, threshold int) (*Pipeline, string) {
	t.Helper()
	workDir := t.TempDir()
	p, err := NewPipeline(Config{
		Transcriber:      tr,
		TranscriberName:  "deepgram",
		Summarizer:       sm,
		SummarizerName:   "openai",
		Downloader:       &fakeDownloader{data: "OggS audio"},
		Replier:          rep,
		WorkDir:          workDir,
		SummaryEnabled:   enabled,
		SummaryThreshold: threshold,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p, workDir
}

func audioPathFor(workDir string, note VoiceNote) string {
	return filepath.Join(workDir, note.MessageID+audioFileExt)
}

func assertAudioRemoved(t *testing.T, workDir string, note VoiceNote) {
	t.Helper()
	if _, err := os.Stat(audioPathFor(workDir, note)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("audio file still present after job end (stat err: %v)", err)
	}
}

func TestProcess_ShortTranscriptSkipsSummary(t *testing.T) {
	tr := &tmock.Provider{Result: &transcribe.Result{Text: "short note"}}
	sm := &smock.Provider{Summary: "unused"}
	rep := &fakeReplier{}
	p, workDir := newTestPipeline(t, tr, sm, rep, true, 100)

	if err := p.Process(context.Background(), testNote()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if sm.CallCount() != 0 {
		t.Errorf("summarizer invoked %d times for transcript at/below threshold", sm.CallCount())
	}
	if len(rep.replies) != 1 {
		t.Fatalf("replies: want 1 (transcript only), got %d: %q", len(rep.replies), rep.replies)
	}
	if rep.replies[0] != "_short note_" {
		t.Errorf("transcript reply: got %q", rep.replies[0])
	}
	assertAudioRemoved(t, workDir, testNote())
}

func TestProcess_LongTranscriptSummaryFirst(t *testing.T) {
	long := strings.Repeat("Speaker 1: the quarterly numbers look fine. ", 10)
	tr := &tmock.Provider{Result: &transcribe.Result{Text: long}}
	sm := &smock.Provider{Summary: "Numbers look fine."}
	rep := &fakeReplier{}
	p, workDir := newTestPipeline(t, tr, sm, rep, true, 50)

	if err := p.Process(context.Background(), testNote()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if sm.CallCount() != 1 {
		t.Fatalf("summarizer calls: want exactly 1, got %d", sm.CallCount())
	}
	if len(rep.replies) != 2 {
		t.Fatalf("replies: want 2, got %d", len(rep.replies))
	}
	// Summary goes out before the transcript.
	if rep.replies[0] != "_Numbers look fine._" {
		t.Errorf("first reply should be the summary, got %q", rep.replies[0])
	}
	if !strings.Contains(rep.replies[1], "*Speaker 1:*") {
		t.Errorf("second reply should be the formatted transcript, got %q", rep.replies[1])
	}
	assertAudioRemoved(t, workDir, testNote())
}

func TestProcess_SummaryDisabled(t *testing.T) {
	tr := &tmock.Provider{Result: &transcribe.Result{Text: strings.Repeat("x", 500)}}
	sm := &smock.Provider{Summary: "unused"}
	rep := &fakeReplier{}
	p, _ := newTestPipeline(t, tr, sm, rep, false, 50)

	if err := p.Process(context.Background(), testNote()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sm.CallCount() != 0 {
		t.Errorf("summarizer invoked while disabled")
	}
	if len(rep.replies) != 1 {
		t.Errorf("replies: want transcript only, got %d", len(rep.replies))
	}
}

func TestProcess_TranscriptionFailureSendsNothing(t *testing.T) {
	tr := &tmock.Provider{Err: errors.New("deepgram: request: connection refused")}
	sm := &smock.Provider{}
	rep := &fakeReplier{}
	p, workDir := newTestPipeline(t, tr, sm, rep, true, 0)

	err := p.Process(context.Background(), testNote())
	if err == nil {
		t.Fatal("Process: expected error, got nil")
	}
	if len(rep.replies) != 0 {
		t.Errorf("no reply should be sent on transcription failure, got %q", rep.replies)
	}
	if sm.CallCount() != 0 {
		t.Errorf("summarizer must not run without a transcript")
	}
	assertAudioRemoved(t, workDir, testNote())
}

func TestProcess_EmptyTranscriptIsFailure(t *testing.T) {
	tr := &tmock.Provider{Result: &transcribe.Result{Text: "   \n "}}
	rep := &fakeReplier{}
	p, workDir := newTestPipeline(t, tr, &smock.Provider{}, rep, true, 0)

	err := p.Process(context.Background(), testNote())
	if !errors.Is(err, transcribe.ErrNoTranscript) {
		t.Fatalf("expected ErrNoTranscript, got %v", err)
	}
	if len(rep.replies) != 0 {
		t.Errorf("no reply should be sent for an empty transcript, got %q", rep.replies)
	}
	assertAudioRemoved(t, workDir, testNote())
}

func TestProcess_SummaryFailureStillDeliversTranscript(t *testing.T) {
	tr := &tmock.Provider{Result: &transcribe.Result{Text: strings.Repeat("words ", 30)}}
	sm := &smock.Provider{Err: fmt.Errorf("anthropic summarize: block type %q: %w", "tool_use", summarize.ErrNonTextContent)}
	rep := &fakeReplier{}
	p, workDir := newTestPipeline(t, tr, sm, rep, true, 10)

	if err := p.Process(context.Background(), testNote()); err != nil {
		t.Fatalf("Process must tolerate summary failure: %v", err)
	}
	if len(rep.replies) != 1 {
		t.Fatalf("replies: want transcript only, got %d: %q", len(rep.replies), rep.replies)
	}
	assertAudioRemoved(t, workDir, testNote())
}

func TestProcess_SummaryReplyFailureStillDeliversTranscript(t *testing.T) {
	tr := &tmock.Provider{Result: &transcribe.Result{Text: strings.Repeat("words ", 30)}}
	sm := &smock.Provider{Summary: "tl;dr"}
	rep := &fakeReplier{failNth: 1}
	p, _ := newTestPipeline(t, tr, sm, rep, true, 10)

	if err := p.Process(context.Background(), testNote()); err != nil {
		t.Fatalf("Process must tolerate summary send failure: %v", err)
	}
	if len(rep.replies) != 1 || !strings.Contains(rep.replies[0], "words") {
		t.Fatalf("transcript reply missing, got %q", rep.replies)
	}
}

func TestProcess_TranscriptReplyFailure(t *testing.T) {
	tr := &tmock.Provider{Result: &transcribe.Result{Text: "hello"}}
	rep := &fakeReplier{failNth: 1}
	p, workDir := newTestPipeline(t, tr, &smock.Provider{}, rep, false, 0)

	if err := p.Process(context.Background(), testNote()); err == nil {
		t.Fatal("expected error when transcript send fails")
	}
	assertAudioRemoved(t, workDir, testNote())
}

func TestProcess_DownloadFailure(t *testing.T) {
	tr := &tmock.Provider{Result: &transcribe.Result{Text: "unused"}}
	rep := &fakeReplier{}
	workDir := t.TempDir()
	p, err := NewPipeline(Config{
		Transcriber: tr,
		Downloader:  &fakeDownloader{err: errors.New("403 from CDN")},
		Replier:     rep,
		WorkDir:     workDir,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	if err := p.Process(context.Background(), testNote()); err == nil {
		t.Fatal("expected error on download failure")
	}
	if tr.CallCount() != 0 {
		t.Errorf("transcriber must not run after a failed download")
	}
	if len(rep.replies) != 0 {
		t.Errorf("no reply expected, got %q", rep.replies)
	}
	assertAudioRemoved(t, workDir, testNote())
}

func TestSummarizeStep_BlankInputShortCircuits(t *testing.T) {
	sm := &smock.Provider{Summary: "unused"}
	p, _ := newTestPipeline(t, &tmock.Provider{}, sm, &fakeReplier{}, true, 0)

	got := p.summarizeStep(context.Background(), slog.Default(), "   \n\t ")
	if got != nothingToSummarize {
		t.Errorf("blank input: want canned response %q, got %q", nothingToSummarize, got)
	}
	if sm.CallCount() != 0 {
		t.Errorf("backend must not be called for blank input")
	}
}

func TestNewPipeline_Validation(t *testing.T) {
	base := Config{
		Transcriber: &tmock.Provider{},
		Downloader:  &fakeDownloader{},
		Replier:     &fakeReplier{},
		WorkDir:     t.TempDir(),
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil transcriber", func(c *Config) { c.Transcriber = nil }},
		{"nil downloader", func(c *Config) { c.Downloader = nil }},
		{"nil replier", func(c *Config) { c.Replier = nil }},
		{"empty workdir", func(c *Config) { c.WorkDir = "" }},
		{"summary enabled without summarizer", func(c *Config) { c.SummaryEnabled = true }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if _, err := NewPipeline(cfg); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}

	if _, err := NewPipeline(base); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
