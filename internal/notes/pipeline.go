// Package notes implements the voice-note processing pipeline: download the
// audio payload, transcribe it, optionally summarize long transcripts, format
// the results, and reply to the sender.
//
// One [Pipeline] instance serves the whole process. Each inbound voice note is
// processed to completion by a single Process call; the messaging layer may run
// several Process calls concurrently for distinct messages, which is safe
// because jobs share no mutable state and temp files are keyed by message ID.
package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxnote/voxnote/internal/observe"
	"github.com/voxnote/voxnote/pkg/provider/summarize"
	"github.com/voxnote/voxnote/pkg/provider/transcribe"
)

// audioFileExt is the extension for locally materialised voice-note audio.
// Voice notes arrive as Opus-in-Ogg containers.
const audioFileExt = ".oga"

// nothingToSummarize is the canned summary for blank transcripts that somehow
// pass the length threshold (e.g., whitespace padding). No backend call is
// wasted on them.
const nothingToSummarize = "There is nothing to summarize."

// VoiceNote identifies one inbound voice message. It is ephemeral per-message
// context; nothing about it outlives a single Process call.
type VoiceNote struct {
	// MessageID is the message's unique identifier. It keys the local temp
	// file, so two concurrent jobs never collide on the filesystem.
	MessageID string

	// ChannelID is the conversation the note arrived in and where replies go.
	ChannelID string

	// AuthorID identifies the sender.
	AuthorID string

	// PayloadURL is where the audio payload can be fetched from.
	PayloadURL string
}

// Downloader resolves a voice note's audio payload into dst. Implemented by
// the messaging layer, which knows how to fetch attachment content.
type Downloader interface {
	Download(ctx context.Context, note VoiceNote, dst io.Writer) error
}

// Replier delivers an outbound text reply to the conversation a voice note
// came from.
type Replier interface {
	Reply(ctx context.Context, note VoiceNote, text string) error
}

// Config assembles a Pipeline's collaborators and policy. Providers are
// selected once at startup; the pipeline never switches backends at runtime.
type Config struct {
	// Transcriber is the active transcription backend. Required.
	Transcriber transcribe.Provider

	// TranscriberName labels metrics and logs (e.g., "deepgram").
	TranscriberName string

	// Summarizer is the active summarization backend. Required when
	// SummaryEnabled is true.
	Summarizer summarize.Provider

	// SummarizerName labels metrics and logs (e.g., "anthropic").
	SummarizerName string

	// Downloader fetches audio payloads. Required.
	Downloader Downloader

	// Replier sends outbound messages. Required.
	Replier Replier

	// Metrics receives pipeline instrumentation. When nil, a no-op meter is
	// used so tests need no OTel setup.
	Metrics *observe.Metrics

	// WorkDir is the directory for temporary audio files. Required.
	WorkDir string

	// SummaryEnabled turns the summarization step on.
	SummaryEnabled bool

	// SummaryThreshold is the transcript length, in characters, above which a
	// summary is generated.
	SummaryThreshold int
}

// Pipeline orchestrates one voice note from download to reply. Safe for
// concurrent use.
type Pipeline struct {
	transcriber      transcribe.Provider
	transcriberName  string
	summarizer       summarize.Provider
	summarizerName   string
	downloader       Downloader
	replier          Replier
	metrics          *observe.Metrics
	workDir          string
	summaryEnabled   bool
	summaryThreshold int
}

// NewPipeline validates cfg and returns a ready Pipeline.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Transcriber == nil {
		return nil, errors.New("notes: Transcriber must not be nil")
	}
	if cfg.Downloader == nil {
		return nil, errors.New("notes: Downloader must not be nil")
	}
	if cfg.Replier == nil {
		return nil, errors.New("notes: Replier must not be nil")
	}
	if cfg.WorkDir == "" {
		return nil, errors.New("notes: WorkDir must not be empty")
	}
	if cfg.SummaryEnabled && cfg.Summarizer == nil {
		return nil, errors.New("notes: Summarizer must not be nil when summaries are enabled")
	}

	m := cfg.Metrics
	if m == nil {
		var err error
		if m, err = observe.NewMetrics(noop.NewMeterProvider()); err != nil {
			return nil, fmt.Errorf("notes: init noop metrics: %w", err)
		}
	}

	return &Pipeline{
		transcriber:      cfg.Transcriber,
		transcriberName:  cfg.TranscriberName,
		summarizer:       cfg.Summarizer,
		summarizerName:   cfg.SummarizerName,
		downloader:       cfg.Downloader,
		replier:          cfg.Replier,
		metrics:          m,
		workDir:          cfg.WorkDir,
		summaryEnabled:   cfg.SummaryEnabled,
		summaryThreshold: cfg.SummaryThreshold,
	}, nil
}

// Process handles one voice note to completion: download → transcribe →
// (summarize) → format → reply → cleanup.
//
// Failures are fatal to this job only, never to the process. On transcription
// failure the sender receives no reply at all. On summarization failure the
// summary reply is dropped but the transcript is still delivered. The local
// audio file is removed on every exit path.
func (p *Pipeline) Process(ctx context.Context, note VoiceNote) error {
	ctx, span := observe.StartSpan(ctx, "voicenote.process",
		trace.WithAttributes(attribute.String("message_id", note.MessageID)),
	)
	defer span.End()
	log := observe.Logger(ctx).With(
		slog.String("message_id", note.MessageID),
		slog.String("author_id", note.AuthorID),
	)

	p.metrics.JobsInFlight.Add(ctx, 1)
	defer p.metrics.JobsInFlight.Add(ctx, -1)

	audioPath := filepath.Join(p.workDir, note.MessageID+audioFileExt)
	defer p.removeAudio(log, audioPath)

	if err := p.download(ctx, note, audioPath); err != nil {
		log.Error("voice note download failed", "err", err)
		return fmt.Errorf("notes: download %s: %w", note.MessageID, err)
	}

	transcript, err := p.transcribeStep(ctx, audioPath)
	if err != nil {
		// No transcript means no reply for the sender; the failure is only
		// visible in logs and metrics.
		log.Error("error processing voice note audio", "backend", p.transcriberName, "err", err)
		return fmt.Errorf("notes: transcribe %s: %w", note.MessageID, err)
	}
	log.Info("voice note transcribed", "backend", p.transcriberName, "chars", len(transcript))

	if p.shouldSummarize(transcript) {
		if summary := p.summarizeStep(ctx, log, transcript); summary != "" {
			if err := p.replier.Reply(ctx, note, FormatSummary(summary)); err != nil {
				// The transcript reply still goes out.
				log.Warn("failed to send summary reply", "err", err)
			} else {
				p.metrics.Replies.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "summary")))
			}
		}
	}

	if err := p.replier.Reply(ctx, note, FormatTranscript(transcript)); err != nil {
		log.Error("failed to send transcript reply", "err", err)
		return fmt.Errorf("notes: reply %s: %w", note.MessageID, err)
	}
	p.metrics.Replies.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "transcript")))

	return nil
}

// download streams the note's payload into a file at audioPath.
func (p *Pipeline) download(ctx context.Context, note VoiceNote, audioPath string) error {
	f, err := os.Create(audioPath)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}

	if err := p.downloader.Download(ctx, note, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// transcribeStep invokes the transcription backend once and normalises its
// outcome: any error or blank transcript is a failed step.
func (p *Pipeline) transcribeStep(ctx context.Context, audioPath string) (string, error) {
	start := time.Now()
	res, err := p.transcriber.Transcribe(ctx, audioPath)
	p.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())

	backend := attribute.String("backend", p.transcriberName)
	if err == nil && (res == nil || strings.TrimSpace(res.Text) == "") {
		err = transcribe.ErrNoTranscript
	}
	if err != nil {
		p.metrics.Transcriptions.Add(ctx, 1, metric.WithAttributes(backend, attribute.String("status", "error")))
		return "", err
	}

	p.metrics.Transcriptions.Add(ctx, 1, metric.WithAttributes(backend, attribute.String("status", "ok")))
	return res.Text, nil
}

// shouldSummarize reports whether the summarization step runs for transcript.
// The threshold compares character counts, not bytes.
func (p *Pipeline) shouldSummarize(transcript string) bool {
	return p.summaryEnabled && utf8.RuneCountInString(transcript) > p.summaryThreshold
}

// summarizeStep invokes the summarization backend once. Blank input
// short-circuits to a canned response without a backend call. Backend errors
/// are absorbed: the step logs them and returns an empty summary so transcript
// delivery is never blocked.
func (p *Pipeline) summarizeStep(ctx context.Context, log *slog.Logger, transcript string) string {
	if strings.TrimSpace(transcript) == "" {
		return nothingToSummarize
	}

	start := time.Now()
	summary, err := p.summarizer.Summarize(ctx, transcript)
	p.metrics.SummaryDuration.Record(ctx, time.Since(start).Seconds())

	backend := attribute.String("backend", p.summarizerName)
	if err != nil {
		p.metrics.Summaries.Add(ctx, 1, metric.WithAttributes(backend, attribute.String("status", "error")))
		log.Warn("summarization failed, sending transcript only", "backend", p.summarizerName, "err", err)
		return ""
	}

	p.metrics.Summaries.Add(ctx, 1, metric.WithAttributes(backend, attribute.String("status", "ok")))
	return summary
}

// removeAudio deletes the job's temp file. Cleanup runs on every exit path and
// never propagates: a failed delete must not crash a job that already replied.
func (p *Pipeline) removeAudio(log *slog.Logger, audioPath string) {
	if err := os.Remove(audioPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("failed to remove audio file", "path", audioPath, "err", err)
	}
}
