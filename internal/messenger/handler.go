package messenger

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/voxnote/voxnote/internal/notes"
)

// defaultJobTimeout bounds a single voice note job end to end: download,
// transcription, optional summarization, and both replies.
const defaultJobTimeout = 5 * time.Minute

// Processor consumes a voice note. Implemented by [notes.Pipeline].
type Processor interface {
	Process(ctx context.Context, note notes.VoiceNote) error
}

// Handler inspects incoming messages and dispatches voice notes to the
// processor. Each note runs in its own goroutine so a slow backend never
// blocks the gateway event loop.
type Handler struct {
	ctx       context.Context
	processor Processor
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewHandler creates a Handler. ctx bounds the lifetime of all dispatched
// jobs; cancelling it aborts in-flight processing during shutdown.
func NewHandler(ctx context.Context, processor Processor) *Handler {
	return &Handler{
		ctx:       ctx,
		processor: processor,
		timeout:   defaultJobTimeout,
	}
}

// HandleMessage processes one message-create event. selfID is the bot's own
// user ID; messages from the bot itself or from other bots are ignored, as
// are messages without an audio attachment.
func (h *Handler) HandleMessage(selfID string, m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil {
		return
	}
	if m.Author.Bot || (selfID != "" && m.Author.ID == selfID) {
		return
	}

	att := voiceAttachment(m.Attachments)
	if att == nil {
		return
	}

	note := notes.VoiceNote{
		MessageID:  m.ID,
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		PayloadURL: att.URL,
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(h.ctx, h.timeout)
		defer cancel()
		if err := h.processor.Process(ctx, note); err != nil {
			slog.Error("voice note processing failed",
				"message_id", note.MessageID,
				"channel_id", note.ChannelID,
				"err", err,
			)
		}
	}()
}

// Wait blocks until all dispatched jobs have finished. Called during
// shutdown after the gateway connection is closed.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// voiceAttachment returns the first audio attachment, or nil when the
// message carries none. Discord marks voice messages with an audio/* content
// type on the attachment.
func voiceAttachment(atts []*discordgo.MessageAttachment) *discordgo.MessageAttachment {
	for _, a := range atts {
		if a != nil && strings.HasPrefix(strings.ToLower(a.ContentType), "audio/") {
			return a
		}
	}
	return nil
}
