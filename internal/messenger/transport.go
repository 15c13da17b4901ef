package messenger

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/voxnote/voxnote/internal/notes"
)

// AttachmentDownloader fetches voice note payloads from Discord's CDN over
// plain HTTP. It implements [notes.Downloader].
type AttachmentDownloader struct {
	client *http.Client
}

// NewAttachmentDownloader creates a downloader. A nil client falls back to
// http.DefaultClient; per-job deadlines come from the request context.
func NewAttachmentDownloader(client *http.Client) *AttachmentDownloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &AttachmentDownloader{client: client}
}

// Download streams the note's payload into dst.
func (d *AttachmentDownloader) Download(ctx context.Context, note notes.VoiceNote, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, note.PayloadURL, nil)
	if err != nil {
		return fmt.Errorf("messenger: create download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("messenger: download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("messenger: download attachment: unexpected status %s", resp.Status)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("messenger: read attachment body: %w", err)
	}
	return nil
}

// replySender is the slice of discordgo.Session used for outbound replies.
// Narrowed for testability.
type replySender interface {
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelReplier sends text replies back to the message a voice note came
// from. It implements [notes.Replier].
type ChannelReplier struct {
	sender replySender
}

// NewChannelReplier creates a replier backed by the given session.
func NewChannelReplier(sender replySender) *ChannelReplier {
	return &ChannelReplier{sender: sender}
}

// Reply posts text as a reply referencing the original message.
func (r *ChannelReplier) Reply(_ context.Context, note notes.VoiceNote, text string) error {
	ref := &discordgo.MessageReference{
		MessageID: note.MessageID,
		ChannelID: note.ChannelID,
	}
	if _, err := r.sender.ChannelMessageSendReply(note.ChannelID, text, ref); err != nil {
		return fmt.Errorf("messenger: send reply: %w", err)
	}
	return nil
}
