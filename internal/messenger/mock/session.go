// Package mock provides test doubles for Discord message testing.
package mock

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// SentReply captures the arguments of one ChannelMessageSendReply call.
type SentReply struct {
	ChannelID string
	Content   string
	Reference *discordgo.MessageReference
}

// ReplySender records outbound replies for test assertions.
type ReplySender struct {
	mu sync.Mutex

	// Replies records all ChannelMessageSendReply calls in order.
	Replies []SentReply

	// Err is returned by ChannelMessageSendReply when non-nil, allowing
	// error injection.
	Err error
}

// ChannelMessageSendReply records the reply and returns the configured error.
func (m *ReplySender) ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replies = append(m.Replies, SentReply{ChannelID: channelID, Content: content, Reference: reference})
	if m.Err != nil {
		return nil, m.Err
	}
	return &discordgo.Message{ID: "mock-reply"}, nil
}

// LastReply returns the most recently recorded reply, or nil.
func (m *ReplySender) LastReply() *SentReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Replies) == 0 {
		return nil
	}
	return &m.Replies[len(m.Replies)-1]
}
