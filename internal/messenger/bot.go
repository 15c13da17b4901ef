// Package messenger provides the Discord bot layer for voxnote. It owns the
// discordgo.Session lifecycle, watches incoming messages for voice
// attachments, and hands matching messages to the note pipeline.
package messenger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Bot owns the Discord gateway connection and dispatches voice messages to
// the configured handler.
type Bot struct {
	session *discordgo.Session

	mu        sync.RWMutex
	connected bool

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Bot with an unopened gateway session. Voice messages arrive
// as regular channel messages with an audio attachment, so the session is
// configured for message-create events in guilds and DMs. Call [Bot.Open]
// with a handler to connect.
func New(token string) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("messenger: token must not be empty")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("messenger: create session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Bot{
		session: session,
		done:    make(chan struct{}),
	}, nil
}

// Session returns the underlying discordgo session. Used to build the
// Replier that answers in the original channel.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// Open registers the message handler and connects to the gateway.
func (b *Bot) Open(handler *Handler) error {
	if handler == nil {
		return fmt.Errorf("messenger: handler must not be nil")
	}

	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		handler.HandleMessage(selfID(s), m)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("messenger: open session: %w", err)
	}

	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()

	slog.Info("messenger connected", "user_id", selfID(b.session))
	return nil
}

// Connected reports whether the gateway session is open. Used as a
// readiness check.
func (b *Bot) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// Run blocks until ctx is cancelled or the bot is closed. The gateway
// connection was already opened by Open; Run exists so the bot slots into an
// errgroup next to the HTTP server.
func (b *Bot) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return nil
	}
}

// Close disconnects from Discord.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		close(b.done)
		b.mu.Lock()
		b.connected = false
		b.mu.Unlock()

		if err := b.session.Close(); err != nil {
			closeErr = fmt.Errorf("messenger: close session: %w", err)
		}
		slog.Info("messenger closed")
	})
	return closeErr
}

// selfID returns the bot's own user ID, or "" before the ready event.
func selfID(s *discordgo.Session) string {
	if s == nil || s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}
