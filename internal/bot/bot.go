// Package bot runs the Discord front end. It listens for prefix
// commands in guild channels and drives the shared fetch pipeline.
package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tunegrab/tunegrab/config"
	"github.com/tunegrab/tunegrab/internal/pipeline"
	"github.com/tunegrab/tunegrab/internal/storage"
)

// Bot is a Discord session bound to the fetch pipeline.
type Bot struct {
	session  *discordgo.Session
	pipeline *pipeline.Pipeline
	store    storage.Store
	cfg      config.BotConfig
}

func New(token string, p *pipeline.Pipeline, store storage.Store, cfg config.BotConfig) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	b := &Bot{
		session:  session,
		pipeline: p,
		store:    store,
		cfg:      cfg,
	}
	session.AddHandler(b.onMessage)
	return b, nil
}

// Start opens the gateway connection. It returns once the session is
// connected; Stop closes it.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	slog.Info("bot connected", "user", b.session.State.User.Username)
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	name, args, ok := parseCommand(m.Content, b.cfg.CommandPrefix)
	if !ok {
		return
	}

	switch name {
	case "tomp3":
		b.handleToMP3(s, m, args)
	case "showmusic":
		b.handleShowMusic(s, m, args)
	}
}

// parseCommand splits a message into a command name and its argument.
// It reports false for messages that do not start with the prefix.
func parseCommand(content, prefix string) (name, args string, ok bool) {
	if !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	rest := strings.TrimSpace(content[len(prefix):])
	if rest == "" {
		return "", "", false
	}

	name, args, _ = strings.Cut(rest, " ")
	return strings.ToLower(name), strings.TrimSpace(args), true
}
