package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bwmarrin/discordgo"

	"github.com/tunegrab/tunegrab/internal/metadata"
	"github.com/tunegrab/tunegrab/internal/pipeline"
	"github.com/tunegrab/tunegrab/internal/progress"
	"github.com/tunegrab/tunegrab/internal/storage"
)

const bytesPerMB = 1024 * 1024

// handleToMP3 downloads the link, converts everything to MP3 and
// uploads the results to the channel. Files over the upload cap are
// archived and delivered as links when the store supports it.
func (b *Bot) handleToMP3(s *discordgo.Session, m *discordgo.MessageCreate, url string) {
	if url == "" {
		b.reply(s, m, fmt.Sprintf("Usage: %stomp3 <YouTube link>", b.cfg.CommandPrefix))
		return
	}
	if !pipeline.SupportedURL(url) {
		b.reply(s, m, "That doesn't look like a YouTube link.")
		return
	}

	status, err := s.ChannelMessageSend(m.ChannelID, "Working on it...")
	if err != nil {
		slog.Error("failed to send status message", "error", err)
		return
	}

	// The message ID keys the working directory, so concurrent
	// requests never collide.
	requestID := m.ID
	defer func() {
		if err := b.store.Cleanup(requestID); err != nil {
			slog.Warn("cleanup failed", "request_id", requestID, "error", err)
		}
	}()

	tracker := progress.NewTracker()
	tracker.AddListener(statusEditor(s, status))

	result, err := b.pipeline.Fetch(context.Background(), url, pipeline.Options{
		RequestID: requestID,
		Tracker:   tracker,
	})
	if err != nil {
		b.edit(s, status, fetchErrorMessage(err))
		return
	}

	sent := 0
	for _, path := range result.Files {
		size, err := b.store.FileSize(path)
		if err != nil {
			slog.Error("failed to stat file", "path", path, "error", err)
			continue
		}

		if exceedsUploadCap(size, b.cfg.MaxUploadMB) {
			link, err := b.store.Archive(context.Background(), requestID, path)
			if errors.Is(err, storage.ErrArchiveUnsupported) {
				b.reply(s, m, fmt.Sprintf("%s is too large to upload (%.1f MB).",
					filepath.Base(path), float64(size)/bytesPerMB))
				continue
			}
			if err != nil {
				slog.Error("archive failed", "path", path, "error", err)
				continue
			}
			b.reply(s, m, fmt.Sprintf("%s is too large to upload, grab it here: %s",
				filepath.Base(path), link))
			sent++
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			slog.Error("failed to open file", "path", path, "error", err)
			continue
		}
		_, err = s.ChannelFileSend(m.ChannelID, filepath.Base(path), f)
		f.Close()
		if err != nil {
			slog.Error("upload failed", "path", path, "error", err)
			continue
		}
		sent++
	}

	if sent == len(result.Files) {
		b.edit(s, status, "All files sent!")
	} else {
		b.edit(s, status, fmt.Sprintf("Sent %d/%d files.", sent, len(result.Files)))
	}
}

// handleShowMusic lists the tracks behind a link without downloading
// anything.
func (b *Bot) handleShowMusic(s *discordgo.Session, m *discordgo.MessageCreate, url string) {
	if url == "" {
		b.reply(s, m, fmt.Sprintf("Usage: %sshowmusic <YouTube link>", b.cfg.CommandPrefix))
		return
	}

	report, err := b.pipeline.Describe(context.Background(), url)
	if err != nil {
		b.reply(s, m, fetchErrorMessage(err))
		return
	}

	b.reply(s, m, metadata.Render(report, b.cfg.MessageCharLimit))
}

// exceedsUploadCap reports whether a file is too large for a direct
// Discord upload.
func exceedsUploadCap(size, maxUploadMB int64) bool {
	return size > maxUploadMB*bytesPerMB
}

// statusEditor reflects stage changes in the status message. Per-item
// updates are skipped so the Discord edit rate limit is never hit.
func statusEditor(s *discordgo.Session, status *discordgo.Message) func(progress.Event) {
	return func(event progress.Event) {
		if event.Item != nil || event.Message == "" || event.Stage == progress.StageError {
			return
		}
		if _, err := s.ChannelMessageEdit(status.ChannelID, status.ID, event.Message); err != nil {
			slog.Warn("failed to edit status message", "error", err)
		}
	}
}

func fetchErrorMessage(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedURL):
		return "That doesn't look like a YouTube link."
	case errors.Is(err, pipeline.ErrNothingFound):
		return "Nothing found at that link."
	default:
		slog.Error("request failed", "error", err)
		return "Something went wrong, try again later."
	}
}

func (b *Bot) reply(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	if _, err := s.ChannelMessageSend(m.ChannelID, content); err != nil {
		slog.Error("failed to send message", "error", err)
	}
}

func (b *Bot) edit(s *discordgo.Session, msg *discordgo.Message, content string) {
	if _, err := s.ChannelMessageEdit(msg.ChannelID, msg.ID, content); err != nil {
		slog.Error("failed to edit message", "error", err)
	}
}
