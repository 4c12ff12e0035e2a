package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/kevloudy/compressbot/internal/dialog"
)

// finishTextDialog stores the submitted text verbatim, deletes the user's
// input message, and restores the settings menu in the original context.
func (s *server) finishTextDialog(sess dialog.Session, m *tgbotapi.Message) {
	if _, err := s.store.SetText(sess.UserID, sess.Field, m.Text); err != nil {
		log.Error().Err(err).Str("field", sess.Field).Msg("store text value")
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "❌ Could not save the value. Try again."))
		return
	}
	_, _ = s.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
	s.dialogs.End(sess.UserID)
	s.renderSettings(sess.UserID, sess.ChatID, sess.MessageID)
}

// finishPhotoDialog persists the largest photo size as the user's thumbnail.
func (s *server) finishPhotoDialog(sess dialog.Session, m *tgbotapi.Message) {
	photo := m.Photo[len(m.Photo)-1]

	if _, err := s.store.EnsureUserDir(sess.UserID); err != nil {
		log.Error().Err(err).Msg("create user dir")
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "❌ Could not save the thumbnail. Try again."))
		return
	}
	if err := s.fetchFile(photo.FileID, s.store.ThumbnailPath(sess.UserID)); err != nil {
		log.Error().Err(err).Msg("thumbnail download")
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "❌ Could not save the thumbnail. Try again."))
		return
	}
	_, _ = s.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))
	s.dialogs.End(sess.UserID)
	s.renderSettings(sess.UserID, sess.ChatID, sess.MessageID)
}

// fetchFile downloads a Telegram file to a local path.
func (s *server) fetchFile(fileID, dest string) error {
	file, err := s.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}
	resp, err := http.Get(file.Link(s.cfg.BotToken))
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch: unexpected status %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
