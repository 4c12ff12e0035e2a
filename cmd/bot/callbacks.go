package main

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/kevloudy/compressbot/internal/dialog"
	"github.com/kevloudy/compressbot/internal/menu"
	"github.com/kevloudy/compressbot/internal/settings"
)

// onCallback is the dispatch table for every inline button. Mutating
// branches write through the store and re-render the menu in place.
func (s *server) onCallback(cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		_ = s.answerCB(cq, "")
		return
	}
	data := cq.Data
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID

	log.Info().Int64("user_id", userID).Str("action", data).Msg("callback")

	if menu.IsSet(data) {
		field, value, err := menu.ParseSet(data)
		if err != nil {
			// Out-of-set values are acknowledged, never stored.
			_ = s.answerCB(cq, "❌ Unknown action")
			return
		}
		if _, err := s.store.Set(userID, field, value); err != nil {
			_ = s.answerCB(cq, "❌ Unknown action")
			return
		}
		_ = s.answerCB(cq, "")
		s.renderSettings(userID, chatID, msgID)
		return
	}

	if field, ok := menu.IsDelete(data); ok {
		s.deleteField(cq, field)
		return
	}

	switch data {
	case menu.TokenToggleUpload:
		if _, err := s.store.ToggleUpload(userID); err != nil {
			_ = s.answerCB(cq, "❌ Internal error")
			return
		}
		_ = s.answerCB(cq, "")
		s.renderSettings(userID, chatID, msgID)

	case menu.TokenFormat, menu.TokenResolution, menu.TokenBitrate, menu.TokenTune:
		kb, ok := menu.ChoiceKeyboard(data)
		if !ok {
			_ = s.answerCB(cq, "❌ Unknown action")
			return
		}
		_ = s.answerCB(cq, "")
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, menu.ChoicePrompt(data), kb)
		_, _ = s.bot.Send(edit)

	case menu.TokenPrefix, menu.TokenSuffix:
		s.beginDialog(cq, data, dialog.KindText)

	case menu.TokenThumbnail:
		s.beginDialog(cq, data, dialog.KindPhoto)

	case menu.TokenReset:
		if err := s.store.Reset(userID); err != nil {
			_ = s.answerCB(cq, "❌ Internal error")
			return
		}
		_ = s.answerCB(cq, "🔄 Settings reset")
		s.renderSettings(userID, chatID, msgID)

	case menu.TokenBack:
		// Universal escape: terminates any dialog and restores the menu.
		s.dialogs.End(userID)
		_ = s.answerCB(cq, "")
		s.renderSettings(userID, chatID, msgID)

	case menu.TokenClose:
		s.dialogs.End(userID)
		_ = s.answerCB(cq, "")
		_, _ = s.bot.Request(tgbotapi.NewDeleteMessage(chatID, msgID))

	default:
		_ = s.answerCB(cq, "❌ Unknown action")
	}
}

// beginDialog turns the menu message into a capture prompt and records the
// session. Re-entering while one is active overwrites it.
func (s *server) beginDialog(cq *tgbotapi.CallbackQuery, field string, kind dialog.Kind) {
	_ = s.answerCB(cq, "")
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID

	s.dialogs.Begin(dialog.Session{
		UserID:    cq.From.ID,
		Field:     field,
		Kind:      kind,
		ChatID:    chatID,
		MessageID: msgID,
	})

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID,
		menu.DialogPrompt(field), menu.DialogKeyboard(field))
	_, _ = s.bot.Send(edit)
}

// deleteField clears a dialog field (empty string, or thumbnail removal)
// and terminates the session.
func (s *server) deleteField(cq *tgbotapi.CallbackQuery, field string) {
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID

	switch field {
	case settings.FieldPrefix, settings.FieldSuffix:
		if _, err := s.store.SetText(userID, field, ""); err != nil {
			_ = s.answerCB(cq, "❌ Internal error")
			return
		}
	case menu.TokenThumbnail:
		if err := s.store.RemoveThumbnail(userID); err != nil {
			_ = s.answerCB(cq, "❌ Internal error")
			return
		}
	default:
		_ = s.answerCB(cq, "❌ Unknown action")
		return
	}

	s.dialogs.End(userID)
	_ = s.answerCB(cq, "")
	s.renderSettings(userID, chatID, msgID)
}

func (s *server) answerCB(cq *tgbotapi.CallbackQuery, text string) error {
	_, err := s.bot.Request(tgbotapi.NewCallback(cq.ID, text))
	return err
}
