// Package menu renders the settings view and parses inline-callback tokens.
// The view is always a pure function of the user's record; handlers re-render
// it in place after every mutation.
package menu

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kevloudy/compressbot/internal/settings"
)

// Callback tokens.
const (
	TokenToggleUpload = "upload_mode"
	TokenFormat       = "format"
	TokenResolution   = "resolution"
	TokenBitrate      = "bitrate"
	TokenTune         = "tune"
	TokenPrefix       = "prefixe"
	TokenSuffix       = "suffixe"
	TokenThumbnail    = "thumbnail"
	TokenReset        = "reset"
	TokenBack         = "back"
	TokenClose        = "close"

	setPrefix    = "set "
	deletePrefix = "delete "
)

// SetToken encodes a (field, value) pair for a choice button.
func SetToken(field, value string) string {
	return setPrefix + field + " " + value
}

// DeleteToken encodes the delete action for a dialog field.
func DeleteToken(field string) string {
	return deletePrefix + field
}

// IsSet reports whether a token is a composite set token.
func IsSet(token string) bool { return strings.HasPrefix(token, setPrefix) }

// IsDelete reports whether a token is a delete action, returning the field.
func IsDelete(token string) (string, bool) {
	if !strings.HasPrefix(token, deletePrefix) {
		return "", false
	}
	return strings.TrimPrefix(token, deletePrefix), true
}

// ParseSet decodes and validates a composite set token. Values outside the
// field's enumerated set are rejected here, before any store write.
func ParseSet(token string) (field, value string, err error) {
	parts := strings.Split(token, " ")
	if len(parts) != 3 || parts[0] != "set" {
		return "", "", fmt.Errorf("malformed set token %q", token)
	}
	field, value = parts[1], parts[2]
	if !settings.ValidValue(field, value) {
		return "", "", fmt.Errorf("%s=%q: %w", field, value, settings.ErrInvalidValue)
	}
	return field, value, nil
}

func orNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}

// Settings builds the main menu text and keyboard from a record.
func Settings(cfg settings.UserConfig, hasThumbnail bool) (string, tgbotapi.InlineKeyboardMarkup) {
	// The toggle button names the mode a tap switches to.
	toggleTo := "Document"
	if cfg.UploadMode == settings.UploadDocument {
		toggleTo = "Media"
	}
	thumb := "absent"
	if hasThumbnail {
		thumb = "present"
	}

	text := "🛠 Compression and upload settings\n\n" +
		fmt.Sprintf("Upload as: %s\n", strings.ToUpper(cfg.UploadMode)) +
		fmt.Sprintf("Output format: %s\n", strings.ToUpper(cfg.Container)) +
		fmt.Sprintf("Resolution: %s\n", cfg.Resolution) +
		fmt.Sprintf("Prefix: %s\n", orNone(cfg.Prefix)) +
		fmt.Sprintf("Suffix: %s\n", orNone(cfg.Suffix)) +
		fmt.Sprintf("Thumbnail: %s\n", thumb) +
		fmt.Sprintf("Bitrate: %s\n", strings.ToUpper(cfg.Bitrate)) +
		fmt.Sprintf("Tune: %s\n", strings.ToUpper(cfg.Tune))

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Upload as "+toggleTo, TokenToggleUpload),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Output Format", TokenFormat),
			tgbotapi.NewInlineKeyboardButtonData("Resolution", TokenResolution),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Prefix", TokenPrefix),
			tgbotapi.NewInlineKeyboardButtonData("Suffix", TokenSuffix),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🖼 Thumbnail", TokenThumbnail),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Bitrate", TokenBitrate),
			tgbotapi.NewInlineKeyboardButtonData("Tune", TokenTune),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Reset settings", TokenReset),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Close", TokenClose),
		),
	)
	return text, kb
}

// ChoiceKeyboard builds the sub-menu for an enumerated field, one option per
// row plus a back button. ok is false for fields without a choice set.
func ChoiceKeyboard(field string) (tgbotapi.InlineKeyboardMarkup, bool) {
	choices := settings.Choices(field)
	if choices == nil {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices)+1)
	for _, c := range choices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(strings.ToUpper(c), SetToken(field, c)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", TokenBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// ChoicePrompt is the sub-menu caption for an enumerated field.
func ChoicePrompt(field string) string {
	switch field {
	case settings.FieldFormat:
		return "Choose the output format:"
	case settings.FieldResolution:
		return "Choose the compression resolution:"
	case settings.FieldBitrate:
		return "Choose the compression bitrate:"
	case settings.FieldTune:
		return "Choose the compression tune:"
	}
	return "Choose a value:"
}

// DialogKeyboard is the delete/back keyboard shown while a capture dialog
// is waiting for input.
func DialogKeyboard(field string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", DeleteToken(field)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", TokenBack),
		),
	)
}

// DialogPrompt is the caption shown while waiting for dialog input.
func DialogPrompt(field string) string {
	if field == TokenThumbnail {
		return "🖼 Send the image you want to use as thumbnail:"
	}
	return fmt.Sprintf("✏️ Send the %s you want to use:", field)
}
