package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/kevloudy/compressbot/internal/dialog"
	"github.com/kevloudy/compressbot/internal/jobs"
	"github.com/kevloudy/compressbot/internal/logx"
	"github.com/kevloudy/compressbot/internal/menu"
	"github.com/kevloudy/compressbot/internal/pipeline"
	"github.com/kevloudy/compressbot/internal/settings"
)

type cfg struct {
	BotToken     string
	RedisAddr    string
	DataDir      string
	SettingsFile string
	DialogTTLMin int
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func loadCfg() cfg {
	return cfg{
		BotToken:     os.Getenv("BOT_TOKEN"),
		RedisAddr:    env("REDIS_ADDR", "localhost:6379"),
		DataDir:      env("DATA_DIR", "./data"),
		SettingsFile: env("SETTINGS_FILE", ""),
		DialogTTLMin: mustEnvInt("DIALOG_TTL_MIN", 30),
	}
}

func newULID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

type server struct {
	cfg     cfg
	bot     *tgbotapi.BotAPI
	asynq   *asynq.Client
	store   *settings.Store
	dialogs *dialog.Manager
}

func main() {
	_ = godotenv.Load()
	c := loadCfg()

	logx.Setup(logx.FromEnv("bot"))
	log.Info().Msg("bot starting")

	if c.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN is required")
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create data dir")
	}
	if c.SettingsFile == "" {
		c.SettingsFile = filepath.Join(c.DataDir, "compresse_data.json")
	}

	// health endpoint
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"ok":true}`)) })
		log.Info().Msg("bot health on :8080/health")
		log.Error().Err(http.ListenAndServe(":8080", nil)).Msg("health server stopped")
	}()

	bot, err := tgbotapi.NewBotAPI(c.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth")
	}
	bot.Debug = false
	log.Info().Str("username", bot.Self.UserName).Msg("bot authorized")

	s := &server{
		cfg:     c,
		bot:     bot,
		asynq:   asynq.NewClient(asynq.RedisClientOpt{Addr: c.RedisAddr}),
		store:   settings.NewStore(c.SettingsFile, c.DataDir),
		dialogs: dialog.NewManager(time.Duration(c.DialogTTLMin) * time.Minute),
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	// One task per inbound event; tasks for different users run independently.
	for upd := range updates {
		upd := upd
		switch {
		case upd.Message != nil:
			go s.onMessage(upd.Message)
		case upd.CallbackQuery != nil:
			go s.onCallback(upd.CallbackQuery)
		}
	}
}

/* ---------------------- messages ---------------------- */

func (s *server) onMessage(m *tgbotapi.Message) {
	if m.From == nil {
		return
	}
	log.Info().
		Int64("chat_id", m.Chat.ID).
		Int64("user_id", m.From.ID).
		Msg("message received")

	if m.IsCommand() {
		s.onCommand(m)
		return
	}

	// An active capture dialog claims the next message of its expected kind;
	// everything else falls through to media intake.
	if sess, ok := s.dialogs.Active(m.From.ID); ok {
		switch {
		case sess.Kind == dialog.KindText && m.Text != "":
			s.finishTextDialog(sess, m)
			return
		case sess.Kind == dialog.KindPhoto && len(m.Photo) > 0:
			s.finishPhotoDialog(sess, m)
			return
		}
	}

	sub, ok := pipeline.Classify(m)
	if !ok {
		return
	}
	s.submit(m, sub)
}

func (s *server) onCommand(m *tgbotapi.Message) {
	switch m.Command() {
	case "start":
		if _, err := s.store.Ensure(m.From.ID); err != nil {
			log.Error().Err(err).Msg("ensure user")
		}
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID,
			"Welcome! I am the video compression bot 💻🎞️\n"+
				"Send me a video and I will compress it with your preferences.\n"+
				"Use /help for details."))
	case "help":
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, helpText))
	case "settings":
		s.renderSettings(m.From.ID, m.Chat.ID, 0)
	case "cancel":
		if sess, ok := s.dialogs.Active(m.From.ID); ok {
			s.dialogs.End(m.From.ID)
			s.renderSettings(m.From.ID, sess.ChatID, sess.MessageID)
		}
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "Canceled."))
	default:
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "Unknown command. Use /help."))
	}
}

const helpText = "📚 Video Compression Bot - Help\n\n" +
	"Send me a video file and I will compress it based on your preferences.\n\n" +
	"⚙️ /settings opens the compression settings menu:\n" +
	"• Output format (mp4, mkv, avi, ts)\n" +
	"• Resolution (e.g. 1280:720)\n" +
	"• Bitrate (e.g. 480k, 1000k)\n" +
	"• Filename prefix/suffix\n" +
	"• Thumbnail\n" +
	"• FFmpeg tune profile\n\n" +
	"▶️ How to use\n" +
	"1. Set your preferences via /settings.\n" +
	"2. Send me a video file (max 2000 MB).\n" +
	"3. I compress it and send it back to you.\n\n" +
	"🔄 You can reset your settings anytime from the menu."

/* ---------------------- media intake ---------------------- */

func (s *server) submit(m *tgbotapi.Message, sub pipeline.Submission) {
	if pipeline.Oversized(sub.SizeBytes) {
		_, _ = s.bot.Send(tgbotapi.NewMessage(m.Chat.ID,
			fmt.Sprintf("❌ Video too large: %.2f MB (limit is %d MB).",
				pipeline.SizeMB(sub.SizeBytes), pipeline.MaxVideoSizeMB)))
		return
	}

	status, err := s.bot.Send(tgbotapi.NewMessage(m.Chat.ID, "📥 Downloading video..."))
	if err != nil {
		log.Error().Err(err).Msg("send status message")
		return
	}

	payload := jobs.TranscodePayload{
		JobID:           newULID(),
		ChatID:          m.Chat.ID,
		UserID:          m.From.ID,
		FileID:          sub.FileID,
		FileName:        sub.FileName,
		FileSize:        sub.SizeBytes,
		DurationSec:     sub.DurationSec,
		StatusMessageID: status.MessageID,
	}
	b, _ := json.Marshal(payload)
	if _, err := s.asynq.EnqueueContext(context.Background(),
		asynq.NewTask(jobs.TaskTranscode, b), asynq.MaxRetry(5)); err != nil {
		log.Error().Err(err).Msg("asynq enqueue transcode failed")
		edit := tgbotapi.NewEditMessageText(m.Chat.ID, status.MessageID, "❌ Queue error: "+err.Error())
		_, _ = s.bot.Send(edit)
		return
	}
	log.Info().Str("job", payload.JobID).Int64("user_id", m.From.ID).Msg("transcode enqueued")
}

/* ---------------------- settings view ---------------------- */

// renderSettings recomputes the settings view from the current record and
// either edits it in place (messageID != 0) or sends a fresh message.
func (s *server) renderSettings(userID, chatID int64, messageID int) {
	cfgRec, err := s.store.Ensure(userID)
	if err != nil {
		log.Error().Err(err).Msg("load settings")
		return
	}
	text, kb := menu.Settings(cfgRec, s.store.HasThumbnail(userID))
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
		_, _ = s.bot.Send(edit)
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	_, _ = s.bot.Send(msg)
}
