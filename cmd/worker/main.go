package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/kevloudy/compressbot/internal/jobs"
	"github.com/kevloudy/compressbot/internal/logx"
	"github.com/kevloudy/compressbot/internal/pipeline"
	"github.com/kevloudy/compressbot/internal/settings"
	"github.com/kevloudy/compressbot/internal/transcode"
)

type cfg struct {
	BotToken        string
	RedisAddr       string
	DataDir         string
	SettingsFile    string
	Concurrency     int
	Preset          string
	TimeoutMin      int
	BitrateStrategy string
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
		BotToken:        os.Getenv("BOT_TOKEN"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		DataDir:         env("DATA_DIR", "./data"),
		SettingsFile:    env("SETTINGS_FILE", ""),
		Concurrency:     mustEnvInt("CONCURRENCY", 2),
		Preset:          env("FFMPEG_PRESET", "faster"),
		TimeoutMin:      mustEnvInt("TRANSCODE_TIMEOUT_MIN", 60),
		BitrateStrategy: env("BITRATE_STRATEGY", "fixed"),
	}
}

func main() {
	_ = godotenv.Load()
	c := loadCfg()

	logx.Setup(logx.FromEnv("worker"))
	log.Info().Msg("worker starting")

	if c.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN is required")
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create data dir")
	}
	if c.SettingsFile == "" {
		c.SettingsFile = filepath.Join(c.DataDir, "compresse_data.json")
	}

	bot, err := tgbotapi.NewBotAPI(c.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth")
	}

	engine, err := transcode.NewEngine()
	if err != nil {
		log.Fatal().Err(err).Msg("locate ffmpeg")
	}

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	store := settings.NewStore(c.SettingsFile, c.DataDir)
	pl := &pipeline.Pipeline{
		Store:    store,
		Gateway:  &tgGateway{bot: bot, token: c.BotToken},
		Engine:   engine,
		Strategy: transcode.StrategyFromName(c.BitrateStrategy),
		Preset:   c.Preset,
	}

	timeout := time.Duration(c.TimeoutMin) * time.Minute

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: c.RedisAddr}, asynq.Config{
		Concurrency: c.Concurrency,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TaskTranscode, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.TranscodePayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
		return handleTranscode(ctx, rdb, pl, timeout, p)
	})

	log.Info().Int("concurrency", c.Concurrency).Str("strategy", c.BitrateStrategy).Msg("worker ready")
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("asynq server")
	}
}

func lockKey(userID int64) string { return fmt.Sprintf("transcode:active:%d", userID) }

// handleTranscode serializes jobs per user (one active transcode per
// identity) and runs the pipeline under a deadline. A busy user is a
// retryable condition; everything the pipeline already reported to the
// user is not.
func handleTranscode(ctx context.Context, rdb *redis.Client, pl *pipeline.Pipeline, timeout time.Duration, p jobs.TranscodePayload) error {
	ok, err := rdb.SetNX(ctx, lockKey(p.UserID), p.JobID, timeout+time.Minute).Result()
	if err != nil {
		return fmt.Errorf("acquire user lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("user %d has an active transcode, retrying later", p.UserID)
	}
	defer rdb.Del(context.Background(), lockKey(p.UserID))

	ctx = logx.WithJob(ctx, p.JobID, p.UserID)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l := logx.FromCtx(ctx)
	l.Info().Str("file", p.FileName).Int64("bytes", p.FileSize).Msg("job started")

	job := pipeline.Job{
		ChatID:          p.ChatID,
		UserID:          p.UserID,
		FileID:          p.FileID,
		FileName:        p.FileName,
		SizeBytes:       p.FileSize,
		DurationSec:     p.DurationSec,
		StatusMessageID: p.StatusMessageID,
	}
	if err := pl.Process(ctx, job); err != nil {
		// Already reported to the user; do not retry a terminal failure.
		return fmt.Errorf("pipeline: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}
