package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// tgGateway implements pipeline.Gateway over the Telegram Bot API.
type tgGateway struct {
	bot   *tgbotapi.BotAPI
	token string
}

// EditStatus edits the single per-job progress message in place.
// Best-effort: a failed edit never fails the job.
func (g *tgGateway) EditStatus(chatID int64, messageID int, text string) {
	_, _ = g.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
}

func (g *tgGateway) Download(ctx context.Context, fileID, dest string) error {
	file, err := g.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(g.token), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
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

func (g *tgGateway) SendVideo(chatID int64, path, caption, thumbPath string) error {
	v := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	v.Caption = caption
	if fileExists(thumbPath) {
		v.Thumb = tgbotapi.FilePath(thumbPath)
	}
	_, err := g.bot.Send(v)
	return err
}

func (g *tgGateway) SendDocument(chatID int64, path, caption, thumbPath string) error {
	d := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	d.Caption = caption
	if fileExists(thumbPath) {
		d.Thumb = tgbotapi.FilePath(thumbPath)
	}
	_, err := g.bot.Send(d)
	return err
}

// fileExists lets a missing thumbnail degrade to a no-op attach.
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
