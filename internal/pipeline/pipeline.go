// Package pipeline drives one media submission end-to-end: size gate,
// acquisition into the per-user workspace, config snapshot, transcode,
// delivery, and unconditional cleanup of transients on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevloudy/compressbot/internal/logx"
	"github.com/kevloudy/compressbot/internal/settings"
	"github.com/kevloudy/compressbot/internal/transcode"
)

// Gateway is the messaging side of the pipeline: progress edits, file
// retrieval, and result delivery. Implemented over the Telegram API by the
// worker; faked in tests.
type Gateway interface {
	EditStatus(chatID int64, messageID int, text string)
	Download(ctx context.Context, fileID, dest string) error
	SendVideo(chatID int64, path, caption, thumbPath string) error
	SendDocument(chatID int64, path, caption, thumbPath string) error
}

// Transcoder abstracts the ffmpeg engine.
type Transcoder interface {
	Run(ctx context.Context, p transcode.Params) (transcode.Result, error)
}

// Job is one submission. Config is snapshotted inside Process; later
// settings edits never affect a job already running.
type Job struct {
	ChatID          int64
	UserID          int64
	FileID          string
	FileName        string
	SizeBytes       int64
	DurationSec     float64
	StatusMessageID int
}

type Pipeline struct {
	Store    *settings.Store
	Gateway  Gateway
	Engine   Transcoder
	Strategy transcode.BitrateStrategy
	Preset   string
}

func removeIfExists(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

// Process runs one submission to a terminal state. All user-visible failure
// reporting happens here; the returned error is for logging/queue accounting
// and must not trigger a retry of a failure already reported to the user.
func (p *Pipeline) Process(ctx context.Context, job Job) error {
	l := logx.FromCtx(ctx)

	// The bot gates before enqueueing; gate again so the pipeline is safe
	// on its own.
	if Oversized(job.SizeBytes) {
		p.Gateway.EditStatus(job.ChatID, job.StatusMessageID,
			fmt.Sprintf("❌ Video too large: %.2f MB (limit is %d MB).", SizeMB(job.SizeBytes), MaxVideoSizeMB))
		return nil
	}

	dir, err := p.Store.EnsureUserDir(job.UserID)
	if err != nil {
		p.Gateway.EditStatus(job.ChatID, job.StatusMessageID, "❌ Something went wrong.")
		return err
	}

	srcPath := filepath.Join(dir, SourceName(job.FileName))
	outPath := ""
	defer func() {
		// Transients never outlive the run, whichever branch returned.
		removeIfExists(srcPath)
		removeIfExists(outPath)
	}()

	if err := p.Gateway.Download(ctx, job.FileID, srcPath); err != nil {
		l.Error().Err(err).Msg("download failed")
		p.Gateway.EditStatus(job.ChatID, job.StatusMessageID, "❌ Failed to download the video.")
		return err
	}
	p.Gateway.EditStatus(job.ChatID, job.StatusMessageID,
		"✅ Video downloaded successfully\nBegin compression...")

	cfg, err := p.Store.Ensure(job.UserID)
	if err != nil {
		p.Gateway.EditStatus(job.ChatID, job.StatusMessageID, "❌ Something went wrong.")
		return err
	}

	container := transcode.EffectiveContainer(filepath.Ext(srcPath), cfg.Container)
	outName := OutputName(cfg.Prefix, BaseStem(filepath.Base(srcPath)), cfg.Suffix, container)
	outPath = filepath.Join(dir, outName)

	params := transcode.Params{
		Input:      srcPath,
		Output:     outPath,
		Codec:      transcode.CodecFor(container),
		Resolution: cfg.Resolution,
		Bitrate:    p.Strategy.Bitrate(transcode.SourceInfo{SizeBytes: job.SizeBytes, DurationSec: job.DurationSec}, cfg),
		Tune:       cfg.Tune,
		Preset:     p.Preset,
	}
	l.Info().
		Str("container", container).
		Str("resolution", params.Resolution).
		Str("bitrate", params.Bitrate).
		Str("tune", params.Tune).
		Msg("starting transcode")

	res, err := p.Engine.Run(ctx, params)
	if err != nil {
		l.Error().Err(err).Msg("transcode failed")
		var terr *transcode.Error
		if errors.As(err, &terr) && errors.Is(terr.Err, transcode.ErrTimeout) {
			p.Gateway.EditStatus(job.ChatID, job.StatusMessageID, "❌ Compression timed out.")
			return err
		}
		p.Gateway.EditStatus(job.ChatID, job.StatusMessageID,
			fmt.Sprintf("❌ Compression failed: %v", err))
		return err
	}
	p.Gateway.EditStatus(job.ChatID, job.StatusMessageID,
		fmt.Sprintf("✅ Compression complete: %.2fMB in %.2fs", res.SizeMB, res.Elapsed.Seconds()))

	if _, err := os.Stat(outPath); err != nil {
		// Nothing to deliver; skip silently.
		return nil
	}

	caption := strings.TrimSuffix(outName, filepath.Ext(outName))
	thumb := p.Store.ThumbnailPath(job.UserID)
	if cfg.UploadMode == settings.UploadDocument {
		err = p.Gateway.SendDocument(job.ChatID, outPath, caption, thumb)
	} else {
		err = p.Gateway.SendVideo(job.ChatID, outPath, caption, thumb)
	}
	if err != nil {
		l.Error().Err(err).Msg("upload failed")
		p.Gateway.EditStatus(job.ChatID, job.StatusMessageID, "❌ Failed to upload the result.")
		return err
	}

	l.Info().Float64("size_mb", res.SizeMB).Msg("delivered")
	return nil
}
