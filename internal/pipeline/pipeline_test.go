package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevloudy/compressbot/internal/settings"
	"github.com/kevloudy/compressbot/internal/transcode"
)

type sentFile struct {
	chatID  int64
	path    string
	caption string
	thumb   string
}

type fakeGateway struct {
	statuses  []string
	downloads int
	dlErr     error
	videos    []sentFile
	documents []sentFile
	sendErr   error
}

func (g *fakeGateway) EditStatus(_ int64, _ int, text string) {
	g.statuses = append(g.statuses, text)
}

func (g *fakeGateway) Download(_ context.Context, _ string, dest string) error {
	g.downloads++
	if g.dlErr != nil {
		return g.dlErr
	}
	return os.WriteFile(dest, []byte("source bytes"), 0o644)
}

func (g *fakeGateway) SendVideo(chatID int64, path, caption, thumb string) error {
	g.videos = append(g.videos, sentFile{chatID, path, caption, thumb})
	return g.sendErr
}

func (g *fakeGateway) SendDocument(chatID int64, path, caption, thumb string) error {
	g.documents = append(g.documents, sentFile{chatID, path, caption, thumb})
	return g.sendErr
}

// fakeEngine mirrors the real engine's file behavior: success writes the
// output and removes the input, failure touches nothing.
type fakeEngine struct {
	params []transcode.Params
	err    error
}

func (e *fakeEngine) Run(_ context.Context, p transcode.Params) (transcode.Result, error) {
	e.params = append(e.params, p)
	if e.err != nil {
		return transcode.Result{}, e.err
	}
	if err := os.WriteFile(p.Output, []byte("compressed"), 0o644); err != nil {
		return transcode.Result{}, err
	}
	if err := os.Remove(p.Input); err != nil {
		return transcode.Result{}, err
	}
	return transcode.Result{SizeMB: 12.34, Elapsed: 2 * time.Second}, nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *fakeGateway, *fakeEngine, *settings.Store) {
	t.Helper()
	dir := t.TempDir()
	store := settings.NewStore(filepath.Join(dir, "compresse_data.json"), dir)
	gw := &fakeGateway{}
	eng := &fakeEngine{}
	return &Pipeline{
		Store:    store,
		Gateway:  gw,
		Engine:   eng,
		Strategy: transcode.FixedConfigBitrate{},
		Preset:   "faster",
	}, gw, eng, store
}

func TestProcessRejectsOversizedBeforeDownload(t *testing.T) {
	p, gw, eng, _ := newTestPipeline(t)

	err := p.Process(context.Background(), Job{
		ChatID: 1, UserID: 2, FileID: "f", FileName: "big.mp4",
		SizeBytes: 2001 * mb, StatusMessageID: 5,
	})
	require.NoError(t, err)
	assert.Zero(t, gw.downloads, "no download attempt for oversized input")
	assert.Empty(t, eng.params)
	require.NotEmpty(t, gw.statuses)
	assert.Contains(t, gw.statuses[0], "too large")
}

func TestProcessSuccess(t *testing.T) {
	p, gw, eng, store := newTestPipeline(t)
	_, err := store.Set(2, settings.FieldResolution, "1280:720")
	require.NoError(t, err)
	_, err = store.Set(2, settings.FieldBitrate, "480k")
	require.NoError(t, err)
	_, err = store.Set(2, settings.FieldTune, "film")
	require.NoError(t, err)

	job := Job{
		ChatID: 1, UserID: 2, FileID: "f", FileName: "movie.mp4",
		SizeBytes: 300 * mb, DurationSec: 90, StatusMessageID: 5,
	}
	require.NoError(t, p.Process(context.Background(), job))

	require.Len(t, eng.params, 1)
	got := eng.params[0]
	assert.Equal(t, "original_movie.mp4", filepath.Base(got.Input))
	assert.Equal(t, "movie.mp4", filepath.Base(got.Output))
	assert.Equal(t, "libx264", got.Codec)
	assert.Equal(t, "1280:720", got.Resolution)
	assert.Equal(t, "480k", got.Bitrate)
	assert.Equal(t, "film", got.Tune)
	assert.Equal(t, "faster", got.Preset)

	require.Len(t, gw.videos, 1, "exactly one delivery")
	assert.Empty(t, gw.documents)
	assert.Equal(t, "movie", gw.videos[0].caption)
	assert.Equal(t, store.ThumbnailPath(2), gw.videos[0].thumb, "thumbnail path attached unconditionally")

	_, err = os.Stat(got.Input)
	assert.True(t, os.IsNotExist(err), "input deleted")
	_, err = os.Stat(got.Output)
	assert.True(t, os.IsNotExist(err), "output deleted after delivery")

	last := gw.statuses[len(gw.statuses)-1]
	assert.Contains(t, last, "Compression complete")
	assert.Contains(t, last, "12.34MB")
}

func TestProcessMkvSourceForcesMkvOutput(t *testing.T) {
	p, _, eng, store := newTestPipeline(t)
	_, err := store.Set(2, settings.FieldFormat, "mp4")
	require.NoError(t, err)

	job := Job{
		ChatID: 1, UserID: 2, FileID: "f", FileName: "movie.mkv",
		SizeBytes: 10 * mb, StatusMessageID: 5,
	}
	require.NoError(t, p.Process(context.Background(), job))

	require.Len(t, eng.params, 1)
	assert.Equal(t, "movie.mkv", filepath.Base(eng.params[0].Output))
}

func TestProcessAppliesPrefixSuffix(t *testing.T) {
	p, gw, _, store := newTestPipeline(t)
	_, err := store.SetText(2, settings.FieldPrefix, "A")
	require.NoError(t, err)
	_, err = store.SetText(2, settings.FieldSuffix, "B")
	require.NoError(t, err)

	job := Job{
		ChatID: 1, UserID: 2, FileID: "f", FileName: "clip.mp4",
		SizeBytes: 10 * mb, StatusMessageID: 5,
	}
	require.NoError(t, p.Process(context.Background(), job))

	require.Len(t, gw.videos, 1)
	assert.Equal(t, "A clip B.mp4", filepath.Base(gw.videos[0].path))
	assert.Equal(t, "A clip B", gw.videos[0].caption)
}

func TestProcessDocumentUploadMode(t *testing.T) {
	p, gw, _, store := newTestPipeline(t)
	_, err := store.ToggleUpload(2) // media -> document
	require.NoError(t, err)

	job := Job{
		ChatID: 1, UserID: 2, FileID: "f", FileName: "clip.mp4",
		SizeBytes: 10 * mb, StatusMessageID: 5,
	}
	require.NoError(t, p.Process(context.Background(), job))

	assert.Empty(t, gw.videos)
	require.Len(t, gw.documents, 1)
}

func TestProcessDownloadFailureReportsAndStops(t *testing.T) {
	p, gw, eng, _ := newTestPipeline(t)
	gw.dlErr = os.ErrDeadlineExceeded

	job := Job{
		ChatID: 1, UserID: 2, FileID: "f", FileName: "clip.mp4",
		SizeBytes: 10 * mb, StatusMessageID: 5,
	}
	err := p.Process(context.Background(), job)
	require.Error(t, err)
	assert.Empty(t, eng.params, "no transcode after failed download")
	assert.Contains(t, gw.statuses[len(gw.statuses)-1], "Failed to download")
}

func TestProcessTranscodeFailureCleansUpAndReports(t *testing.T) {
	p, gw, eng, store := newTestPipeline(t)
	eng.err = &transcode.Error{Stderr: "Unknown encoder 'libx999'"}

	job := Job{
		ChatID: 1, UserID: 2, FileID: "f", FileName: "clip.mp4",
		SizeBytes: 10 * mb, StatusMessageID: 5,
	}
	err := p.Process(context.Background(), job)
	require.Error(t, err)

	assert.Contains(t, gw.statuses[len(gw.statuses)-1], "Unknown encoder")
	assert.Empty(t, gw.videos)
	assert.Empty(t, gw.documents)

	// The downloaded input never outlives the run, even on failure.
	srcPath := filepath.Join(store.UserDir(2), "original_clip.mp4")
	_, statErr := os.Stat(srcPath)
	assert.True(t, os.IsNotExist(statErr))
}
