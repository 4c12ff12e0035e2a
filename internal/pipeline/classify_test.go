package pipeline

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mb = 1024 * 1024

func TestClassifyVideoMessage(t *testing.T) {
	m := &tgbotapi.Message{Video: &tgbotapi.Video{
		FileID:   "vid-1",
		FileName: "movie.mp4",
		FileSize: 300 * mb,
		Duration: 90,
	}}
	sub, ok := Classify(m)
	require.True(t, ok)
	assert.Equal(t, "vid-1", sub.FileID)
	assert.Equal(t, "movie.mp4", sub.FileName)
	assert.Equal(t, int64(300*mb), sub.SizeBytes)
	assert.Equal(t, 90.0, sub.DurationSec)
}

func TestClassifyVideoDocument(t *testing.T) {
	m := &tgbotapi.Message{Document: &tgbotapi.Document{
		FileID:   "doc-1",
		FileName: "movie.mkv",
		MimeType: "video/x-matroska",
		FileSize: 10 * mb,
	}}
	sub, ok := Classify(m)
	require.True(t, ok)
	assert.Equal(t, "movie.mkv", sub.FileName)
}

func TestClassifyRejectsNonVideo(t *testing.T) {
	_, ok := Classify(&tgbotapi.Message{Text: "hello"})
	assert.False(t, ok)

	_, ok = Classify(&tgbotapi.Message{Document: &tgbotapi.Document{
		FileID: "doc-2", MimeType: "application/pdf",
	}})
	assert.False(t, ok)
}

func TestOversized(t *testing.T) {
	assert.True(t, Oversized(2001*mb), "over the 2000 MB ceiling")
	assert.False(t, Oversized(2000*mb), "exactly at the ceiling is allowed")
	assert.False(t, Oversized(300*mb))
}
