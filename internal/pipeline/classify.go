package pipeline

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxVideoSizeMB is the hard ceiling on declared input size. Oversized
// submissions are rejected before any download is attempted.
const MaxVideoSizeMB = 2000

// Submission is an accepted media message, reduced to what the pipeline needs.
type Submission struct {
	FileID      string
	FileName    string // may be empty; the transport does not always supply one
	SizeBytes   int64
	DurationSec float64
}

// Classify accepts video messages and video-typed documents; anything else
// is not for this pipeline.
func Classify(m *tgbotapi.Message) (Submission, bool) {
	if m.Video != nil {
		return Submission{
			FileID:      m.Video.FileID,
			FileName:    m.Video.FileName,
			SizeBytes:   int64(m.Video.FileSize),
			DurationSec: float64(m.Video.Duration),
		}, true
	}
	if m.Document != nil && strings.HasPrefix(strings.ToLower(m.Document.MimeType), "video/") {
		return Submission{
			FileID:    m.Document.FileID,
			FileName:  m.Document.FileName,
			SizeBytes: int64(m.Document.FileSize),
		}, true
	}
	return Submission{}, false
}

// SizeMB converts a declared byte size to megabytes.
func SizeMB(bytes int64) float64 { return float64(bytes) / (1024 * 1024) }

// Oversized reports whether a declared size exceeds the ceiling.
func Oversized(bytes int64) bool { return SizeMB(bytes) > MaxVideoSizeMB }
