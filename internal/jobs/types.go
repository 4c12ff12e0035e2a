package jobs

const TaskTranscode = "transcode:video"

// TranscodePayload is enqueued by the bot once a submission passes
// classification and the size gate; the worker owns everything after that.
type TranscodePayload struct {
	JobID           string  `json:"job_id"`
	ChatID          int64   `json:"chat_id"`
	UserID          int64   `json:"user_id"`
	FileID          string  `json:"file_id"`
	FileName        string  `json:"file_name"` // empty when the transport has none
	FileSize        int64   `json:"file_size"`
	DurationSec     float64 `json:"duration_s"`
	StatusMessageID int     `json:"status_message_id"`
}
