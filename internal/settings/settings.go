// Package settings persists one compression/upload preference record per
// Telegram user. The backing store is a single JSON document keyed by the
// string form of the user id; every transcode reads its parameters from here.
package settings

// Upload modes.
const (
	UploadMedia    = "media"
	UploadDocument = "document"
)

// Field keys used in callback tokens and the persisted record.
const (
	FieldFormat     = "format"
	FieldResolution = "resolution"
	FieldBitrate    = "bitrate"
	FieldTune       = "tune"
	FieldPrefix     = "prefixe"
	FieldSuffix     = "suffixe"
)

// Enumerated choice sets. Values outside these sets are rejected on write.
var (
	Containers  = []string{"mp4", "mkv", "avi", "ts"}
	Resolutions = []string{"1920:1080", "1280:720", "720:480"}
	Bitrates    = []string{"480k", "1000k", "1500k", "2000k"}
	Tunes       = []string{"animation", "film", "grain", "stillimage", "zerolatency"}
)

// UserConfig is the per-user preference record driving every transcode.
// Thumbnail presence is not part of the record; it is derived from the
// per-user thumbnail file on disk.
type UserConfig struct {
	UploadMode string `json:"upload_mode"`
	Container  string `json:"container_format"`
	Resolution string `json:"resolution"`
	Bitrate    string `json:"bitrate"`
	Tune       string `json:"tune_profile"`
	Prefix     string `json:"filename_prefix"`
	Suffix     string `json:"filename_suffix"`
}

// Defaults is the record every new user starts with.
func Defaults() UserConfig {
	return UserConfig{
		UploadMode: UploadMedia,
		Container:  "mp4",
		Resolution: "720:480",
		Bitrate:    "480k",
		Tune:       "film",
		Prefix:     "",
		Suffix:     "",
	}
}

// Choices returns the enumerated set for a field, or nil for free-form fields.
func Choices(field string) []string {
	switch field {
	case FieldFormat:
		return Containers
	case FieldResolution:
		return Resolutions
	case FieldBitrate:
		return Bitrates
	case FieldTune:
		return Tunes
	}
	return nil
}

// ValidValue reports whether value is a member of field's enumerated set.
func ValidValue(field, value string) bool {
	for _, c := range Choices(field) {
		if c == value {
			return true
		}
	}
	return false
}

func (c *UserConfig) apply(field, value string) {
	switch field {
	case FieldFormat:
		c.Container = value
	case FieldResolution:
		c.Resolution = value
	case FieldBitrate:
		c.Bitrate = value
	case FieldTune:
		c.Tune = value
	}
}

func (c *UserConfig) applyText(field, value string) {
	switch field {
	case FieldPrefix:
		c.Prefix = value
	case FieldSuffix:
		c.Suffix = value
	}
}
