package transcode

import (
	"fmt"

	"github.com/kevloudy/compressbot/internal/settings"
)

// SourceInfo describes the submitted file as declared by the transport.
type SourceInfo struct {
	SizeBytes   int64
	DurationSec float64
}

// BitrateStrategy picks the target video bitrate for a transcode. Two
// strategies exist; a deployment picks one rather than forking behavior.
type BitrateStrategy interface {
	Bitrate(src SourceInfo, cfg settings.UserConfig) string
}

// FixedConfigBitrate uses the stored enumerated value verbatim.
type FixedConfigBitrate struct{}

func (FixedConfigBitrate) Bitrate(_ SourceInfo, cfg settings.UserConfig) string {
	return cfg.Bitrate
}

// SizeRatioBitrate targets a fraction of the source size: bitrate in kbps =
// target_size_mb * 8 * 1000 / duration, with a constant fallback when the
// duration is unknown.
type SizeRatioBitrate struct {
	Ratio        float64
	FallbackKbps int
}

func NewSizeRatioBitrate() SizeRatioBitrate {
	return SizeRatioBitrate{Ratio: 0.65, FallbackKbps: 400}
}

func (s SizeRatioBitrate) Bitrate(src SourceInfo, _ settings.UserConfig) string {
	if src.DurationSec <= 0 {
		return fmt.Sprintf("%dk", s.FallbackKbps)
	}
	targetMB := float64(src.SizeBytes) / (1024 * 1024) * s.Ratio
	kbps := int(targetMB * 8 * 1000 / src.DurationSec)
	if kbps <= 0 {
		kbps = s.FallbackKbps
	}
	return fmt.Sprintf("%dk", kbps)
}

// StrategyFromName resolves the configured strategy, defaulting to fixed.
func StrategyFromName(name string) BitrateStrategy {
	if name == "sizeratio" {
		return NewSizeRatioBitrate()
	}
	return FixedConfigBitrate{}
}
