package transcode

import "strings"

// Params is one ffmpeg invocation, fully resolved. No defaults are inferred
// here; the caller supplies every value from the user's record.
type Params struct {
	Input      string
	Output     string
	Codec      string
	Resolution string // scale filter argument, width:height, -1 keeps aspect
	Bitrate    string // e.g. "480k"
	Tune       string
	Preset     string
}

// Args builds the ffmpeg command line: never overwrite, quiet except errors,
// map all streams from the source.
func Args(p Params) []string {
	return []string{
		"-n",
		"-loglevel", "error",
		"-i", p.Input,
		"-map", "0",
		"-vcodec", p.Codec,
		"-vf", "scale=" + p.Resolution,
		"-b:v", p.Bitrate,
		"-tune", p.Tune,
		"-preset", p.Preset,
		p.Output,
	}
}

// CodecFor picks the video codec for a container. avi keeps mpeg4 for
// player compatibility; everything else encodes h264.
func CodecFor(container string) string {
	if container == "avi" {
		return "mpeg4"
	}
	return "libx264"
}

// EffectiveContainer forces mkv output for mkv sources regardless of the
// configured container, avoiding known codec/container incompatibilities.
func EffectiveContainer(srcExt, configured string) string {
	if strings.EqualFold(srcExt, ".mkv") {
		return "mkv"
	}
	return configured
}
