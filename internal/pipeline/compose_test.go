package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		prefix, base, suffix, container string
		want                            string
	}{
		{"A", "clip", "B", "mp4", "A clip B.mp4"},
		{"", "clip", "", "mp4", "clip.mp4"},
		{"A", "clip", "", "mkv", "A clip.mkv"},
		{"", "clip", "B", "avi", "clip B.avi"},
		{"[archive]", "movie s01e01", "x264", "ts", "[archive] movie s01e01 x264.ts"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputName(tt.prefix, tt.base, tt.suffix, tt.container))
	}
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "original_movie.mp4", SourceName("movie.mp4"))
	assert.Equal(t, "original_.mkv", SourceName(""), "mkv default when transport has no name")
	assert.Equal(t, "original_movie.mkv", SourceName("movie.mkv"))
	assert.Equal(t, "original_noext.mkv", SourceName("noext"))
}

func TestBaseStem(t *testing.T) {
	assert.Equal(t, "movie", BaseStem("original_movie.mp4"))
	assert.Equal(t, "", BaseStem("original_.mkv"))
}
