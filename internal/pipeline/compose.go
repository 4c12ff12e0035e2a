package pipeline

import (
	"path/filepath"
	"strings"
)

// sourceMarker prefixes downloaded originals so transients are recognizable
// and never collide with the composed output name.
const sourceMarker = "original_"

// SourceName derives the workspace filename for a downloaded original.
// Sources with no transport-supplied name default to the mkv extension.
func SourceName(fileName string) string {
	ext := ".mkv"
	stem := ""
	if fileName != "" {
		if e := filepath.Ext(fileName); e != "" {
			ext = e
		}
		stem = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	}
	return sourceMarker + stem + ext
}

// BaseStem recovers the original stem from a workspace source name.
func BaseStem(sourceName string) string {
	stem := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	return strings.TrimPrefix(stem, sourceMarker)
}

// OutputName composes the delivered filename. Prefix and suffix are stored
// verbatim; the composer inserts a single space around each non-empty one,
// so ("A", "clip", "B", "mp4") yields "A clip B.mp4" and empty fields add
// no stray spaces.
func OutputName(prefix, base, suffix, container string) string {
	name := base
	if prefix != "" {
		name = prefix + " " + name
	}
	if suffix != "" {
		name = name + " " + suffix
	}
	return name + "." + container
}
