package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevloudy/compressbot/internal/pipeline"
	"github.com/kevloudy/compressbot/internal/transcode"
)

// Exercises the transcode engine against a local file, no Telegram involved.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/localtest <input> [resolution] [bitrate] [tune]")
		return
	}
	in := os.Args[1]
	resolution := "1280:720"
	bitrate := "480k"
	tune := "film"
	if len(os.Args) > 2 {
		resolution = os.Args[2]
	}
	if len(os.Args) > 3 {
		bitrate = os.Args[3]
	}
	if len(os.Args) > 4 {
		tune = os.Args[4]
	}

	engine, err := transcode.NewEngine()
	if err != nil {
		panic(err)
	}

	// The engine removes its input on success; work on a copy.
	work := filepath.Join(os.TempDir(), "original_"+filepath.Base(in))
	if err := copyFile(in, work); err != nil {
		panic(err)
	}

	container := transcode.EffectiveContainer(filepath.Ext(in), "mp4")
	stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	out := filepath.Join(filepath.Dir(in), pipeline.OutputName("", stem+"_compressed", "", container))

	res, err := engine.Run(context.Background(), transcode.Params{
		Input:      work,
		Output:     out,
		Codec:      transcode.CodecFor(container),
		Resolution: resolution,
		Bitrate:    bitrate,
		Tune:       tune,
		Preset:     "faster",
	})
	if err != nil {
		panic(err)
	}
	fmt.Printf("Generated: %s (%.2f MB in %.2fs)\n", out, res.SizeMB, res.Elapsed.Seconds())
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o644)
}
