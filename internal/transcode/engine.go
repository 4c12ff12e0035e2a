// Package transcode wraps the external ffmpeg process: parameter derivation,
// synchronous invocation with stderr capture, and bitrate strategies.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/kevloudy/compressbot/internal/logx"
)

// ErrTimeout marks a transcode killed by its deadline.
var ErrTimeout = errors.New("transcode timed out")

// Error carries ffmpeg's diagnostic output on non-zero exit.
type Error struct {
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg failed: %s", e.Stderr)
	}
	return fmt.Sprintf("ffmpeg failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result reports a finished transcode.
type Result struct {
	SizeMB  float64
	Elapsed time.Duration
}

// Engine invokes the ffmpeg binary found at construction time.
type Engine struct {
	Bin string
}

// NewEngine locates ffmpeg on PATH.
func NewEngine() (*Engine, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg binary not found: %w", err)
	}
	return &Engine{Bin: path}, nil
}

// Run executes one transcode, blocking until the process exits or ctx
// expires (the process is killed on deadline). On success the input file is
// removed and the output size/elapsed time are reported; on failure cleanup
// is left to the caller.
func (e *Engine) Run(ctx context.Context, p Params) (Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, e.Bin, Args(p)...)
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start ffmpeg: %w", err)
	}

	// Drain stderr before Wait: keep a copy for the error report and
	// surface each line as a debug log event.
	var stderr bytes.Buffer
	lw := logx.NewLineWriter(map[string]string{"proc": "ffmpeg"}, zerolog.DebugLevel)
	lw.Pipe(io.TeeReader(stderrPipe, &stderr))

	if err := cmd.Wait(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{}, &Error{Stderr: stderr.String(), Err: ErrTimeout}
		}
		return Result{}, &Error{Stderr: stderr.String(), Err: err}
	}

	info, err := os.Stat(p.Output)
	if err != nil {
		return Result{}, fmt.Errorf("stat output: %w", err)
	}
	if err := os.Remove(p.Input); err != nil && !os.IsNotExist(err) {
		return Result{}, fmt.Errorf("remove input: %w", err)
	}

	// Exact size; callers round for display only, so small outputs still
	// report a positive value.
	return Result{
		SizeMB:  float64(info.Size()) / (1024 * 1024),
		Elapsed: time.Since(start),
	}, nil
}
