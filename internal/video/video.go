// Package video streams raw frames into an external H.264 encoder.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrSinkClosed is returned when a frame is written after Close.
var ErrSinkClosed = errors.New("video: sink closed")

// FrameSink accepts frames in emission order and encodes them in that order.
// Close must always be called; it finalizes the output file.
type FrameSink interface {
	WriteFrame(frame *image.RGBA) error
	Close() error
}

type Encoder interface {
	Open(ctx context.Context, path string, width, height, fps int) (FrameSink, error)
}

// FFmpegError carries the command line and the tail of stderr of a failed
// ffmpeg run.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("ffmpeg: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg: %v: %s", e.Err, msg)
}

func (e *FFmpegError) Unwrap() error { return e.Err }

// FFmpegEncoder pipes raw RGBA frames to ffmpeg on stdin.
type FFmpegEncoder struct {
	Binary  string // defaults to "ffmpeg"
	Codec   string // defaults to "libx264"
	Quality int    // codec specific, 0 picks a sane default
	Logger  zerolog.Logger
}

func (e *FFmpegEncoder) Open(ctx context.Context, path string, width, height, fps int) (FrameSink, error) {
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	args := BuildArgs(path, width, height, fps, e.Codec, e.Quality)

	cmd := exec.CommandContext(ctx, bin, args...)
	stderr := &tailBuffer{limit: 8 << 10}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, &FFmpegError{Args: args, Err: fmt.Errorf("start: %w", err)}
	}

	e.Logger.Debug().Str("bin", bin).Strs("args", args).Msg("ffmpeg started")

	return &ffmpegSink{
		cmd:    cmd,
		stdin:  stdin,
		stderr: stderr,
		args:   args,
		rect:   image.Rect(0, 0, width, height),
	}, nil
}

// BuildArgs returns the ffmpeg arguments for encoding a raw RGBA stream of
// the given geometry into path.
func BuildArgs(path string, width, height, fps int, codec string, quality int) []string {
	if codec == "" {
		codec = "libx264"
	}
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-an",
		"-pix_fmt", "yuv420p",
		"-c:v", codec,
	}

	// Качество в зависимости от энкодера
	switch codec {
	case "h264_videotoolbox":
		if quality == 0 {
			quality = 75
		}
		bitrate := quality * 100 // кбит/с. 75 -> 7.5Мбит/с
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		if quality == 0 {
			quality = 23
		}
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default: // libx264
		if quality == 0 {
			quality = 23
		}
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "medium")
	}

	return append(args, path)
}

type ffmpegSink struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
	args   []string
	rect   image.Rectangle
	closed bool
	err    error
}

func (s *ffmpegSink) WriteFrame(frame *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	if frame.Rect.Dx() != s.rect.Dx() || frame.Rect.Dy() != s.rect.Dy() {
		return fmt.Errorf("video: frame %v does not match sink %v", frame.Rect, s.rect)
	}
	if err := writeRawRGBA(s.stdin, frame); err != nil {
		return &FFmpegError{Args: s.args, Stderr: s.stderr.String(), Err: fmt.Errorf("write raw: %w", err)}
	}
	return nil
}

// Close finishes the stream and waits for ffmpeg to exit. Repeated calls
// return the first result.
func (s *ffmpegSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.err
	}
	s.closed = true

	_ = s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		s.err = &FFmpegError{Args: s.args, Stderr: s.stderr.String(), Err: err}
	}
	return s.err
}

func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	if img.Stride != bounds.Dx()*4 || bounds.Min.X != 0 || bounds.Min.Y != 0 {
		packed := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(packed, packed.Bounds(), img, bounds.Min, draw.Src)
		img = packed
	}
	_, err := w.Write(img.Pix)
	return err
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
