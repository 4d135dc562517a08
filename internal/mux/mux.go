// Package mux lays the click track under an encoded slideshow.
package mux

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/ivlev/photoreel/internal/video"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Request describes one mux run. AudioPath holds raw little-endian float32
// samples with the given layout.
type Request struct {
	VideoPath     string
	AudioPath     string
	AudioChannels int
	AudioRate     int
	OutputPath    string
	// MinRatio is the smallest accepted output size relative to the video.
	MinRatio float64
}

// Muxer combines a video and an audio stream into Request.OutputPath.
// It reports false, without an error, when the run finished but the result
// looks wrong.
type Muxer interface {
	Mux(ctx context.Context, req Request) (bool, error)
}

// FFmpegMuxer copies the video stream, encodes the audio as AAC and stops
// at the shorter of the two.
type FFmpegMuxer struct {
	Binary string
}

func (m *FFmpegMuxer) Mux(ctx context.Context, req Request) (bool, error) {
	args := BuildArgs(req)

	bin := m.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return false, &video.FFmpegError{Args: args, Stderr: string(out), Err: err}
	}

	return SizeOK(req.VideoPath, req.OutputPath, req.MinRatio)
}

// BuildArgs renders the ffmpeg command line for req.
func BuildArgs(req Request) []string {
	v := ffmpeg.Input(req.VideoPath)
	a := ffmpeg.Input(req.AudioPath, ffmpeg.KwArgs{
		"f":  "f32le",
		"ar": req.AudioRate,
		"ac": req.AudioChannels,
	})

	return ffmpeg.Output([]*ffmpeg.Stream{v.Video(), a.Audio()}, req.OutputPath, ffmpeg.KwArgs{
		"c:v":      "copy",
		"c:a":      "aac",
		"shortest": "",
	}).OverWriteOutput().GetArgs()
}

// SizeOK reports whether output is larger than ratio times the size of
// input.
func SizeOK(input, output string, ratio float64) (bool, error) {
	in, err := os.Stat(input)
	if err != nil {
		return false, err
	}
	out, err := os.Stat(output)
	if err != nil {
		return false, fmt.Errorf("mux output: %w", err)
	}
	return float64(out.Size()) > float64(in.Size())*ratio, nil
}
