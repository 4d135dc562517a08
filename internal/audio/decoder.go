package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/ivlev/photoreel/internal/video"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrNoAudioStream is returned for files without a decodable audio stream.
var ErrNoAudioStream = errors.New("audio: no audio stream")

type Decoder interface {
	Decode(ctx context.Context, path string) (Clip, error)
}

// FFmpegDecoder decodes any ffmpeg-readable file to f32le at its native
// rate and channel count.
type FFmpegDecoder struct {
	Binary string
	// Probe defaults to ffmpeg.Probe.
	Probe func(path string) (string, error)
}

func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (Clip, error) {
	probe := d.Probe
	if probe == nil {
		probe = func(p string) (string, error) { return ffmpeg.Probe(p) }
	}
	out, err := probe(path)
	if err != nil {
		return Clip{}, fmt.Errorf("probe %s: %w", path, err)
	}
	channels, rate, err := parseProbe(out)
	if err != nil {
		return Clip{}, fmt.Errorf("probe %s: %w", path, err)
	}

	args := ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{
			"f":  "f32le",
			"ac": channels,
			"ar": rate,
		}).
		GetArgs()

	bin := d.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Clip{}, &video.FFmpegError{Args: args, Stderr: stderr.String(), Err: err}
	}

	clip, err := ReadRaw(&stdout, channels, rate)
	if err != nil {
		return Clip{}, err
	}
	if clip.Frames() == 0 {
		return Clip{}, fmt.Errorf("%w: %s decoded to nothing", ErrNoAudioStream, path)
	}
	return clip, nil
}

type probeResult struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Channels   int    `json:"channels"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
}

func parseProbe(out string) (channels, rate int, err error) {
	var res probeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return 0, 0, err
	}
	for _, s := range res.Streams {
		if s.CodecType != "audio" {
			continue
		}
		rate, err := strconv.Atoi(s.SampleRate)
		if err != nil || rate <= 0 || s.Channels <= 0 {
			return 0, 0, fmt.Errorf("%w: bad stream parameters", ErrNoAudioStream)
		}
		return s.Channels, rate, nil
	}
	return 0, 0, ErrNoAudioStream
}
