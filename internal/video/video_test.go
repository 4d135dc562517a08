package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		codec   string
		quality int
		want    []string
	}{
		{"", 0, []string{"-c:v", "libx264", "-crf", "23", "-preset", "medium"}},
		{"libx264", 18, []string{"-c:v", "libx264", "-crf", "18", "-preset", "medium"}},
		{"h264_nvenc", 0, []string{"-c:v", "h264_nvenc", "-cq", "23"}},
		{"h264_videotoolbox", 50, []string{"-c:v", "h264_videotoolbox", "-b:v", "5000k"}},
	}

	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			args := BuildArgs("out.mp4", 1920, 1080, 30, tt.codec, tt.quality)

			assert.Equal(t, []string{
				"-y", "-f", "rawvideo", "-pixel_format", "rgba",
				"-video_size", "1920x1080", "-framerate", "30", "-i", "-",
				"-an", "-pix_fmt", "yuv420p",
			}, args[:14])
			assert.Equal(t, tt.want, args[14:len(args)-1])
			assert.Equal(t, "out.mp4", args[len(args)-1])
		})
	}
}

func TestWriteRawRGBA_PacksSubImages(t *testing.T) {
	full := image.NewRGBA(image.Rect(0, 0, 4, 4))
	full.SetRGBA(1, 1, color.RGBA{1, 2, 3, 4})
	full.SetRGBA(2, 2, color.RGBA{5, 6, 7, 8})
	sub := full.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)

	var buf bytes.Buffer
	require.NoError(t, writeRawRGBA(&buf, sub))

	out := buf.Bytes()
	require.Len(t, out, 2*2*4)
	assert.Equal(t, []byte{1, 2, 3, 4}, out[:4])
	assert.Equal(t, []byte{5, 6, 7, 8}, out[12:16])
}

func TestTailBuffer(t *testing.T) {
	tb := &tailBuffer{limit: 4}
	_, _ = tb.Write([]byte("abc"))
	_, _ = tb.Write([]byte("defg"))
	assert.Equal(t, "defg", tb.String())
}

func TestFFmpegError(t *testing.T) {
	base := errors.New("exit status 1")
	err := error(&FFmpegError{Args: []string{"-y"}, Stderr: "  bad codec\n", Err: base})

	assert.EqualError(t, err, "ffmpeg: exit status 1: bad codec")
	assert.ErrorIs(t, err, base)

	var ferr *FFmpegError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, []string{"-y"}, ferr.Args)
}

func TestFFmpegEncoder_MissingBinary(t *testing.T) {
	enc := &FFmpegEncoder{Binary: "/nonexistent/ffmpeg-photoreel"}
	_, err := enc.Open(context.Background(), t.TempDir()+"/out.mp4", 8, 8, 1)

	var ferr *FFmpegError
	require.ErrorAs(t, err, &ferr)
}
