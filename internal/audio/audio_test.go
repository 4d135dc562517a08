package audio

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constClip(seconds float64, rate, channels int, v float32) Clip {
	n := int(seconds*float64(rate)) * channels
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return Clip{Samples: s, Channels: channels, Rate: rate}
}

func TestBuildClickTrack_NonSilentOnlyInFlashWindows(t *testing.T) {
	const rate = 44100
	click := PrepareClick(constClip(0.3, rate, 1, 0.25), 0.2, rate)
	require.Equal(t, 8820, click.Frames())

	track := BuildClickTrack([]float64{0, 5}, click, 10)
	require.Equal(t, 441000, track.Frames())

	inWindow := func(i int) bool {
		return i < 8820 || (i >= 220500 && i < 220500+8820)
	}
	for i, s := range track.Samples {
		if inWindow(i) {
			if !assert.Equal(t, float32(1), s, "sample %d", i) {
				return
			}
		} else if !assert.Zero(t, s, "sample %d", i) {
			return
		}
	}
}

func TestPrepareClick(t *testing.T) {
	src := Clip{Samples: []float32{0.1, -0.4, 0.2, 0.05, 0.3, 0.3}, Channels: 2, Rate: 10}

	out := PrepareClick(src, 0.2, 10)

	assert.Equal(t, []float32{0.25, -1, 0.5, 0.125}, out.Samples)
	assert.Equal(t, float32(0.1), src.Samples[0], "source clip is not modified")
}

func TestResample(t *testing.T) {
	c := Clip{Samples: []float32{0, 1, 0, -1}, Channels: 1, Rate: 2}

	up := Resample(c, 4)
	assert.Equal(t, 4, up.Rate)
	assert.Equal(t, []float32{0, 0.5, 1, 0.5, 0, -0.5, -1, -1}, up.Samples)

	down := Resample(c, 1)
	assert.Equal(t, []float32{0, 0}, down.Samples)

	same := Resample(c, 2)
	assert.Equal(t, c.Samples, same.Samples)
}

func TestResample_Stereo(t *testing.T) {
	c := Clip{Samples: []float32{0, 1, 1, 0}, Channels: 2, Rate: 1}

	up := Resample(c, 2)

	assert.Equal(t, []float32{0, 1, 0.5, 0.5, 1, 0, 1, 0}, up.Samples)
}

func TestTrim(t *testing.T) {
	c := constClip(1, 100, 2, 0.5)

	assert.Equal(t, 20, Trim(c, 0.2).Frames())
	assert.Equal(t, 100, Trim(c, 3).Frames())
	assert.Equal(t, 0, Trim(c, -1).Frames())
}

func TestTrack_StampOverwritesLaterWins(t *testing.T) {
	track := NewSilentTrack(1, 10, 1)
	track.Stamp(0.2, Clip{Samples: []float32{0.5, 0.5, 0.5}, Channels: 1, Rate: 10})
	track.Stamp(0.3, Clip{Samples: []float32{0.2, 0.2}, Channels: 1, Rate: 10})

	assert.Equal(t, []float32{0, 0, 0.5, 0.2, 0.2, 0, 0, 0, 0, 0}, track.Samples)
}

func TestTrack_StampClipsAtEnd(t *testing.T) {
	track := NewSilentTrack(0.5, 10, 2)
	click := Clip{Samples: []float32{1, 1, 1}, Channels: 1, Rate: 10}

	assert.NotPanics(t, func() {
		track.Stamp(0.4, click)
		track.Stamp(0.9, click)
		track.Stamp(-1, click)
	})
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0, 0, 0, 1, 1}, track.Samples)
}

func TestTrack_SilenceStaysSilent(t *testing.T) {
	track := BuildClickTrack([]float64{0, 1}, Clip{Samples: make([]float32, 4), Channels: 1, Rate: 4}, 2)

	for _, s := range track.Samples {
		require.Zero(t, s)
	}
}

func TestWriteReadRaw(t *testing.T) {
	track := NewSilentTrack(0.5, 4, 2)
	track.Samples[0], track.Samples[3] = 0.5, -1

	var buf bytes.Buffer
	require.NoError(t, track.WriteRaw(&buf))
	assert.Equal(t, 4*len(track.Samples), buf.Len())
	assert.Equal(t, []byte{0, 0, 0, 0x3f}, buf.Bytes()[:4])

	clip, err := ReadRaw(&buf, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, track.Samples, clip.Samples)
}

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "width": 10},
    {"index": 1, "codec_type": "audio", "channels": 2, "sample_rate": "48000"}
  ],
  "format": {"duration": "0.300000"}
}`

func TestParseProbe(t *testing.T) {
	ch, rate, err := parseProbe(probeJSON)
	require.NoError(t, err)
	assert.Equal(t, 2, ch)
	assert.Equal(t, 48000, rate)

	_, _, err = parseProbe(`{"streams":[{"codec_type":"video"}]}`)
	assert.ErrorIs(t, err, ErrNoAudioStream)

	_, _, err = parseProbe(`{"streams":[{"codec_type":"audio","channels":1,"sample_rate":"n/a"}]}`)
	assert.ErrorIs(t, err, ErrNoAudioStream)

	_, _, err = parseProbe(`not json`)
	assert.Error(t, err)
}

func TestFFmpegDecoder_ProbeFailure(t *testing.T) {
	boom := errors.New("no such file")
	d := &FFmpegDecoder{Probe: func(string) (string, error) { return "", boom }}

	_, err := d.Decode(context.Background(), "shutter.mp3")

	assert.ErrorIs(t, err, boom)
}
