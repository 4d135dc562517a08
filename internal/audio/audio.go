// Package audio builds the shutter-click track laid under the slideshow.
//
// Samples are interleaved float32 in [-1, 1]. All operations are plain
// buffer arithmetic; decoding is left to a Decoder.
package audio

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// Clip is a short decoded sound.
type Clip struct {
	Samples  []float32
	Channels int
	Rate     int
}

// Frames is the number of sample frames (samples per channel).
func (c Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

func (c Clip) Duration() float64 {
	if c.Rate <= 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.Rate)
}

// Track is a full-length soundtrack. Stamps overwrite, they never mix.
type Track struct {
	Clip
}

// NewSilentTrack allocates int(duration*rate) frames of silence.
func NewSilentTrack(duration float64, rate, channels int) *Track {
	if channels <= 0 {
		channels = 1
	}
	frames := max(0, int(duration*float64(rate)))
	return &Track{Clip{
		Samples:  make([]float32, frames*channels),
		Channels: channels,
		Rate:     rate,
	}}
}

// Trim keeps at most the first seconds of c.
func Trim(c Clip, seconds float64) Clip {
	frames := max(0, int(seconds*float64(c.Rate)))
	if frames >= c.Frames() {
		return c
	}
	c.Samples = c.Samples[:frames*c.Channels]
	return c
}

// Resample converts c to rate with per-channel linear interpolation.
func Resample(c Clip, rate int) Clip {
	if c.Rate == rate || c.Rate <= 0 || rate <= 0 || c.Frames() == 0 {
		c.Rate = rate
		return c
	}

	in := c.Frames()
	out := int(float64(in) * float64(rate) / float64(c.Rate))
	ratio := float64(c.Rate) / float64(rate)
	ch := c.Channels
	res := make([]float32, out*ch)

	for i := 0; i < out; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		frac := float32(pos - float64(j))
		next := min(j+1, in-1)
		for k := 0; k < ch; k++ {
			a := c.Samples[j*ch+k]
			b := c.Samples[next*ch+k]
			res[i*ch+k] = a + (b-a)*frac
		}
	}
	return Clip{Samples: res, Channels: ch, Rate: rate}
}

// PeakNormalize scales samples in place so the loudest one has magnitude 1.
// Silence is left untouched.
func PeakNormalize(samples []float32) {
	var peak float64
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if peak == 0 {
		return
	}
	g := float32(1 / peak)
	for i := range samples {
		samples[i] *= g
	}
}

// PrepareClick cuts the click to the flash length, converts it to the
// track rate and normalizes its peak.
func PrepareClick(c Clip, flash float64, rate int) Clip {
	c = Trim(c, flash)
	c = Resample(c, rate)

	own := make([]float32, len(c.Samples))
	copy(own, c.Samples)
	c.Samples = own
	PeakNormalize(c.Samples)
	return c
}

// Stamp copies c into the track starting at second at, overwriting what is
// there. The part beyond the end of the track is dropped. Channel layouts
// must match; a mono clip is spread over every track channel.
func (t *Track) Stamp(at float64, c Clip) {
	start := int(at * float64(t.Rate))
	if start < 0 || start >= t.Frames() {
		return
	}
	n := min(c.Frames(), t.Frames()-start)
	for i := 0; i < n; i++ {
		for k := 0; k < t.Channels; k++ {
			src := k
			if c.Channels == 1 {
				src = 0
			} else if k >= c.Channels {
				continue
			}
			t.Samples[(start+i)*t.Channels+k] = c.Samples[i*c.Channels+src]
		}
	}
}

// Normalize scales the whole track to a peak of 1.0.
func (t *Track) Normalize() { PeakNormalize(t.Samples) }

// BuildClickTrack lays click at every arrival, in arrival order, over a
// silent track of total seconds. click must already be prepared.
func BuildClickTrack(arrivals []float64, click Clip, total float64) *Track {
	track := NewSilentTrack(total, click.Rate, click.Channels)
	for _, at := range arrivals {
		track.Stamp(at, click)
	}
	track.Normalize()
	return track
}

// WriteRaw writes the samples as little-endian float32 (ffmpeg "f32le").
func (t *Track) WriteRaw(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, t.Samples); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadRaw parses little-endian float32 samples.
func ReadRaw(r io.Reader, channels, rate int) (Clip, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Clip{}, err
	}
	n := len(data) / 4
	n -= n % max(1, channels)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return Clip{Samples: samples, Channels: channels, Rate: rate}, nil
}
