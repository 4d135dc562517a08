// Package enhance rescales and tones up folders of photos.
package enhance

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ivlev/photoreel/internal/config"
)

// ErrNothingToDo is returned when neither scaling nor enhancement is requested.
var ErrNothingToDo = errors.New("enhance: no operation selected")

type ScaleMode string

const (
	ScaleNone ScaleMode = "none"
	ScaleUp   ScaleMode = "up"
	ScaleDown ScaleMode = "down"
)

// Auto-enhance factors, applied in this order.
const (
	ContrastFactor   = 1.2
	BrightnessFactor = 1.1
	ColorFactor      = 1.1
	SharpnessFactor  = 1.2
)

type Options struct {
	Scale  ScaleMode
	Factor float64
	Auto   bool
}

func OptionsFrom(cfg config.Enhance) Options {
	return Options{Scale: ScaleMode(cfg.ScaleMode), Factor: cfg.Factor, Auto: cfg.AutoEnhance}
}

func (o Options) Validate() error {
	switch o.Scale {
	case ScaleUp:
		if int(o.Factor) < 1 {
			return fmt.Errorf("enhance: upscale factor %v is below 1", o.Factor)
		}
	case ScaleDown:
		if o.Factor <= 0 || o.Factor > 1 {
			return fmt.Errorf("enhance: downscale factor %v is outside (0, 1]", o.Factor)
		}
	case ScaleNone, "":
		if !o.Auto {
			return ErrNothingToDo
		}
	default:
		return fmt.Errorf("enhance: unknown scale mode %q", o.Scale)
	}
	return nil
}

// Apply runs the configured scaling and then, if requested, the
// auto-enhance chain.
func Apply(img image.Image, o Options) (*image.NRGBA, error) {
	out, err := Rescale(img, o)
	if err != nil {
		return nil, err
	}
	if o.Auto {
		out = AutoEnhance(out)
	}
	return out, nil
}

// Rescale enlarges by the integer part of the factor with a bicubic filter,
// or shrinks to int(size*factor) with a box filter.
func Rescale(img image.Image, o Options) (*image.NRGBA, error) {
	b := img.Bounds()
	switch o.Scale {
	case ScaleUp:
		f := int(o.Factor)
		return imaging.Resize(img, b.Dx()*f, b.Dy()*f, imaging.CatmullRom), nil
	case ScaleDown:
		w, h := int(float64(b.Dx())*o.Factor), int(float64(b.Dy())*o.Factor)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("enhance: %dx%d shrinks to nothing at factor %v", b.Dx(), b.Dy(), o.Factor)
		}
		return imaging.Resize(img, w, h, imaging.Box), nil
	}
	return imaging.Clone(img), nil
}

// AutoEnhance raises contrast, brightness, saturation and sharpness.
func AutoEnhance(img image.Image) *image.NRGBA {
	out := Contrast(img, ContrastFactor)
	out = Brightness(out, BrightnessFactor)
	out = Saturation(out, ColorFactor)
	return Sharpness(out, SharpnessFactor)
}

func luma(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func clamp(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// Contrast pushes every channel away from the mean gray level of the image.
func Contrast(img image.Image, factor float64) *image.NRGBA {
	src := imaging.Clone(img)
	var sum float64
	n := 0
	for y := 0; y < src.Rect.Dy(); y++ {
		for x := 0; x < src.Rect.Dx(); x++ {
			sum += luma(src.NRGBAAt(x, y))
			n++
		}
	}
	if n == 0 {
		return src
	}
	mean := math.Round(sum / float64(n))
	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp(mean + factor*(float64(c.R)-mean)),
			G: clamp(mean + factor*(float64(c.G)-mean)),
			B: clamp(mean + factor*(float64(c.B)-mean)),
			A: c.A,
		}
	})
}

// Brightness scales every channel.
func Brightness(img image.Image, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp(float64(c.R) * factor),
			G: clamp(float64(c.G) * factor),
			B: clamp(float64(c.B) * factor),
			A: c.A,
		}
	})
}

// Saturation moves every pixel away from its own gray level.
func Saturation(img image.Image, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := luma(c)
		return color.NRGBA{
			R: clamp(l + factor*(float64(c.R)-l)),
			G: clamp(l + factor*(float64(c.G)-l)),
			B: clamp(l + factor*(float64(c.B)-l)),
			A: c.A,
		}
	})
}

var smoothKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// Sharpness extrapolates from a smoothed copy of the image; factor 1 is a
// no-op, larger values sharpen.
func Sharpness(img image.Image, factor float64) *image.NRGBA {
	src := imaging.Clone(img)
	smooth := imaging.Convolve3x3(src, smoothKernel, &imaging.ConvolveOptions{Normalize: true})

	out := imaging.New(src.Rect.Dx(), src.Rect.Dy(), color.Transparent)
	for i := 0; i+3 < len(src.Pix); i += 4 {
		for k := 0; k < 3; k++ {
			s := float64(smooth.Pix[i+k])
			out.Pix[i+k] = clamp(s + factor*(float64(src.Pix[i+k])-s))
		}
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}
