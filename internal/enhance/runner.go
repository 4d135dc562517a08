package enhance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/ivlev/photoreel/internal/config"
	"github.com/ivlev/photoreel/internal/source"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Summary counts the outcome of a batch run.
type Summary struct {
	Found     int // image files in the input folder
	Processed int
	Skipped   int // files without an image extension
}

// Ignored is the number of images that could not be processed.
func (s Summary) Ignored() int { return s.Found - s.Processed }

type Runner struct {
	Config  config.Enhance
	Options Options
	Logger  zerolog.Logger
}

func NewRunner(cfg config.Enhance, logger zerolog.Logger) (*Runner, error) {
	o := OptionsFrom(cfg)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Runner{Config: cfg, Options: o, Logger: logger}, nil
}

// Run processes every image of the input folder. A file that fails is
// logged and counted; only setup errors and cancellation are returned.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	fi, err := os.Stat(r.Config.InputDir)
	if err != nil || !fi.IsDir() {
		return sum, fmt.Errorf("%w: %s", source.ErrInputNotFound, r.Config.InputDir)
	}
	entries, err := os.ReadDir(r.Config.InputDir)
	if err != nil {
		return sum, err
	}
	if err := os.MkdirAll(r.Config.OutputDir, 0755); err != nil {
		return sum, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !source.IsImage(e.Name()) {
			r.Logger.Warn().Str("file", e.Name()).Msg("[!] Файл пропущен: не изображение")
			sum.Skipped++
			continue
		}
		names = append(names, e.Name())
	}
	sum.Found = len(names)

	var processed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Config.Workers))
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := r.processFile(name); err != nil {
				r.Logger.Error().Err(err).Str("file", name).Msg("[!] Ошибка обработки")
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	err = g.Wait()
	sum.Processed = int(processed.Load())
	return sum, err
}

func (r *Runner) processFile(name string) error {
	img, err := imaging.Open(filepath.Join(r.Config.InputDir, name))
	if err != nil {
		return err
	}
	before := img.Bounds()

	out, err := Apply(img, r.Options)
	if err != nil {
		return err
	}

	dst := filepath.Join(r.Config.OutputDir, name)
	if err := imaging.Save(out, dst, imaging.JPEGQuality(95)); err != nil {
		return err
	}
	r.Logger.Info().
		Str("file", name).
		Str("from", fmt.Sprintf("%dx%d", before.Dx(), before.Dy())).
		Str("to", fmt.Sprintf("%dx%d", out.Rect.Dx(), out.Rect.Dy())).
		Msg("[>] Готово")
	return nil
}
