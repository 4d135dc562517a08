package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/photoreel/internal/compositor"
	"github.com/ivlev/photoreel/internal/config"
	"github.com/ivlev/photoreel/internal/manifest"
	"github.com/ivlev/photoreel/internal/mux"
	"github.com/ivlev/photoreel/internal/progress"
	"github.com/ivlev/photoreel/internal/slide"
	"github.com/ivlev/photoreel/internal/source"
	"github.com/ivlev/photoreel/internal/system"
	"github.com/ivlev/photoreel/internal/video"
	"github.com/rs/zerolog"
)

type SlideshowProject struct {
	Config  config.Slideshow
	Source  source.Source
	Encoder video.Encoder
	// Overlay is the optional audio pass; nil skips it.
	Overlay *mux.Overlay
	Perm    slide.Perm
	Seed    int64
	Logger  zerolog.Logger

	// Progress receives the progress bar; nil disables it.
	Progress io.Writer
	// Report receives the performance report; defaults to stdout.
	Report io.Writer
	Pool   *system.FramePool
}

func NewSlideshowProject(cfg config.Slideshow, src source.Source, enc video.Encoder, logger zerolog.Logger) *SlideshowProject {
	perm, seed := slide.NewPerm(cfg.Seed)
	return &SlideshowProject{
		Config:  cfg,
		Source:  src,
		Encoder: enc,
		Perm:    perm,
		Seed:    seed,
		Logger:  logger,
		Pool:    system.NewFramePool(),
	}
}

// Result summarizes a finished run.
type Result struct {
	VideoPath    string
	ManifestPath string
	Items        int
	TotalFrames  int
	Audio        bool
	Seed         int64

	LoadTime   time.Duration
	EncodeTime time.Duration
	AudioTime  time.Duration
	TotalTime  time.Duration
}

func (p *SlideshowProject) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	t := p.Config.Timing()

	items, err := slide.Load(p.Source, t, p.Perm)
	if err != nil {
		return nil, fmt.Errorf("загрузка изображений: %w", err)
	}
	loadTime := time.Since(startTime)

	gen := compositor.New(items, t)
	res := &Result{
		VideoPath:    p.Config.OutputPath(),
		ManifestPath: manifest.PathFor(p.Config.OutputPath()),
		Items:        len(items),
		TotalFrames:  gen.TotalFrames(),
		Seed:         p.Seed,
		LoadTime:     loadTime,
	}

	p.Logger.Info().
		Int("images", len(items)).
		Int64("seed", p.Seed).
		Msgf("[*] Разрешение: %dx%d @ %d FPS | Кадров: %d", t.Width, t.Height, t.FPS, res.TotalFrames)

	if err := os.MkdirAll(p.Config.OutputDir, 0755); err != nil {
		return nil, err
	}

	encodeStart := time.Now()
	if err := p.encode(ctx, gen, res.VideoPath); err != nil {
		return nil, err
	}
	res.EncodeTime = time.Since(encodeStart)
	p.Logger.Info().Str("video", res.VideoPath).Msg("[*] Видео закодировано")

	if p.Overlay != nil {
		audioStart := time.Now()
		arrivals := make([]float64, len(gen.Items()))
		for i, it := range gen.Items() {
			arrivals[i] = it.Arrival
		}
		total := float64(res.TotalFrames) / float64(t.FPS)
		res.Audio = p.Overlay.Apply(ctx, res.VideoPath, arrivals, total)
		res.AudioTime = time.Since(audioStart)
	}

	m := manifest.New(res.VideoPath, gen.Items(), t, p.Seed)
	m.Audio = res.Audio
	if err := manifest.Write(m, res.ManifestPath); err != nil {
		p.Logger.Warn().Err(err).Msg("[!] Не удалось записать манифест")
		res.ManifestPath = ""
	}

	res.TotalTime = time.Since(startTime)
	if p.Config.ShowStats {
		p.report(res)
	}
	return res, nil
}

func (p *SlideshowProject) encode(ctx context.Context, gen *compositor.Generator, path string) (err error) {
	sink, err := p.Encoder.Open(ctx, path, p.Config.Width, p.Config.Height, p.Config.FPS)
	if err != nil {
		return fmt.Errorf("запуск энкодера: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("финализация видео: %w", cerr)
		}
	}()

	var bar *progress.Bar
	if p.Progress != nil {
		bar = progress.New(p.Progress, gen.TotalFrames(), "Кадры")
		defer bar.Finish()
	}

	seq := gen.Frames(p.Pool)
	defer seq.Close()

	for seq.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.WriteFrame(seq.Frame()); err != nil {
			return fmt.Errorf("кадр %d: %w", seq.Index(), err)
		}
		if bar != nil && compositor.ShouldReport(seq.Index(), seq.Total(), p.Config.FPS) {
			bar.Update(seq.Index() + 1)
		}
	}
	return nil
}

func (p *SlideshowProject) report(res *Result) {
	out := p.Report
	if out == nil {
		out = os.Stdout
	}

	fps := 0.0
	if s := res.EncodeTime.Seconds(); s > 0 {
		fps = float64(res.TotalFrames) / s
	}
	stats := system.Snapshot()

	fmt.Fprintf(out,
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Loading: %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Audio: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"%s\n"+
			"----------------------------\n",
		p.Config.BuildVersion, res.TotalTime.Seconds(), res.LoadTime.Seconds(),
		res.EncodeTime.Seconds(), res.AudioTime.Seconds(), fps, stats,
	)

	if p.Config.BenchmarkLog == "" {
		return
	}
	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Images: %d | Frames: %d | Total: %.2fs | Encode: %.2fs | FPS: %.2f | RSS: %.1f MiB\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.InputDir),
		res.Items,
		res.TotalFrames,
		res.TotalTime.Seconds(),
		res.EncodeTime.Seconds(),
		fps,
		float64(stats.RSS)/(1<<20),
	)
	if err := appendLine(p.Config.BenchmarkLog, logEntry); err != nil {
		p.Logger.Warn().Err(err).Msg("[!] Не удалось записать benchmark.log")
	}
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(line)
	return errors.Join(werr, f.Close())
}
