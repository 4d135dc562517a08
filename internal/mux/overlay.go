package mux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ivlev/photoreel/internal/audio"
	"github.com/rs/zerolog"
)

var (
	ErrClickNotFound = errors.New("mux: click sound not found")
	ErrUndersized    = errors.New("mux: output too small")
)

// Overlay is the best-effort audio pass. The encoded video is only replaced
// after a successful, size-checked mux; temp files are always removed.
type Overlay struct {
	Decoder audio.Decoder
	Muxer   Muxer
	Logger  zerolog.Logger

	ClickPath     string
	FlashDuration float64
	SampleRate    int
	MinRatio      float64
}

// Apply adds a click at every arrival to the video at videoPath, which lasts
// total seconds. It reports whether the video now carries audio; failures
// are logged and never returned.
func (o *Overlay) Apply(ctx context.Context, videoPath string, arrivals []float64, total float64) bool {
	if err := o.apply(ctx, videoPath, arrivals, total); err != nil {
		if errors.Is(err, ErrClickNotFound) {
			o.Logger.Info().Str("click", o.ClickPath).Msg("[!] Звук затвора не найден, видео остается без звука")
			return false
		}
		o.Logger.Warn().Err(err).Msg("[!] Не удалось добавить звук, видео сохранено без изменений")
		return false
	}
	o.Logger.Info().Str("video", videoPath).Msg("[+] Звук добавлен")
	return true
}

func (o *Overlay) apply(ctx context.Context, videoPath string, arrivals []float64, total float64) error {
	if o.ClickPath == "" {
		return ErrClickNotFound
	}
	if _, err := os.Stat(o.ClickPath); err != nil {
		return fmt.Errorf("%w: %v", ErrClickNotFound, err)
	}

	raw, err := o.Decoder.Decode(ctx, o.ClickPath)
	if err != nil {
		return fmt.Errorf("decode click: %w", err)
	}
	click := audio.PrepareClick(raw, o.FlashDuration, o.SampleRate)
	track := audio.BuildClickTrack(arrivals, click, total)

	// temp files live next to the video so the final rename stays on one filesystem
	dir := filepath.Dir(videoPath)
	id := uuid.NewString()
	audioPath := filepath.Join(dir, ".photoreel-"+id+".f32")
	outPath := filepath.Join(dir, ".photoreel-"+id+filepath.Ext(videoPath))
	defer os.Remove(audioPath)
	defer os.Remove(outPath)

	if err := writeTrack(audioPath, track); err != nil {
		return fmt.Errorf("write track: %w", err)
	}

	ok, err := o.Muxer.Mux(ctx, Request{
		VideoPath:     videoPath,
		AudioPath:     audioPath,
		AudioChannels: track.Channels,
		AudioRate:     track.Rate,
		OutputPath:    outPath,
		MinRatio:      o.MinRatio,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrUndersized
	}

	return os.Rename(outPath, videoPath)
}

func writeTrack(path string, track *audio.Track) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := track.WriteRaw(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
