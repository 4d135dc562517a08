package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ivlev/photoreel/internal/audio"
	"github.com/ivlev/photoreel/internal/config"
	"github.com/ivlev/photoreel/internal/engine"
	"github.com/ivlev/photoreel/internal/manifest"
	"github.com/ivlev/photoreel/internal/mux"
	"github.com/ivlev/photoreel/internal/source"
	"github.com/ivlev/photoreel/internal/system"
	"github.com/ivlev/photoreel/internal/video"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newSlideshowCmd(a *app) *cobra.Command {
	s := &a.cfg.Slideshow
	var noAudio bool

	cmd := &cobra.Command{
		Use:   "slideshow [папка-с-фото]",
		Short: "Собрать видео из папки фотографий со вспышками и щелчком затвора",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				s.InputDir = args[0]
			}
			if s.InputDir == "" {
				return errors.New("укажите папку с фотографиями")
			}
			return runSlideshow(cmd.Context(), a.logger, *s, noAudio)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&s.OutputDir, "output-dir", "o", "", "Папка для результата (по умолчанию Output)")
	f.StringVar(&s.OutputName, "output-name", "", "Имя видеофайла (по умолчанию animacion_fotos.mp4)")
	f.IntVar(&s.Width, "width", 0, "Ширина")
	f.IntVar(&s.Height, "height", 0, "Высота")
	f.IntVar(&s.FPS, "fps", 0, "FPS")
	f.Float64Var(&s.ItemDuration, "item-duration", 0, "Интервал между фотографиями (сек)")
	f.Float64Var(&s.FlashDuration, "flash-duration", 0, "Длительность вспышки (сек)")
	f.IntVar(&s.Margin, "margin", 0, "Суммарный отступ фото от краев кадра (px)")
	f.StringVar(&s.ClickSound, "click", "", "Звук затвора (по умолчанию shutter.mp3)")
	f.Int64Var(&s.Seed, "seed", 0, "Зерно случайного порядка (0 - от часов)")
	f.StringVar(&s.FFmpegPath, "ffmpeg", "", "Путь к ffmpeg")
	f.StringVar(&s.VideoEncoder, "encoder", "", "Видеокодер (пусто - автоопределение)")
	f.IntVar(&s.Quality, "quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	f.BoolVar(&s.ShowStats, "stats", false, "Показать отчет о производительности и дописать benchmark.log")
	f.BoolVar(&noAudio, "no-audio", false, "Не добавлять звук затвора")
	return cmd
}

func runSlideshow(ctx context.Context, logger zerolog.Logger, s config.Slideshow, noAudio bool) error {
	src, err := source.NewImageSource(s.InputDir)
	if err != nil {
		return err
	}
	defer src.Close()

	logger.Info().Msgf("[*] Источник: %s | Изображений: %d", s.InputDir, src.Len())

	encoderName := s.VideoEncoder
	if encoderName == "" {
		encoderName = system.GetBestH264Encoder(ctx, s.FFmpegPath)
		if encoderName != "libx264" {
			logger.Info().Msgf("[*] Обнаружено аппаратное ускорение: %s", encoderName)
		}
	}

	enc := &video.FFmpegEncoder{
		Binary:  s.FFmpegPath,
		Codec:   encoderName,
		Quality: s.Quality,
		Logger:  logger,
	}
	project := engine.NewSlideshowProject(s, src, enc, logger)
	project.Progress = os.Stderr
	if !noAudio {
		project.Overlay = newOverlay(s, logger)
	}

	res, err := project.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", res.VideoPath)
	return nil
}

func newOverlay(s config.Slideshow, logger zerolog.Logger) *mux.Overlay {
	return &mux.Overlay{
		Decoder:       &audio.FFmpegDecoder{Binary: s.FFmpegPath},
		Muxer:         &mux.FFmpegMuxer{Binary: s.FFmpegPath},
		Logger:        logger,
		ClickPath:     s.ClickSound,
		FlashDuration: s.FlashDuration,
		SampleRate:    s.SampleRate,
		MinRatio:      s.MinMuxRatio,
	}
}

// newOverlayCmd re-runs the audio pass of an existing slideshow using the
// manifest written next to it.
func newOverlayCmd(a *app) *cobra.Command {
	s := &a.cfg.Slideshow

	cmd := &cobra.Command{
		Use:   "overlay <видео>",
		Short: "Повторно наложить щелчки затвора на готовое слайд-шоу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoPath := args[0]
			mPath := manifest.PathFor(videoPath)
			m, err := manifest.Read(mPath)
			if err != nil {
				return fmt.Errorf("манифест: %w", err)
			}

			cfg := *s
			cfg.FlashDuration = m.FlashDuration
			ov := newOverlay(cfg, a.logger)
			if !ov.Apply(cmd.Context(), videoPath, m.Arrivals(), m.Duration()) {
				return errors.New("звук не добавлен")
			}

			m.Audio = true
			if err := manifest.Write(m, mPath); err != nil {
				a.logger.Warn().Err(err).Msg("[!] Не удалось обновить манифест")
			}
			fmt.Printf("[+++] Успех! Результат: %s\n", videoPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&s.ClickSound, "click", "", "Звук затвора (по умолчанию shutter.mp3)")
	f.StringVar(&s.FFmpegPath, "ffmpeg", "", "Путь к ffmpeg")
	return cmd
}
