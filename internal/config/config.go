// Package config loads photoreel settings from flags, environment and .env.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Slideshow Slideshow `env:", prefix=SLIDESHOW_"`
	Collage   Collage   `env:", prefix=COLLAGE_"`
	Enhance   Enhance   `env:", prefix=ENHANCE_"`
	Log       Log       `env:", prefix=LOG_"`
}

type Slideshow struct {
	InputDir   string `env:"INPUT_DIR"`
	OutputDir  string `env:"OUTPUT_DIR, default=Output" validate:"required"`
	OutputName string `env:"OUTPUT_NAME, default=animacion_fotos.mp4" validate:"required"`

	Width         int     `env:"WIDTH, default=1920" validate:"gt=0"`
	Height        int     `env:"HEIGHT, default=1080" validate:"gt=0"`
	FPS           int     `env:"FPS, default=30" validate:"gt=0"`
	ItemDuration  float64 `env:"ITEM_DURATION, default=5.0" validate:"gt=0"`
	FlashDuration float64 `env:"FLASH_DURATION, default=0.2" validate:"gte=0"`

	// Margin is the total horizontal and vertical space kept free around a photo.
	Margin         int `env:"MARGIN, default=100" validate:"gte=0"`
	DecodeBorder   int `env:"DECODE_BORDER, default=20" validate:"gte=0"`
	PolaroidBorder int `env:"POLAROID_BORDER, default=20" validate:"gte=0"`

	ClickSound  string  `env:"CLICK_SOUND, default=shutter.mp3"`
	SampleRate  int     `env:"SAMPLE_RATE, default=44100" validate:"gt=0"`
	MinMuxRatio float64 `env:"MIN_MUX_RATIO, default=0.5" validate:"gte=0,lte=1"`

	// Seed drives the presentation order. Zero means "derive from the clock".
	Seed int64 `env:"SEED"`

	FFmpegPath   string `env:"FFMPEG_PATH, default=ffmpeg"`
	VideoEncoder string `env:"VIDEO_ENCODER"`
	Quality      int    `env:"QUALITY" validate:"gte=0"`
	ShowStats    bool   `env:"SHOW_STATS"`
	BenchmarkLog string `env:"BENCHMARK_LOG, default=benchmark.log"`
	BuildVersion string `env:"BUILD_VERSION, default=dev"`
}

type Collage struct {
	PhotosDir  string `env:"PHOTOS_DIR, default=Fotos" validate:"required"`
	OutputDir  string `env:"OUTPUT_DIR, default=Output" validate:"required"`
	RosterPath string `env:"ROSTER, default=Lista alumnos.csv" validate:"required"`
	LogName    string `env:"LOG_NAME, default=log_procesado.csv" validate:"required"`
	Width      int    `env:"WIDTH, default=1920" validate:"gt=0"`
	Height     int    `env:"HEIGHT, default=1080" validate:"gt=0"`
	FontPath   string `env:"FONT_PATH"`
	QRCode     bool   `env:"QR_CODE"`
	Workers    int    `env:"WORKERS, default=4" validate:"gt=0"`
}

type Enhance struct {
	InputDir    string  `env:"INPUT_DIR"`
	OutputDir   string  `env:"OUTPUT_DIR, default=Output" validate:"required"`
	ScaleMode   string  `env:"SCALE_MODE, default=none" validate:"oneof=none up down"`
	Factor      float64 `env:"FACTOR, default=1.0" validate:"gt=0"`
	AutoEnhance bool    `env:"AUTO_ENHANCE"`
	Workers     int     `env:"WORKERS, default=4" validate:"gt=0"`
}

type Log struct {
	Level  string `env:"LEVEL, default=info"`
	Format string `env:"FORMAT, default=console" validate:"oneof=console json"`
}

// Timing is the immutable subset of the slideshow settings shared by the
// compositor and the audio scheduler.
type Timing struct {
	Width, Height  int
	FPS            int
	ItemDuration   float64
	FlashDuration  float64
	Margin         int
	DecodeBorder   int
	PolaroidBorder int
}

func (s Slideshow) Timing() Timing {
	return Timing{
		Width:          s.Width,
		Height:         s.Height,
		FPS:            s.FPS,
		ItemDuration:   s.ItemDuration,
		FlashDuration:  s.FlashDuration,
		Margin:         s.Margin,
		DecodeBorder:   s.DecodeBorder,
		PolaroidBorder: s.PolaroidBorder,
	}
}

// OutputPath is the fixed location of the encoded slideshow.
func (s Slideshow) OutputPath() string {
	return filepath.Join(s.OutputDir, s.OutputName)
}

// Load fills the zero fields of cfg from the environment (after loading an
// optional .env file) and tag defaults, then validates the result. Fields
// already set, typically by command-line flags, are kept.
func Load(ctx context.Context, cfg *Config) error {
	_ = godotenv.Load()
	return LoadWith(ctx, cfg, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit lookuper and no .env handling.
func LoadWith(ctx context.Context, cfg *Config, l envconfig.Lookuper) error {
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: l,
	}); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// NewLogger creates a zerolog logger based on the log settings.
// "json" produces machine-readable lines, anything else a console writer.
func (l Log) NewLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if strings.ToLower(l.Format) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(parseLogLevel(l.Level)).With().Timestamp().Logger()
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
