package config

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	var cfg Config
	require.NoError(t, LoadWith(context.Background(), &cfg, envconfig.MapLookuper(nil)))

	s := cfg.Slideshow
	assert.Equal(t, 1920, s.Width)
	assert.Equal(t, 1080, s.Height)
	assert.Equal(t, 30, s.FPS)
	assert.Equal(t, 5.0, s.ItemDuration)
	assert.Equal(t, 0.2, s.FlashDuration)
	assert.Equal(t, 100, s.Margin)
	assert.Equal(t, 20, s.DecodeBorder)
	assert.Equal(t, 20, s.PolaroidBorder)
	assert.Equal(t, "shutter.mp3", s.ClickSound)
	assert.Equal(t, 44100, s.SampleRate)
	assert.Equal(t, 0.5, s.MinMuxRatio)
	assert.Equal(t, "Output/animacion_fotos.mp4", s.OutputPath())

	assert.Equal(t, "Lista alumnos.csv", cfg.Collage.RosterPath)
	assert.Equal(t, "none", cfg.Enhance.ScaleMode)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	var cfg Config
	env := envconfig.MapLookuper(map[string]string{
		"SLIDESHOW_FPS":       "25",
		"SLIDESHOW_SEED":      "42",
		"ENHANCE_SCALE_MODE":  "up",
		"ENHANCE_FACTOR":      "2",
		"COLLAGE_QR_CODE":     "true",
		"LOG_FORMAT":          "json",
		"SLIDESHOW_INPUT_DIR": "/photos",
	})
	require.NoError(t, LoadWith(context.Background(), &cfg, env))

	assert.Equal(t, 25, cfg.Slideshow.FPS)
	assert.Equal(t, int64(42), cfg.Slideshow.Seed)
	assert.Equal(t, "/photos", cfg.Slideshow.InputDir)
	assert.Equal(t, "up", cfg.Enhance.ScaleMode)
	assert.Equal(t, 2.0, cfg.Enhance.Factor)
	assert.True(t, cfg.Collage.QRCode)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FlagValuesWin(t *testing.T) {
	cfg := Config{Slideshow: Slideshow{FPS: 60}}
	env := envconfig.MapLookuper(map[string]string{"SLIDESHOW_FPS": "25"})
	require.NoError(t, LoadWith(context.Background(), &cfg, env))
	assert.Equal(t, 60, cfg.Slideshow.FPS)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown scale mode", map[string]string{"ENHANCE_SCALE_MODE": "sideways"}},
		{"negative flash", map[string]string{"SLIDESHOW_FLASH_DURATION": "-1"}},
		{"mux ratio above one", map[string]string{"SLIDESHOW_MIN_MUX_RATIO": "1.5"}},
		{"unknown log format", map[string]string{"LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			err := LoadWith(context.Background(), &cfg, envconfig.MapLookuper(tt.env))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_UnparsableValue(t *testing.T) {
	var cfg Config
	err := LoadWith(context.Background(), &cfg, envconfig.MapLookuper(map[string]string{"SLIDESHOW_FPS": "fast"}))
	require.Error(t, err)
}

func TestSlideshow_Timing(t *testing.T) {
	s := Slideshow{Width: 640, Height: 360, FPS: 24, ItemDuration: 3, FlashDuration: 0.1, Margin: 10, DecodeBorder: 2, PolaroidBorder: 4}
	assert.Equal(t, Timing{
		Width: 640, Height: 360, FPS: 24, ItemDuration: 3, FlashDuration: 0.1,
		Margin: 10, DecodeBorder: 2, PolaroidBorder: 4,
	}, s.Timing())
}

func TestLog_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Log{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}
