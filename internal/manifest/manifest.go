// Package manifest records the arrival schedule of an encoded slideshow in
// a YAML file next to the video.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/photoreel/internal/config"
	"github.com/ivlev/photoreel/internal/slide"
	"gopkg.in/yaml.v3"
)

const Version = "1.0"

// Manifest describes one rendered show.
type Manifest struct {
	Version       string  `yaml:"version"`
	Video         string  `yaml:"video"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	FPS           int     `yaml:"fps"`
	ItemDuration  float64 `yaml:"item_duration"`
	FlashDuration float64 `yaml:"flash_duration"`
	Seed          int64   `yaml:"seed"`
	TotalFrames   int     `yaml:"total_frames"`
	Audio         bool    `yaml:"audio"`
	Items         []Item  `yaml:"items"`
}

// Item is one photo in arrival order.
type Item struct {
	Position int       `yaml:"position"`
	Source   string    `yaml:"source"`
	Arrival  float64   `yaml:"arrival"`
	Scale    float64   `yaml:"scale"`
	Rect     Rectangle `yaml:"rect"` // canvas area of the bordered photo
}

// Rectangle represents a bounding box
type Rectangle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

func New(video string, items []slide.Item, t config.Timing, seed int64) *Manifest {
	m := &Manifest{
		Version:       Version,
		Video:         filepath.Base(video),
		Width:         t.Width,
		Height:        t.Height,
		FPS:           t.FPS,
		ItemDuration:  t.ItemDuration,
		FlashDuration: t.FlashDuration,
		Seed:          seed,
		TotalFrames:   slide.TotalFrames(t.ItemDuration, len(items), t.FPS),
		Items:         make([]Item, len(items)),
	}
	for k, it := range items {
		b := it.Bounds()
		m.Items[k] = Item{
			Position: k,
			Source:   it.SourceID,
			Arrival:  it.Arrival,
			Scale:    it.Scale,
			Rect:     Rectangle{X: b.Min.X, Y: b.Min.Y, W: b.Dx(), H: b.Dy()},
		}
	}
	return m
}

// Arrivals lists the arrival times in item order.
func (m *Manifest) Arrivals() []float64 {
	out := make([]float64, len(m.Items))
	for i, it := range m.Items {
		out[i] = it.Arrival
	}
	return out
}

// Duration is the length of the show in seconds.
func (m *Manifest) Duration() float64 {
	if m.FPS <= 0 {
		return 0
	}
	return float64(m.TotalFrames) / float64(m.FPS)
}

// PathFor returns the manifest location for a video file.
func PathFor(video string) string {
	return strings.TrimSuffix(video, filepath.Ext(video)) + ".yaml"
}

// Write writes a manifest to a YAML file
func Write(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read reads a manifest from a YAML file
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Version != Version {
		return nil, fmt.Errorf("manifest %s: unsupported version %q", path, m.Version)
	}

	return &m, nil
}
