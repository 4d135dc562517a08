package source

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// ImageSource serves the photos of a single directory in file name order.
type ImageSource struct {
	dir   string
	names []string
}

func NewImageSource(dir string) (*ImageSource, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, dir)
		}
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInputNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && IsImage(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	sort.Strings(names)

	return &ImageSource{dir: dir, names: names}, nil
}

// IsImage reports whether name carries one of the accepted extensions.
func IsImage(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

func (s *ImageSource) Len() int {
	return len(s.names)
}

func (s *ImageSource) Name(index int) string {
	return s.names[index]
}

func (s *ImageSource) Path(index int) string {
	return filepath.Join(s.dir, s.names[index])
}

// Decode opens the image and drops its alpha channel onto white, so every
// photo ends up as an opaque RGB raster.
func (s *ImageSource) Decode(index int) (image.Image, error) {
	img, err := imaging.Open(s.Path(index))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.names[index], err)
	}
	return Flatten(img), nil
}

func (s *ImageSource) Close() error {
	return nil
}

// Flatten composites img over an opaque white background.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
