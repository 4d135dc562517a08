package collage

import (
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

var photoExts = []string{"jpg", "jpeg", "png"}

// FindPair looks up {id}_bf and {id}_af photos in dir; the first matching
// extension wins for each side.
func FindPair(dir, id string) (before, after string, ok bool) {
	before = findPhoto(dir, id+"_bf")
	after = findPhoto(dir, id+"_af")
	return before, after, before != "" && after != ""
}

func findPhoto(dir, stem string) string {
	for _, ext := range photoExts {
		p := filepath.Join(dir, stem+"."+ext)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// Open decodes the photo at path and rotates it upright according to its
// EXIF orientation.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return img, nil
	}
	defer f.Close()
	return Orient(img, Orientation(f)), nil
}

// Orientation reads the EXIF orientation tag, or 1 when there is none.
func Orientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// Orient handles the plain rotations 3, 6 and 8; mirrored orientations are
// left as they are.
func Orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 3:
		return imaging.Rotate180(img)
	case 6:
		return imaging.Rotate270(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
