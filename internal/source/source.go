package source

import (
	"errors"
	"image"
)

var (
	// ErrInputNotFound is returned when the input directory does not exist.
	ErrInputNotFound = errors.New("input directory not found")
	// ErrNoImages is returned when the input directory holds no qualifying image.
	ErrNoImages = errors.New("no images found")
)

// Extensions accepted by ImageSource, compared case-insensitively.
var Extensions = []string{".jpg", ".jpeg", ".png"}

type Source interface {
	Len() int
	Name(index int) string
	Decode(index int) (image.Image, error)
	Close() error
}
