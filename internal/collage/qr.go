package collage

import (
	"image"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	qrSize   = 160
	qrMargin = 20
)

// StampQR pastes a QR code encoding id into the top-right corner of img.
func StampQR(img *image.NRGBA, id string) (*image.NRGBA, error) {
	q, err := qrcode.New(id, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	code := q.Image(qrSize)
	at := image.Pt(img.Bounds().Dx()-code.Bounds().Dx()-qrMargin, qrMargin)
	return imaging.Paste(img, code, at), nil
}
