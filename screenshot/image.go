package screenshot

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	Width       = 1920
	Height      = 1080
	JPEGQuality = 85
)

// ProcessUploadedImage normalizes any decodable image to a 1920x1080 JPEG.
// Larger images are scaled down to fit and everything is centred on white.
func ProcessUploadedImage(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	out := imaging.New(Width, Height, color.White)
	if b.Dx() > Width || b.Dy() > Height {
		out = imaging.PasteCenter(out, imaging.Fit(src, Width, Height, imaging.Lanczos))
	} else {
		out = imaging.PasteCenter(out, src)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
