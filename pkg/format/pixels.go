package format

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"golang.org/x/image/bmp"
)

// decodePNGToRGBA decodes one TXTR page payload into a tightly packed
// RGBA buffer. Texture pages are normally PNG; a handful of older
// titles ship BMP pages instead, so both are tried the way
// golang.org/x/image/bmp is used elsewhere in the ecosystem to round
// out image/png's format coverage.
func decodePNGToRGBA(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		img, err = bmp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding texture page: %w", err)
		}
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba.Pix, nil
}
