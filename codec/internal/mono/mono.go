// Package mono reduces images to one bit per pixel for the bitmap codecs.
package mono

import (
	"image"
	"image/color"
)

// threshold is the luminance above which a pixel is considered white.
const threshold = 127

// IsWhite reports whether c maps to the white (background) side of a bilevel
// image. Fully transparent pixels are white.
func IsWhite(c color.Color) bool {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return true
	}
	lum := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 256
	return lum > threshold
}

// Rows calls fn for every row of img with the row's pixels already
// thresholded, true meaning white.
func Rows(img image.Image, fn func(y int, white []bool) error) error {
	b := img.Bounds()
	row := make([]bool, b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			row[x-b.Min.X] = IsWhite(img.At(x, y))
		}
		if err := fn(y-b.Min.Y, row); err != nil {
			return err
		}
	}
	return nil
}
