package imaging

import (
	"image"
	"image/color"

	"github.com/sunshineplan/imgconv"
)

// Rotate180 flips the image upside down without resampling.
func Rotate180(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.X-1-x, b.Max.Y-1-y, src.At(x, y))
		}
	}
	return dst
}

// Rotate90 turns the image a quarter turn clockwise without resampling.
func Rotate90(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.Y-1-y, x-b.Min.X, src.At(x, y))
		}
	}
	return dst
}

// RotateAngle rotates by an arbitrary angle in degrees (counter-clockwise
// positive), filling exposed corners with white.
func RotateAngle(src image.Image, degrees float64) image.Image {
	return imgconv.Rotate(src, &imgconv.RotateOption{
		Angle:      degrees,
		Background: color.White,
	})
}
