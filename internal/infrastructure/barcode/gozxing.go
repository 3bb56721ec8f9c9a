// Package barcode decodes the linear barcodes printed on batch coversheets
// and order tickets.
package barcode

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"golang.org/x/image/draw"
)

// Reader decodes one-dimensional barcodes with a fixed set of symbologies.
// Code 128 is what the batch coversheets carry; Code 39 and ITF cover older
// ticket stock.
type Reader struct {
	readers []gozxing.Reader
}

func NewReader() *Reader {
	return &Reader{
		readers: []gozxing.Reader{
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
			oned.NewITFReader(),
		},
	}
}

// Decode scans the whole image. Absence of a barcode is reported via the
// bool, not as an error.
func (r *Reader) Decode(ctx context.Context, img image.Image) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false, fmt.Errorf("build bitmap: %w", err)
	}

	for _, reader := range r.readers {
		result, err := reader.Decode(bmp, nil)
		if err != nil {
			continue
		}
		text := strings.TrimSpace(result.GetText())
		if text == "" {
			continue
		}
		return text, true, nil
	}
	return "", false, nil
}

// DecodeRegion scans only the given sub-rectangle of the image.
func (r *Reader) DecodeRegion(ctx context.Context, img image.Image, region image.Rectangle) (string, bool, error) {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return "", false, nil
	}

	crop := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(crop, crop.Bounds(), img, region.Min, draw.Src)

	return r.Decode(ctx, crop)
}
