package imaging

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"math"

	"golang.org/x/image/draw"

	"github.com/avolkovs/paperflow/internal/core/domain"
	"github.com/avolkovs/paperflow/internal/core/ports"
)

const (
	// Probe band: where header text typically lives.
	bandTop    = 0.20
	bandBottom = 0.55

	// Flip detection: probe the 180 rotation when confidence is at or below
	// flipProbeCeiling, and accept it only when it wins by more than
	// flipMargin points.
	flipProbeCeiling = 70.0
	flipMargin       = 10.0

	// Skew estimation filters and threshold.
	minLineSpan  = 100.0
	maxLineAngle = 10.0
	skewMinDeg   = 0.5
)

// Normalizer corrects page orientation and skew, using the text recognizer
// as a probe. It is strictly best-effort: any internal error returns the
// input image unchanged.
type Normalizer struct {
	recognizer ports.TextRecognizer
	log        *slog.Logger
}

func NewNormalizer(recognizer ports.TextRecognizer, log *slog.Logger) *Normalizer {
	return &Normalizer{recognizer: recognizer, log: log}
}

func (n *Normalizer) Correct(ctx context.Context, img image.Image) image.Image {
	corrected, err := n.correct(ctx, img)
	if err != nil {
		n.log.Debug("normalization skipped", "error", err)
		return img
	}
	return corrected
}

func (n *Normalizer) correct(ctx context.Context, img image.Image) (image.Image, error) {
	band, err := probeBand(img)
	if err != nil {
		return nil, err
	}

	probe, err := n.recognizer.Recognize(ctx, band)
	if err != nil {
		return nil, err
	}

	flipped := false
	if probe.Confidence <= flipProbeCeiling {
		reversed, err := n.recognizer.Recognize(ctx, Rotate180(band))
		if err == nil && reversed.Confidence > probe.Confidence+flipMargin {
			flipped = true
			probe = reversed
		}
	}

	out := img
	if flipped {
		out = Rotate180(out)
	}

	if angle := weightedSkew(probe.Lines); math.Abs(angle) > skewMinDeg {
		out = RotateAngle(out, -angle)
	}
	return out, nil
}

// probeBand samples the horizontal band between bandTop and bandBottom of
// page height, grayscaled with contrast stretched to the full range.
func probeBand(img image.Image) (image.Image, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("empty image")
	}

	top := b.Min.Y + int(float64(b.Dy())*bandTop)
	bottom := b.Min.Y + int(float64(b.Dy())*bandBottom)
	rect := image.Rect(b.Min.X, top, b.Max.X, bottom)

	gray := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(gray, gray.Bounds(), img, rect.Min, draw.Src)

	stretchContrast(gray)
	return gray, nil
}

// stretchContrast linearly maps the observed intensity range onto 0..255.
func stretchContrast(gray *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, p := range gray.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi <= lo {
		return
	}
	span := float64(hi - lo)
	for i, p := range gray.Pix {
		gray.Pix[i] = uint8(float64(p-lo) / span * 255)
	}
}

// weightedSkew averages the baseline angles of the recognized lines,
// weighted by horizontal span. Short lines and steep angles are discarded
// as noise rather than global skew.
func weightedSkew(recognized []domain.RecognizedLine) float64 {
	var weighted, totalSpan float64
	for _, line := range recognized {
		span := line.Span()
		if span < minLineSpan {
			continue
		}
		angle := math.Atan2(line.Y1-line.Y0, line.X1-line.X0) * 180 / math.Pi
		if math.Abs(angle) > maxLineAngle {
			continue
		}
		weighted += angle * span
		totalSpan += span
	}
	if totalSpan == 0 {
		return 0
	}
	return weighted / totalSpan
}
