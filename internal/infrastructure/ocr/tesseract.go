// Package ocr recognizes text on page images with Tesseract, behind a
// fixed-size worker pool so native OCR contexts never exceed the configured
// concurrency.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

// Engine runs Tesseract via gosseract, one short-lived client per call.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

func NewEngine(languages []string) *Engine {
	return &Engine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (e *Engine) Recognize(ctx context.Context, img image.Image) (domain.RecognizedText, error) {
	if err := ctx.Err(); err != nil {
		return domain.RecognizedText{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return domain.RecognizedText{}, fmt.Errorf("encode page: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return domain.RecognizedText{}, fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return domain.RecognizedText{}, fmt.Errorf("set languages: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return domain.RecognizedText{}, fmt.Errorf("recognize text: %w", err)
	}

	recognized := domain.RecognizedText{Text: strings.TrimSpace(text)}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return recognized, nil
	}

	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	recognized.Confidence = sum / float64(len(boxes))
	recognized.Lines = groupLines(boxes)
	return recognized, nil
}

// groupLines folds word boxes into text lines by vertical overlap, then
// derives each line's baseline endpoints from its first and last word.
func groupLines(boxes []gosseract.BoundingBox) []domain.RecognizedLine {
	sorted := make([]gosseract.BoundingBox, len(boxes))
	copy(sorted, boxes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Box.Min.Y != sorted[j].Box.Min.Y {
			return sorted[i].Box.Min.Y < sorted[j].Box.Min.Y
		}
		return sorted[i].Box.Min.X < sorted[j].Box.Min.X
	})

	var groups [][]gosseract.BoundingBox
	for _, b := range sorted {
		placed := false
		for i := range groups {
			if verticalOverlap(groups[i][0].Box, b.Box) {
				groups[i] = append(groups[i], b)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []gosseract.BoundingBox{b})
		}
	}

	out := make([]domain.RecognizedLine, 0, len(groups))
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			return group[i].Box.Min.X < group[j].Box.Min.X
		})
		first, last := group[0], group[len(group)-1]
		var words []string
		for _, w := range group {
			words = append(words, w.Word)
		}
		out = append(out, domain.RecognizedLine{
			Text: strings.Join(words, " "),
			X0:   float64(first.Box.Min.X),
			Y0:   float64(first.Box.Max.Y),
			X1:   float64(last.Box.Max.X),
			Y1:   float64(last.Box.Max.Y),
		})
	}
	return out
}

func verticalOverlap(a, b image.Rectangle) bool {
	top := max(a.Min.Y, b.Min.Y)
	bottom := min(a.Max.Y, b.Max.Y)
	if bottom <= top {
		return false
	}
	shorter := min(a.Dy(), b.Dy())
	if shorter == 0 {
		return false
	}
	return float64(bottom-top) >= 0.5*float64(shorter)
}
