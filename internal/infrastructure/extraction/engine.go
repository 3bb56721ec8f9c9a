package extraction

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/avolkovs/paperflow/internal/core/domain"
	"github.com/avolkovs/paperflow/internal/core/ports"
	"github.com/avolkovs/paperflow/internal/infrastructure/imaging"
)

const (
	// Pages recognized below lowConfidenceFloor are retried upside down; the
	// retry wins only when it beats the original by more than retryMargin.
	lowConfidenceFloor = 50.0
	retryMargin        = 10.0

	// Manifest detection threshold and confidence divisor.
	manifestMinOrders = 2
	manifestFullCount = 5
)

type parserEntry struct {
	match func(text string) bool
	parse func(text string) (domain.ExtractedFields, float64)
}

// Engine dispatches one page of recognized text to the first matching
// parser. The parsers are ordered; the generic detail parser is the
// unconditional fallback.
type Engine struct {
	recognizer ports.TextRecognizer
	barcodes   ports.BarcodeReader
	parsers    []parserEntry
}

func NewEngine(recognizer ports.TextRecognizer, barcodes ports.BarcodeReader) *Engine {
	return &Engine{
		recognizer: recognizer,
		barcodes:   barcodes,
		// Manifests never reach the dispatch loop: manifestSignal routes
		// every matchSummary page through manifestExtraction first.
		parsers: []parserEntry{
			{match: matchTicket, parse: parseTicket},
			{match: matchReceipt, parse: parseReceipt},
			{match: matchCDR, parse: parseCDR},
		},
	}
}

func (e *Engine) Extract(ctx context.Context, img image.Image, docTypeHint string) (*domain.Extraction, error) {
	recognized, oriented, err := e.recognizeOriented(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("recognize page: %w", err)
	}
	upper := strings.ToUpper(recognized.Text)

	// Manifests are often scanned sideways; detect them before the regular
	// dispatch, regardless of the document-type hint.
	if e.manifestSignal(upper) {
		return manifestExtraction(upper, recognized.Text), nil
	}
	if !e.anyTitleMatch(upper) {
		if ext, ok := e.manifestProbe90(ctx, oriented); ok {
			return ext, nil
		}
	}

	for _, p := range e.parsers {
		if !p.match(upper) {
			continue
		}
		fields, confidence := p.parse(upper)
		if fields.Kind == domain.KindTicket {
			e.overrideTicketOrder(ctx, oriented, fields.Ticket)
		}
		return &domain.Extraction{Fields: fields, Confidence: confidence, RawText: recognized.Text}, nil
	}

	fields, confidence := parseDetail(upper)
	return &domain.Extraction{Fields: fields, Confidence: confidence, RawText: recognized.Text}, nil
}

// recognizeOriented runs OCR and, for low-confidence pages, retries once
// with the page rotated 180 degrees, keeping whichever orientation the
// recognizer prefers by more than the margin.
func (e *Engine) recognizeOriented(ctx context.Context, img image.Image) (domain.RecognizedText, image.Image, error) {
	recognized, err := e.recognizer.Recognize(ctx, img)
	if err != nil {
		return domain.RecognizedText{}, nil, err
	}
	if recognized.Confidence >= lowConfidenceFloor {
		return recognized, img, nil
	}

	flipped := imaging.Rotate180(img)
	retry, err := e.recognizer.Recognize(ctx, flipped)
	if err == nil && retry.Confidence > recognized.Confidence+retryMargin {
		return retry, flipped, nil
	}
	return recognized, img, nil
}

func (e *Engine) anyTitleMatch(upper string) bool {
	for _, p := range e.parsers {
		if p.match(upper) {
			return true
		}
	}
	return false
}

// manifestSignal reports whether the text looks like a manifest: either the
// column header is present, or the page carries several order-shaped tokens
// without any other recognizable title.
func (e *Engine) manifestSignal(upper string) bool {
	if matchSummary(upper) {
		return true
	}
	if matchTicket(upper) || matchReceipt(upper) || matchCDR(upper) {
		return false
	}
	return len(orderIDs(upper)) >= manifestMinOrders
}

func (e *Engine) manifestProbe90(ctx context.Context, img image.Image) (*domain.Extraction, bool) {
	rotated, err := e.recognizer.Recognize(ctx, imaging.Rotate90(img))
	if err != nil {
		return nil, false
	}
	upper := strings.ToUpper(rotated.Text)
	if !e.manifestSignal(upper) {
		return nil, false
	}
	return manifestExtraction(upper, rotated.Text), true
}

// manifestExtraction builds summary fields from manifest text; confidence
// scales with the number of orders found, saturating at manifestFullCount.
func manifestExtraction(upper, raw string) *domain.Extraction {
	fields, _ := parseSummary(upper)
	if len(fields.Summary.Orders) == 0 {
		for _, id := range orderIDs(upper) {
			fields.Summary.Orders = append(fields.Summary.Orders, domain.OrderRef{OrderID: id})
		}
	}
	confidence := float64(len(fields.Summary.Orders)) / manifestFullCount
	if confidence > 1 {
		confidence = 1
	}
	return &domain.Extraction{Fields: fields, Confidence: confidence, RawText: raw}
}

// overrideTicketOrder recovers the order id from the barcode printed in the
// bottom-right quadrant of ticket pages, which survives bad OCR.
func (e *Engine) overrideTicketOrder(ctx context.Context, img image.Image, fields *domain.TicketFields) {
	b := img.Bounds()
	quadrant := image.Rect(
		b.Min.X+b.Dx()/2,
		b.Min.Y+b.Dy()/2,
		b.Max.X,
		b.Max.Y,
	)
	code, found, err := e.barcodes.DecodeRegion(ctx, img, quadrant)
	if err != nil || !found {
		return
	}
	if id := firstOrderID(strings.ToUpper(code)); id != "" {
		fields.OrderID = id
	}
}
