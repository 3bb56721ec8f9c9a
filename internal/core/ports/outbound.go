package ports

import (
	"context"
	"image"
	"io"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

// ScanRepository persists and reads scan state.
type ScanRepository interface {
	Create(ctx context.Context, scan *domain.Scan) error
	GetByID(ctx context.Context, id string) (*domain.Scan, error)
	ListByStatus(ctx context.Context, status domain.ScanStatus) ([]domain.Scan, error)
	// BeginProcessing transitions pending/failed -> processing and returns
	// domain.ErrAlreadyProcessing when the scan is mid-run, leaving the row
	// untouched. Completed scans are refused outright.
	BeginProcessing(ctx context.Context, id string) error
	// RecordClassification stores the first section's batch-type code and the
	// decoded page count.
	RecordClassification(ctx context.Context, id string, batchType string, pageCount int) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMessage string) error
	// ResetForReprocess returns the scan to pending and clears batch type and
	// error message.
	ResetForReprocess(ctx context.Context, id string) error
}

// PageRepository persists page documents and their extractions.
type PageRepository interface {
	CreateDocument(ctx context.Context, doc *domain.PageDocument) error
	MarkDocumentCompleted(ctx context.Context, documentID string) error
	UpdateDocumentType(ctx context.Context, documentID string, docType string) error
	// UpsertExtraction replaces any earlier extraction for the same
	// (document, page) pair.
	UpsertExtraction(ctx context.Context, ext *domain.PageExtraction) error
	// DeleteForScan removes all page documents and extractions of a scan;
	// used by recovery and reprocess.
	DeleteForScan(ctx context.Context, scanID string) error
}

// ReferenceStore reads the small document-type and batch-type lookup tables.
type ReferenceStore interface {
	ListBatchTypeCodes(ctx context.Context) ([]string, error)
	GetDocumentType(ctx context.Context, code string) (*domain.DocumentType, error)
}

// ObjectStorage stores source scan files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
}

// MessageQueue publishes/consumes scan processing jobs.
type MessageQueue interface {
	PublishScanQueued(ctx context.Context, scanID string) error
	SubscribeScanQueued(ctx context.Context, handler func(context.Context, string) error) error
}

// ImageProvider decodes individual pages of a scan's source file.
// Page numbers are 1-based.
type ImageProvider interface {
	PageCount(ctx context.Context, scan *domain.Scan) (int, error)
	DecodePage(ctx context.Context, scan *domain.Scan, pageNumber int) (image.Image, error)
}

// BarcodeReader decodes a linear barcode from an image, if one is present.
// The bool result reports presence; absence is not an error.
type BarcodeReader interface {
	Decode(ctx context.Context, img image.Image) (string, bool, error)
	DecodeRegion(ctx context.Context, img image.Image, region image.Rectangle) (string, bool, error)
}

// TextRecognizer runs OCR on a raster image. Implementations are safe for
// concurrent use; each call is an independent job.
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image) (domain.RecognizedText, error)
	Shutdown()
}

// ImageNormalizer corrects page orientation and skew. It never fails outward:
// on any internal error it returns the input unchanged.
type ImageNormalizer interface {
	Correct(ctx context.Context, img image.Image) image.Image
}

// Segmenter walks a scan's pages and produces ordered contiguous sections
// plus the decoded page count.
type Segmenter interface {
	Segment(ctx context.Context, scan *domain.Scan) ([]domain.Section, int, error)
}

// FieldExtractor turns one page image into a typed field set.
type FieldExtractor interface {
	Extract(ctx context.Context, img image.Image, docTypeHint string) (*domain.Extraction, error)
	// ClassifyContent inspects recognized text for content that clearly
	// indicates a document type; ok is false when nothing matches.
	ClassifyContent(text string) (code string, ok bool)
}

// SlotLimiter bounds how many scans may be processing simultaneously.
type SlotLimiter interface {
	Acquire(ctx context.Context) error
	Release()
}

// ProcessMonitor receives per-page processing notifications. A nil monitor
// disables reporting.
type ProcessMonitor interface {
	PageExtracted(documentType string)
}
