package usecase

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avolkovs/paperflow/internal/core/domain"
	"github.com/avolkovs/paperflow/internal/core/ports"
)

// ProcessScanUseCase drives one scan through segmentation, per-page
// extraction and persistence. It exclusively owns the scan's status
// lifecycle.
type ProcessScanUseCase struct {
	scans      ports.ScanRepository
	pages      ports.PageRepository
	images     ports.ImageProvider
	segmenter  ports.Segmenter
	normalizer ports.ImageNormalizer
	extractor  ports.FieldExtractor
	reference  ports.ReferenceStore
	monitor    ports.ProcessMonitor
	log        *slog.Logger
}

func NewProcessScanUseCase(
	scans ports.ScanRepository,
	pages ports.PageRepository,
	images ports.ImageProvider,
	segmenter ports.Segmenter,
	normalizer ports.ImageNormalizer,
	extractor ports.FieldExtractor,
	reference ports.ReferenceStore,
	monitor ports.ProcessMonitor,
	log *slog.Logger,
) *ProcessScanUseCase {
	return &ProcessScanUseCase{
		scans:      scans,
		pages:      pages,
		images:     images,
		segmenter:  segmenter,
		normalizer: normalizer,
		extractor:  extractor,
		reference:  reference,
		monitor:    monitor,
		log:        log,
	}
}

// ProcessByID runs the scan to completion or failure. A scan already in
// processing fails fast with domain.ErrAlreadyProcessing and is left
// untouched. Scan-level errors are stored on the row and re-raised; the
// caller owns logging and alerting.
func (uc *ProcessScanUseCase) ProcessByID(ctx context.Context, scanID string) error {
	scan, err := uc.scans.GetByID(ctx, scanID)
	if err != nil {
		return fmt.Errorf("fetch scan by id: %w", err)
	}

	if err := uc.scans.BeginProcessing(ctx, scanID); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.run(ctx, scan); err != nil {
		if failErr := uc.scans.MarkFailed(ctx, scanID, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.scans.MarkCompleted(ctx, scanID); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}
	return nil
}

func (uc *ProcessScanUseCase) run(ctx context.Context, scan *domain.Scan) error {
	sections, pageCount, err := uc.segmenter.Segment(ctx, scan)
	if err != nil {
		return fmt.Errorf("segment scan: %w", err)
	}

	if len(sections) == 0 {
		// Degenerate image: record the true page count and finish with no
		// documents.
		if err := uc.scans.RecordClassification(ctx, scan.ID, "", pageCount); err != nil {
			return fmt.Errorf("record page count: %w", err)
		}
		return nil
	}

	if err := uc.scans.RecordClassification(ctx, scan.ID, sections[0].BatchType, pageCount); err != nil {
		return fmt.Errorf("record classification: %w", err)
	}

	for _, section := range sections {
		if err := uc.processSection(ctx, scan, section); err != nil {
			return err
		}
	}
	return nil
}

func (uc *ProcessScanUseCase) processSection(ctx context.Context, scan *domain.Scan, section domain.Section) error {
	for i, pageNumber := range section.Pages {
		// An UNCLASSIFIED section has no real coversheet; every page is
		// ordinary content.
		coversheet := i == 0 && section.BatchType != domain.BatchTypeUnclassified

		doc, err := uc.createDocument(ctx, scan, section, pageNumber, coversheet)
		if err != nil {
			return err
		}

		if coversheet {
			if err := uc.persistCoversheet(ctx, doc, section); err != nil {
				return err
			}
		} else {
			if err := uc.extractPage(ctx, scan, section, doc); err != nil {
				return err
			}
		}

		if err := uc.pages.MarkDocumentCompleted(ctx, doc.ID); err != nil {
			return fmt.Errorf("complete page document %d: %w", pageNumber, err)
		}
	}
	return nil
}

func (uc *ProcessScanUseCase) createDocument(
	ctx context.Context,
	scan *domain.Scan,
	section domain.Section,
	pageNumber int,
	coversheet bool,
) (*domain.PageDocument, error) {
	now := time.Now().UTC()
	doc := &domain.PageDocument{
		ID:         uuid.NewString(),
		ScanID:     scan.ID,
		PageNumber: pageNumber,
		Coversheet: coversheet,
		Status:     domain.PagePending,
		Reference:  referenceCode(scan, pageNumber),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if coversheet {
		doc.DocumentType = section.BatchType
	}
	if err := uc.pages.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create page document %d: %w", pageNumber, err)
	}
	return doc, nil
}

func (uc *ProcessScanUseCase) persistCoversheet(ctx context.Context, doc *domain.PageDocument, section domain.Section) error {
	now := time.Now().UTC()
	ext := &domain.PageExtraction{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		PageNumber: doc.PageNumber,
		Confidence: 1.0,
		Fields: domain.ExtractedFields{
			Kind:       domain.KindCoversheet,
			Coversheet: &domain.CoversheetFields{DocumentType: section.BatchType},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.pages.UpsertExtraction(ctx, ext); err != nil {
		return fmt.Errorf("persist coversheet extraction: %w", err)
	}
	return nil
}

// extractPage is best-effort at the page level: decode and recognition
// problems are logged and absorbed, losing at most this page. Persistence
// errors still abort the scan.
func (uc *ProcessScanUseCase) extractPage(ctx context.Context, scan *domain.Scan, section domain.Section, doc *domain.PageDocument) error {
	img, err := uc.decodePage(ctx, scan, doc.PageNumber)
	if err != nil {
		uc.log.Warn("page decode failed", "scan", scan.ID, "page", doc.PageNumber, "error", err)
		return nil
	}

	extraction, err := uc.extractor.Extract(ctx, img, section.BatchType)
	if err != nil {
		uc.log.Warn("page extraction failed", "scan", scan.ID, "page", doc.PageNumber, "error", err)
		return nil
	}

	now := time.Now().UTC()
	record := &domain.PageExtraction{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		PageNumber: doc.PageNumber,
		Confidence: extraction.Confidence,
		RawText:    extraction.RawText,
		Fields:     extraction.Fields,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.pages.UpsertExtraction(ctx, record); err != nil {
		return fmt.Errorf("persist page extraction %d: %w", doc.PageNumber, err)
	}

	docType := documentTypeForKind(extraction.Fields.Kind)
	if code, ok := uc.extractor.ClassifyContent(extraction.RawText); ok {
		// Content evidence beats the coversheet's claim; last write wins.
		// Codes outside the document_types reference table are ignored.
		if _, refErr := uc.reference.GetDocumentType(ctx, code); refErr != nil {
			uc.log.Warn("unknown content document type", "scan", scan.ID, "page", doc.PageNumber, "code", code)
		} else {
			docType = code
		}
	}
	if docType != "" && docType != doc.DocumentType {
		if err := uc.pages.UpdateDocumentType(ctx, doc.ID, docType); err != nil {
			return fmt.Errorf("update document type %d: %w", doc.PageNumber, err)
		}
	}
	if uc.monitor != nil {
		uc.monitor.PageExtracted(docType)
	}
	return nil
}

func (uc *ProcessScanUseCase) decodePage(ctx context.Context, scan *domain.Scan, pageNumber int) (image.Image, error) {
	img, err := uc.images.DecodePage(ctx, scan, pageNumber)
	if err != nil {
		return nil, err
	}
	return uc.normalizer.Correct(ctx, img), nil
}

func documentTypeForKind(kind domain.FieldKind) string {
	switch kind {
	case domain.KindTicket:
		return "TICKET"
	case domain.KindReceipt:
		return "RECEIPT"
	case domain.KindSummary:
		return "MANIFEST"
	case domain.KindCDRReport:
		return "CDR"
	case domain.KindDetail:
		return "SALEDETAIL"
	default:
		return ""
	}
}

func referenceCode(scan *domain.Scan, pageNumber int) string {
	prefix := scan.ID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s-%s-P%03d", scan.Location, prefix, pageNumber)
}
