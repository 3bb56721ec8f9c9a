package segmenting

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/avolkovs/paperflow/internal/core/domain"
	"github.com/avolkovs/paperflow/internal/core/ports"
)

const defaultFanOut = 4

// barcodeWrapper is the Code 39 start/stop delimiter printed around
// coversheet codes.
const barcodeWrapper = "*"

// Segmenter splits a scan into contiguous sections using coversheet
// barcodes. Barcode reads fan out with bounded parallelism, but results are
// reassembled in page order before any segmentation decision is made: the
// fold itself is strictly sequential and order-sensitive.
type Segmenter struct {
	images   ports.ImageProvider
	barcodes ports.BarcodeReader
	known    map[string]struct{}
	fanOut   int
}

func New(images ports.ImageProvider, barcodes ports.BarcodeReader, knownCodes []string, fanOut int) *Segmenter {
	if fanOut <= 0 {
		fanOut = defaultFanOut
	}
	known := make(map[string]struct{}, len(knownCodes))
	for _, code := range knownCodes {
		known[NormalizeCode(code)] = struct{}{}
	}
	return &Segmenter{
		images:   images,
		barcodes: barcodes,
		known:    known,
		fanOut:   fanOut,
	}
}

type pageRead struct {
	barcode string
	found   bool
}

func (s *Segmenter) Segment(ctx context.Context, scan *domain.Scan) ([]domain.Section, int, error) {
	pageCount, err := s.images.PageCount(ctx, scan)
	if err != nil {
		return nil, 0, fmt.Errorf("decode page count: %w", err)
	}
	if pageCount == 0 {
		return nil, 0, domain.WrapError(domain.ErrEmptyScan, "segment", fmt.Errorf("scan %s decoded to zero pages", scan.ID))
	}

	reads, err := s.prescan(ctx, scan, pageCount)
	if err != nil {
		return nil, 0, err
	}

	return s.fold(reads), pageCount, nil
}

// prescan reads every page's barcode with bounded fan-out, buffering results
// by page index so the fold sees them in order.
func (s *Segmenter) prescan(ctx context.Context, scan *domain.Scan, pageCount int) ([]pageRead, error) {
	reads := make([]pageRead, pageCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOut)
	for i := 0; i < pageCount; i++ {
		g.Go(func() error {
			img, err := s.images.DecodePage(gctx, scan, i+1)
			if err != nil {
				return fmt.Errorf("decode page %d: %w", i+1, err)
			}
			code, found, err := s.barcodes.Decode(gctx, img)
			if err != nil {
				return fmt.Errorf("read barcode on page %d: %w", i+1, err)
			}
			reads[i] = pageRead{barcode: code, found: found}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reads, nil
}

// fold walks the ordered per-page reads carrying (closed sections, open
// section). A known code closes the open section and starts a new one; an
// unknown code or a missing barcode extends it. Page 1 without a barcode
// opens an UNCLASSIFIED section so no page is ever dropped.
func (s *Segmenter) fold(reads []pageRead) []domain.Section {
	var sections []domain.Section
	var open *domain.Section

	for i, read := range reads {
		page := i + 1

		if read.found {
			code := NormalizeCode(read.barcode)
			if _, ok := s.known[code]; ok {
				if open != nil {
					sections = append(sections, *open)
				}
				open = &domain.Section{
					BatchType:  code,
					RawBarcode: read.barcode,
					Pages:      []int{page},
				}
				continue
			}
			// Unknown code: never start a section, never drop the page.
			if open != nil {
				open.Pages = append(open.Pages, page)
				continue
			}
		}

		if open != nil {
			open.Pages = append(open.Pages, page)
			continue
		}
		if page == 1 {
			open = &domain.Section{
				BatchType: domain.BatchTypeUnclassified,
				Pages:     []int{page},
			}
		}
	}

	if open != nil {
		sections = append(sections, *open)
	}
	return sections
}

// NormalizeCode strips the barcode wrapper character from both ends and
// uppercases the remainder.
func NormalizeCode(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, barcodeWrapper)
	trimmed = strings.TrimSuffix(trimmed, barcodeWrapper)
	return strings.ToUpper(trimmed)
}
