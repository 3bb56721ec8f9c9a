// Package pageimage renders individual pages of stored scan files as raster
// images via MuPDF.
package pageimage

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/avolkovs/paperflow/internal/core/domain"
	"github.com/avolkovs/paperflow/internal/core/ports"
)

// Provider opens the scan's stored file for each request. Documents are not
// cached across calls; go-fitz handles are not safe to share between
// goroutines.
type Provider struct {
	storage ports.ObjectStorage
}

func NewProvider(storage ports.ObjectStorage) *Provider {
	return &Provider{storage: storage}
}

func (p *Provider) PageCount(ctx context.Context, scan *domain.Scan) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	doc, err := p.open(scan)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// DecodePage renders the given page. Page numbers are 1-based.
func (p *Provider) DecodePage(ctx context.Context, scan *domain.Scan, pageNumber int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := p.open(scan)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if pageNumber < 1 || pageNumber > doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range for scan %s (%d pages)", pageNumber, scan.ID, doc.NumPage())
	}

	img, err := doc.Image(pageNumber - 1)
	if err != nil {
		return nil, fmt.Errorf("render page %d of scan %s: %w", pageNumber, scan.ID, err)
	}
	return img, nil
}

func (p *Provider) open(scan *domain.Scan) (*fitz.Document, error) {
	path := p.storage.Path(scan.StoragePath)
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open scan file %s: %w", path, err)
	}
	return doc, nil
}
