package ports

import (
	"context"
	"io"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

// ScanRegistrar is the inbound contract for registering new scans.
type ScanRegistrar interface {
	Register(ctx context.Context, location, filename string, body io.Reader) (*domain.Scan, error)
}

// ScanProcessor is the inbound contract for asynchronous scan processing.
type ScanProcessor interface {
	ProcessByID(ctx context.Context, scanID string) error
}

// ScanRecoverer resets crashed or failed scans and resubmits them.
type ScanRecoverer interface {
	RecoverStalled(ctx context.Context) (int, error)
	Reprocess(ctx context.Context, scanID string) error
}
