package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/avolkovs/paperflow/internal/core/domain"
	"github.com/avolkovs/paperflow/internal/core/ports"
)

// RecoverScansUseCase resets crash survivors and failed scans: page documents
// and extractions are deleted, the scan returns to pending with cleared
// batch-type and error fields, and a fresh job is published. Resubmission is
// rate limited so a large backlog does not stampede the queue.
type RecoverScansUseCase struct {
	scans    ports.ScanRepository
	pages    ports.PageRepository
	queue    ports.MessageQueue
	resubmit *rate.Limiter
	log      *slog.Logger
}

func NewRecoverScansUseCase(
	scans ports.ScanRepository,
	pages ports.PageRepository,
	queue ports.MessageQueue,
	resubmitPerSecond float64,
	log *slog.Logger,
) *RecoverScansUseCase {
	if resubmitPerSecond <= 0 {
		resubmitPerSecond = 10
	}
	return &RecoverScansUseCase{
		scans:    scans,
		pages:    pages,
		queue:    queue,
		resubmit: rate.NewLimiter(rate.Limit(resubmitPerSecond), 1),
		log:      log,
	}
}

// RecoverStalled finds scans stuck in processing (crash survivors) and
// resubmits them. It returns the number of scans recovered.
func (uc *RecoverScansUseCase) RecoverStalled(ctx context.Context) (int, error) {
	stalled, err := uc.scans.ListByStatus(ctx, domain.ScanProcessing)
	if err != nil {
		return 0, fmt.Errorf("list stalled scans: %w", err)
	}

	for i, scan := range stalled {
		if err := uc.reset(ctx, scan.ID); err != nil {
			return i, err
		}
		uc.log.Info("recovered stalled scan", "scan", scan.ID)
	}
	return len(stalled), nil
}

// Reprocess resets a single failed scan on operator request.
func (uc *RecoverScansUseCase) Reprocess(ctx context.Context, scanID string) error {
	scan, err := uc.scans.GetByID(ctx, scanID)
	if err != nil {
		return fmt.Errorf("fetch scan by id: %w", err)
	}
	if scan.Status != domain.ScanFailed {
		return fmt.Errorf("reprocess %s: %w (status=%s)", scanID, domain.ErrReprocessNotAllowed, scan.Status)
	}
	return uc.reset(ctx, scanID)
}

func (uc *RecoverScansUseCase) reset(ctx context.Context, scanID string) error {
	if err := uc.pages.DeleteForScan(ctx, scanID); err != nil {
		return fmt.Errorf("delete page documents: %w", err)
	}
	if err := uc.scans.ResetForReprocess(ctx, scanID); err != nil {
		return fmt.Errorf("reset scan: %w", err)
	}
	if err := uc.resubmit.Wait(ctx); err != nil {
		return fmt.Errorf("wait for resubmit slot: %w", err)
	}
	if err := uc.queue.PublishScanQueued(ctx, scanID); err != nil {
		return fmt.Errorf("publish scan job: %w", err)
	}
	return nil
}
