package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

func TestRecoverStalledResetsAndResubmits(t *testing.T) {
	scans := newFakeScanRepo(
		&domain.Scan{ID: "scan-a", Status: domain.ScanProcessing},
		&domain.Scan{ID: "scan-b", Status: domain.ScanProcessing},
		&domain.Scan{ID: "scan-c", Status: domain.ScanCompleted},
	)
	pages := newFakePageRepo()
	queue := &fakeQueue{}

	uc := NewRecoverScansUseCase(scans, pages, queue, 1000, testLogger())
	count, err := uc.RecoverStalled(context.Background())
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 recovered, got %d", count)
	}
	if len(pages.deleted) != 2 {
		t.Fatalf("expected 2 page cleanups, got %v", pages.deleted)
	}
	if len(scans.resets) != 2 {
		t.Fatalf("expected 2 scan resets, got %v", scans.resets)
	}
	if len(queue.published) != 2 {
		t.Fatalf("expected 2 resubmissions, got %v", queue.published)
	}
}

func TestRecoverStalledNothingToDo(t *testing.T) {
	scans := newFakeScanRepo(
		&domain.Scan{ID: "scan-a", Status: domain.ScanCompleted},
	)
	queue := &fakeQueue{}

	uc := NewRecoverScansUseCase(scans, newFakePageRepo(), queue, 1000, testLogger())
	count, err := uc.RecoverStalled(context.Background())
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if count != 0 || len(queue.published) != 0 {
		t.Fatalf("expected no-op, got count=%d published=%v", count, queue.published)
	}
}

func TestReprocessFailedScan(t *testing.T) {
	scans := newFakeScanRepo(&domain.Scan{ID: "scan-a", Status: domain.ScanFailed})
	pages := newFakePageRepo()
	queue := &fakeQueue{}

	uc := NewRecoverScansUseCase(scans, pages, queue, 1000, testLogger())
	if err := uc.Reprocess(context.Background(), "scan-a"); err != nil {
		t.Fatalf("reprocess: %v", err)
	}
	if len(pages.deleted) != 1 || pages.deleted[0] != "scan-a" {
		t.Fatalf("expected page cleanup for scan-a, got %v", pages.deleted)
	}
	if len(scans.resets) != 1 {
		t.Fatalf("expected one reset, got %v", scans.resets)
	}
	if len(queue.published) != 1 || queue.published[0] != "scan-a" {
		t.Fatalf("expected resubmission, got %v", queue.published)
	}
}

func TestReprocessRejectsNonFailedScan(t *testing.T) {
	scans := newFakeScanRepo(&domain.Scan{ID: "scan-a", Status: domain.ScanCompleted})
	pages := newFakePageRepo()
	queue := &fakeQueue{}

	uc := NewRecoverScansUseCase(scans, pages, queue, 1000, testLogger())
	err := uc.Reprocess(context.Background(), "scan-a")
	if !errors.Is(err, domain.ErrReprocessNotAllowed) {
		t.Fatalf("expected ErrReprocessNotAllowed, got %v", err)
	}
	if len(pages.deleted) != 0 || len(queue.published) != 0 {
		t.Fatal("expected scan left untouched")
	}
}

func TestReprocessUnknownScan(t *testing.T) {
	uc := NewRecoverScansUseCase(newFakeScanRepo(), newFakePageRepo(), &fakeQueue{}, 1000, testLogger())
	err := uc.Reprocess(context.Background(), "missing")
	if !errors.Is(err, domain.ErrScanNotFound) {
		t.Fatalf("expected ErrScanNotFound, got %v", err)
	}
}
