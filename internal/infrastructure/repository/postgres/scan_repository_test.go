package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

func scanColumns() []string {
	return []string{
		"id", "location", "content_hash", "storage_path", "page_count",
		"batch_type", "status", "error_message", "created_at", "processed_at", "updated_at",
	}
}

func TestScanRepositoryGetByIDMapsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewScanRepository(db)
	mock.ExpectQuery("FROM scans").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(scanColumns()))

	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrScanNotFound) {
		t.Fatalf("expected ErrScanNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestScanRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewScanRepository(db)
	rows := sqlmock.NewRows(scanColumns()).
		AddRow("s-1", "STORE07", "abc123", "s-1_drop.pdf", 12, "FINSALES",
			string(domain.ScanCompleted), "", time.Now(), time.Now(), time.Now())

	mock.ExpectQuery("FROM scans").
		WithArgs("s-1").
		WillReturnRows(rows)

	scan, err := repo.GetByID(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if scan.Status != domain.ScanCompleted || scan.BatchType != "FINSALES" || scan.PageCount != 12 {
		t.Fatalf("unexpected scan: %+v", scan)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestScanRepositoryBeginProcessingClaims(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewScanRepository(db)
	mock.ExpectExec("UPDATE scans").
		WithArgs("s-1", string(domain.ScanProcessing), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.BeginProcessing(context.Background(), "s-1"); err != nil {
		t.Fatalf("BeginProcessing() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestScanRepositoryBeginProcessingAlreadyClaimed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewScanRepository(db)
	mock.ExpectExec("UPDATE scans").
		WithArgs("s-1", string(domain.ScanProcessing), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM scans").
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(domain.ScanProcessing)))

	err = repo.BeginProcessing(context.Background(), "s-1")
	if !errors.Is(err, domain.ErrAlreadyProcessing) {
		t.Fatalf("expected ErrAlreadyProcessing, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestScanRepositoryBeginProcessingRefusesCompletedScan(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewScanRepository(db)
	mock.ExpectExec("UPDATE scans").
		WithArgs("s-1", string(domain.ScanProcessing), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM scans").
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(domain.ScanCompleted)))

	err = repo.BeginProcessing(context.Background(), "s-1")
	if err == nil {
		t.Fatal("expected completed scan to be refused")
	}
	if errors.Is(err, domain.ErrScanNotFound) || errors.Is(err, domain.ErrAlreadyProcessing) {
		t.Fatalf("expected a distinct refusal, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestScanRepositoryBeginProcessingUnknownScan(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewScanRepository(db)
	mock.ExpectExec("UPDATE scans").
		WithArgs("missing", string(domain.ScanProcessing), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM scans").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err = repo.BeginProcessing(context.Background(), "missing")
	if !errors.Is(err, domain.ErrScanNotFound) {
		t.Fatalf("expected ErrScanNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestScanRepositoryResetClearsClassification(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewScanRepository(db)
	mock.ExpectExec("UPDATE scans").
		WithArgs("s-1", string(domain.ScanPending), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ResetForReprocess(context.Background(), "s-1"); err != nil {
		t.Fatalf("ResetForReprocess() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
