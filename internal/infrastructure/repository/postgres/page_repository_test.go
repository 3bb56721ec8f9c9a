package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

func TestPageRepositoryUpsertExtraction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewPageRepository(db)
	ext := &domain.PageExtraction{
		ID:         "e-1",
		DocumentID: "d-1",
		PageNumber: 3,
		Confidence: 0.8,
		RawText:    "DELIVERY TICKET",
		Fields: domain.ExtractedFields{
			Kind:   domain.KindTicket,
			Ticket: &domain.TicketFields{OrderID: "1234567"},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("ON CONFLICT \\(document_id, page_number\\) DO UPDATE").
		WithArgs("e-1", "d-1", 3, 0.8, "DELIVERY TICKET", sqlmock.AnyArg(), ext.CreatedAt, ext.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpsertExtraction(context.Background(), ext); err != nil {
		t.Fatalf("UpsertExtraction() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPageRepositoryDeleteForScanRunsInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewPageRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM page_extractions").
		WithArgs("s-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM page_documents").
		WithArgs("s-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectCommit()

	if err := repo.DeleteForScan(context.Background(), "s-1"); err != nil {
		t.Fatalf("DeleteForScan() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPageRepositoryDeleteForScanRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewPageRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM page_extractions").
		WithArgs("s-1").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	if err := repo.DeleteForScan(context.Background(), "s-1"); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPageRepositoryCreateDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewPageRepository(db)
	now := time.Now().UTC()
	doc := &domain.PageDocument{
		ID:           "d-1",
		ScanID:       "s-1",
		PageNumber:   1,
		DocumentType: "FINSALES",
		Coversheet:   true,
		Status:       domain.PagePending,
		Reference:    "STORE07-s-1-P001",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec("INSERT INTO page_documents").
		WithArgs("d-1", "s-1", 1, "FINSALES", true, string(domain.PagePending), "STORE07-s-1-P001", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
