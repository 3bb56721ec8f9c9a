package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

type PageRepository struct {
	db *sql.DB
}

func NewPageRepository(db *sql.DB) *PageRepository {
	return &PageRepository{db: db}
}

func (r *PageRepository) CreateDocument(ctx context.Context, doc *domain.PageDocument) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO page_documents (
	id, scan_id, page_number, document_type, coversheet, status, reference, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		doc.ID, doc.ScanID, doc.PageNumber, doc.DocumentType, doc.Coversheet,
		string(doc.Status), doc.Reference, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert page document: %w", err)
	}
	return nil
}

func (r *PageRepository) MarkDocumentCompleted(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE page_documents
SET status = $2, updated_at = $3
WHERE id = $1
`, documentID, string(domain.PageCompleted), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark page document completed: %w", err)
	}
	return nil
}

func (r *PageRepository) UpdateDocumentType(ctx context.Context, documentID string, docType string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE page_documents
SET document_type = $2, updated_at = $3
WHERE id = $1
`, documentID, docType, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document type: %w", err)
	}
	return nil
}

// UpsertExtraction replaces any earlier extraction for the same
// (document, page) pair; reprocessing a page must not accumulate rows.
func (r *PageRepository) UpsertExtraction(ctx context.Context, ext *domain.PageExtraction) error {
	fieldsJSON, err := json.Marshal(ext.Fields)
	if err != nil {
		return fmt.Errorf("marshal extraction fields: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO page_extractions (
	id, document_id, page_number, confidence, raw_text, fields, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (document_id, page_number) DO UPDATE
SET confidence = EXCLUDED.confidence,
	raw_text = EXCLUDED.raw_text,
	fields = EXCLUDED.fields,
	updated_at = EXCLUDED.updated_at
`,
		ext.ID, ext.DocumentID, ext.PageNumber, ext.Confidence, ext.RawText, fieldsJSON,
		ext.CreatedAt, ext.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert extraction: %w", err)
	}
	return nil
}

// DeleteForScan removes a scan's extraction rows and page documents in one
// transaction, in dependency order.
func (r *PageRepository) DeleteForScan(ctx context.Context, scanID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM page_extractions
WHERE document_id IN (SELECT id FROM page_documents WHERE scan_id = $1)
`, scanID); err != nil {
		return fmt.Errorf("delete extractions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM page_documents WHERE scan_id = $1`, scanID); err != nil {
		return fmt.Errorf("delete page documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tx: %w", err)
	}
	return nil
}
