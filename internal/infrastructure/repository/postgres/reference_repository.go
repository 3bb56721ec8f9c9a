package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

// ReferenceRepository reads the seeded batch-type and document-type lookup
// tables.
type ReferenceRepository struct {
	db *sql.DB
}

func NewReferenceRepository(db *sql.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) ListBatchTypeCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code FROM batch_types ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list batch types: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan batch type: %w", err)
		}
		out = append(out, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch types: %w", err)
	}
	return out, nil
}

func (r *ReferenceRepository) GetDocumentType(ctx context.Context, code string) (*domain.DocumentType, error) {
	row := r.db.QueryRowContext(ctx, `SELECT code, name FROM document_types WHERE code = $1`, code)

	var dt domain.DocumentType
	if err := row.Scan(&dt.Code, &dt.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document type not found: %s", code)
		}
		return nil, fmt.Errorf("scan document type: %w", err)
	}
	return &dt, nil
}
