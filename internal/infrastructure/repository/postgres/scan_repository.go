package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/avolkovs/paperflow/internal/core/domain"
)

type ScanRepository struct {
	db *sql.DB
}

func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ScanRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	location TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	page_count INTEGER NOT NULL DEFAULT 0,
	batch_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at DESC);

CREATE TABLE IF NOT EXISTS page_documents (
	id TEXT PRIMARY KEY,
	scan_id TEXT NOT NULL REFERENCES scans(id),
	page_number INTEGER NOT NULL,
	document_type TEXT NOT NULL DEFAULT '',
	coversheet BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL,
	reference TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (scan_id, page_number)
);

CREATE TABLE IF NOT EXISTS page_extractions (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES page_documents(id),
	page_number INTEGER NOT NULL,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	raw_text TEXT NOT NULL DEFAULT '',
	fields JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (document_id, page_number)
);

CREATE TABLE IF NOT EXISTS batch_types (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS document_types (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

INSERT INTO batch_types (code, name) VALUES
	('FINSALES', 'Financed sales'),
	('CASHSALES', 'Cash sales'),
	('SERVICE', 'Service paperwork'),
	('DAILYCLOSE', 'Daily close'),
	('RETURNS', 'Returns and exchanges')
ON CONFLICT (code) DO NOTHING;

INSERT INTO document_types (code, name) VALUES
	('TICKET', 'Delivery or pickup ticket'),
	('RECEIPT', 'Transaction receipt'),
	('MANIFEST', 'Delivery manifest'),
	('CDR', 'Cash drawer report'),
	('SALEDETAIL', 'Sale detail page'),
	('FINANCE', 'Financing agreement')
ON CONFLICT (code) DO NOTHING;
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ScanRepository) Create(ctx context.Context, scan *domain.Scan) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO scans (
	id, location, content_hash, storage_path, page_count, batch_type, status, error_message, created_at, processed_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		scan.ID, scan.Location, scan.ContentHash, scan.StoragePath, scan.PageCount, scan.BatchType,
		string(scan.Status), scan.Error, scan.CreatedAt, scan.ProcessedAt, scan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

func (r *ScanRepository) GetByID(ctx context.Context, id string) (*domain.Scan, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, location, content_hash, storage_path, page_count, batch_type, status, error_message, created_at, processed_at, updated_at
FROM scans
WHERE id = $1
`, id)

	scan, err := scanScanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get scan %s: %w", id, domain.ErrScanNotFound)
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return &scan, nil
}

func (r *ScanRepository) ListByStatus(ctx context.Context, status domain.ScanStatus) ([]domain.Scan, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, location, content_hash, storage_path, page_count, batch_type, status, error_message, created_at, processed_at, updated_at
FROM scans
WHERE status = $1
ORDER BY created_at ASC
`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Scan, 0)
	for rows.Next() {
		scan, err := scanScanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return out, nil
}

// BeginProcessing claims the scan for a worker. Only pending and failed
// scans may start; a scan already mid-run is left untouched and reported as
// ErrAlreadyProcessing, and a completed scan is never re-run (duplicate job
// deliveries land here).
func (r *ScanRepository) BeginProcessing(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE scans
SET status = $2, error_message = '', updated_at = $3
WHERE id = $1 AND status IN ('pending', 'failed')
`, id, string(domain.ScanProcessing), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("begin processing: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("begin processing rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM scans WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("begin processing %s: %w", id, domain.ErrScanNotFound)
	}
	if err != nil {
		return fmt.Errorf("begin processing status check: %w", err)
	}
	if status == string(domain.ScanProcessing) {
		return fmt.Errorf("begin processing %s: %w", id, domain.ErrAlreadyProcessing)
	}
	return fmt.Errorf("begin processing %s: scan is %s and cannot start", id, status)
}

func (r *ScanRepository) RecordClassification(ctx context.Context, id string, batchType string, pageCount int) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE scans
SET batch_type = $2, page_count = $3, updated_at = $4
WHERE id = $1
`, id, batchType, pageCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record classification: %w", err)
	}
	return nil
}

func (r *ScanRepository) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
UPDATE scans
SET status = $2, processed_at = $3, updated_at = $3
WHERE id = $1
`, id, string(domain.ScanCompleted), now)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

func (r *ScanRepository) MarkFailed(ctx context.Context, id string, errMessage string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE scans
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(domain.ScanFailed), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

func (r *ScanRepository) ResetForReprocess(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE scans
SET status = $2, batch_type = '', error_message = '', processed_at = NULL, updated_at = $3
WHERE id = $1
`, id, string(domain.ScanPending), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reset scan: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScanRow(row rowScanner) (domain.Scan, error) {
	var scan domain.Scan
	var status string
	err := row.Scan(
		&scan.ID,
		&scan.Location,
		&scan.ContentHash,
		&scan.StoragePath,
		&scan.PageCount,
		&scan.BatchType,
		&status,
		&scan.Error,
		&scan.CreatedAt,
		&scan.ProcessedAt,
		&scan.UpdatedAt,
	)
	if err != nil {
		return domain.Scan{}, err
	}
	scan.Status = domain.ScanStatus(status)
	return scan, nil
}
