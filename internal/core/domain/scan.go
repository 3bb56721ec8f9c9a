package domain

import "time"

type ScanStatus string

const (
	ScanPending    ScanStatus = "pending"
	ScanProcessing ScanStatus = "processing"
	ScanCompleted  ScanStatus = "completed"
	ScanFailed     ScanStatus = "failed"
)

// BatchTypeUnclassified tags sections whose first page carried no readable
// coversheet barcode.
const BatchTypeUnclassified = "UNCLASSIFIED"

// Scan is one uploaded multi-page image of a store's paperwork drop.
// PageCount is set once, from the decoded page count of the source file,
// and never changes afterwards.
type Scan struct {
	ID          string     `json:"id"`
	Location    string     `json:"location"`
	ContentHash string     `json:"content_hash"`
	StoragePath string     `json:"storage_path"`
	PageCount   int        `json:"page_count"`
	BatchType   string     `json:"batch_type,omitempty"`
	Status      ScanStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Section is a contiguous run of pages sharing one coversheet-declared
// batch-type code. Sections only exist during a processing run; they are
// never persisted.
type Section struct {
	BatchType  string
	RawBarcode string
	Pages      []int
}

type PageStatus string

const (
	PagePending   PageStatus = "pending"
	PageCompleted PageStatus = "completed"
)

// PageDocument is the per-page record created while processing a section.
type PageDocument struct {
	ID           string     `json:"id"`
	ScanID       string     `json:"scan_id"`
	PageNumber   int        `json:"page_number"`
	DocumentType string     `json:"document_type,omitempty"`
	Coversheet   bool       `json:"coversheet"`
	Status       PageStatus `json:"status"`
	Reference    string     `json:"reference"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PageExtraction is the parsed payload for one page document. At most one
// exists per (document, page); later writes replace earlier ones.
type PageExtraction struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	PageNumber int             `json:"page_number"`
	Confidence float64         `json:"confidence"`
	RawText    string          `json:"raw_text"`
	Fields     ExtractedFields `json:"fields"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DocumentType classifies the content of a page after extraction, independent
// of the batch-type code on the section's coversheet.
type DocumentType struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
