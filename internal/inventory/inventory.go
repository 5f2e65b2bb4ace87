package inventory

import (
	"time"

	"github.com/aveline/wardrobe-import/internal/imports"
)

// ImportStatus tracks an import batch through the review lifecycle.
type ImportStatus string

const (
	StatusPending   ImportStatus = "pending"
	StatusConfirmed ImportStatus = "confirmed"
	StatusDiscarded ImportStatus = "discarded"
)

// ImportBatch records one uploaded document and the candidate items
// extracted from it. Candidates are transient: they become inventory
// items only when the user confirms the batch.
type ImportBatch struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	SourcePath  string         `json:"source_path"`
	ContentType string         `json:"content_type"`
	Status      ImportStatus   `json:"status"`
	Candidates  []imports.Item `json:"candidates"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Item is a confirmed inventory record.
type Item struct {
	imports.Item
	ImportID  string    `json:"import_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
