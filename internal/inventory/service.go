package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aveline/wardrobe-import/internal/imports"
)

// Importer converts an uploaded document into candidate items.
type Importer interface {
	Import(ctx context.Context, filename string, data []byte, contentType string) ([]imports.Item, error)
}

// IDGenerator generates unique IDs for batches and items
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles import batches and confirmed inventory items
type Service struct {
	db          DB
	importer    Importer
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, importer Importer, storage Storage) *Service {
	return &Service{
		db:          db,
		importer:    importer,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, importer Importer, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		importer:    importer,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	filenameNoise  = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpaces = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters
// and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = filenameNoise.ReplaceAllString(base, "")
	base = filenameSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "upload"
	}

	return base + ext
}

// ProcessUpload stores an uploaded document, runs the extraction
// pipeline, and records the resulting candidates as a pending batch.
func (s *Service) ProcessUpload(ctx context.Context, filename string, data []byte, contentType string) (*ImportBatch, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	candidates, err := s.importer.Import(ctx, filename, data, contentType)
	if err != nil {
		slog.Error("Failed to extract items from upload",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since extraction failed
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("extracting items: %w", err)
	}

	batch := &ImportBatch{
		ID:          id,
		Filename:    filename,
		SourcePath:  savedPath,
		ContentType: contentType,
		Status:      StatusPending,
		Candidates:  candidates,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveImport(batch); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving import batch: %w", err)
	}

	return batch, nil
}

// ConfirmImport persists the chosen candidates of a pending batch as
// inventory items. An empty keepIDs confirms every candidate.
func (s *Service) ConfirmImport(id string, keepIDs []string) ([]*Item, error) {
	batch, err := s.db.GetImport(id)
	if err != nil {
		return nil, fmt.Errorf("getting import batch: %w", err)
	}
	if batch.Status != StatusPending {
		return nil, fmt.Errorf("import %s is already %s", id, batch.Status)
	}

	keep := make(map[string]bool, len(keepIDs))
	for _, itemID := range keepIDs {
		keep[itemID] = true
	}

	now := s.timeSource.Now()
	items := make([]*Item, 0, len(batch.Candidates))
	for _, candidate := range batch.Candidates {
		if len(keepIDs) > 0 && !keep[candidate.ID] {
			continue
		}
		item := &Item{
			Item:      candidate,
			ImportID:  batch.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.db.SaveItem(item); err != nil {
			return nil, fmt.Errorf("saving item %s: %w", candidate.ID, err)
		}
		items = append(items, item)
	}

	batch.Status = StatusConfirmed
	batch.UpdatedAt = now
	if err := s.db.SaveImport(batch); err != nil {
		return nil, fmt.Errorf("updating import batch: %w", err)
	}

	return items, nil
}

// DiscardImport marks a pending batch discarded and removes its stored
// source document.
func (s *Service) DiscardImport(id string) error {
	batch, err := s.db.GetImport(id)
	if err != nil {
		return fmt.Errorf("getting import batch: %w", err)
	}

	if err := s.storage.Delete(batch.SourcePath); err != nil {
		// Log but continue; the batch state matters more than the file
		slog.Warn("Failed to delete source document", "path", batch.SourcePath, "error", err)
	}

	batch.Status = StatusDiscarded
	batch.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveImport(batch); err != nil {
		return fmt.Errorf("updating import batch: %w", err)
	}
	return nil
}

// GetImport retrieves an import batch by ID
func (s *Service) GetImport(id string) (*ImportBatch, error) {
	batch, err := s.db.GetImport(id)
	if err != nil {
		return nil, fmt.Errorf("getting import batch: %w", err)
	}
	return batch, nil
}

// ListImports returns all import batches
func (s *Service) ListImports() ([]*ImportBatch, error) {
	batches, err := s.db.ListImports()
	if err != nil {
		return nil, fmt.Errorf("listing import batches: %w", err)
	}
	return batches, nil
}

// GetImportFile retrieves the stored source document for a batch
func (s *Service) GetImportFile(id string) ([]byte, string, error) {
	batch, err := s.db.GetImport(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting import batch: %w", err)
	}

	data, err := s.storage.Get(batch.SourcePath)
	if err != nil {
		return nil, "", fmt.Errorf("getting source document: %w", err)
	}

	return data, batch.ContentType, nil
}

// GetItem retrieves an item by ID
func (s *Service) GetItem(id string) (*Item, error) {
	item, err := s.db.GetItem(id)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all confirmed items
func (s *Service) ListItems() ([]*Item, error) {
	items, err := s.db.ListItems()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// DeleteItem removes an item
func (s *Service) DeleteItem(id string) error {
	if _, err := s.db.GetItem(id); err != nil {
		return fmt.Errorf("getting item for deletion: %w", err)
	}
	if err := s.db.DeleteItem(id); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}
