package imports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aveline/wardrobe-import/internal/cache"
)

// ErrUnreadableDocument is returned when an uploaded document cannot be
// opened or rendered at all. "No items found" is not an error; that is
// an empty result the caller can message on.
var ErrUnreadableDocument = errors.New("failed to parse receipt: ensure the file is a valid order document")

// AIExtractor escalates extraction to a remote model when local
// heuristics find nothing.
type AIExtractor interface {
	// IdentifyItems extracts a structured product list from raw text.
	IdentifyItems(ctx context.Context, receiptText string) ([]Item, error)
	// IdentifyItemsFromImage extracts products from a rendered page or photo.
	IdentifyItemsFromImage(ctx context.Context, pngData []byte) ([]Item, error)
	// LookupImage returns a best-guess product image for a name.
	LookupImage(ctx context.Context, productName string) (ImageResult, error)
}

// Service converts uploaded order documents into candidate items for
// user review. It persists nothing; confirmed items are handled by the
// inventory layer.
type Service struct {
	ai          AIExtractor
	lookupImage func(context.Context, string) (ImageResult, error)
}

// NewService creates an import service. ai may be nil, in which case
// escalation and image enrichment are skipped. Image lookups are
// memoized through imageCache so repeated imports of the same products
// within the TTL do not re-query the model.
func NewService(ai AIExtractor, imageCache *cache.Cache[ImageResult]) *Service {
	s := &Service{ai: ai}
	if ai != nil {
		if imageCache == nil {
			imageCache = cache.New[ImageResult](cache.Options{})
		}
		s.lookupImage = cache.Memoize(imageCache,
			func(name string) string { return "product-image:" + name },
			ai.LookupImage,
		)
	}
	return s
}

// Import runs the full pipeline for one uploaded document and returns
// candidate items. A valid document with nothing extractable returns an
// empty list.
func (s *Service) Import(ctx context.Context, filename string, data []byte, contentType string) ([]Item, error) {
	switch {
	case isCSV(filename, contentType):
		items, err := ParseOrderCSV(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
		}
		return items, nil

	case contentType == "application/pdf" || strings.EqualFold(filepath.Ext(filename), ".pdf"):
		return s.importPDF(ctx, filename, data)

	default:
		// Photographed paper receipt.
		return s.importPhoto(ctx, filename, data, contentType)
	}
}

func (s *Service) importPDF(ctx context.Context, filename string, data []byte) ([]Item, error) {
	text, err := ExtractPDFText(data)
	if err != nil {
		slog.Error("Failed to open PDF", "filename", filename, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	parsed := ParseReceiptText(text)
	slog.Info("Parsed receipt text", "filename", filename, "items", len(parsed))

	if len(parsed) > 0 {
		items := make([]Item, 0, len(parsed))
		for _, line := range parsed {
			item := buildItem(line.Name, line.Price, ImportMeta{Confidence: 0.7, Source: SourceParsed})
			item.Quantity = line.Quantity
			item.PurchaseURL = line.PurchaseURL
			items = append(items, item)
		}
		return s.enrichImages(ctx, items), nil
	}

	// Heuristics found nothing; escalate.
	if s.ai == nil {
		slog.Warn("No items parsed and no AI extractor configured", "filename", filename)
		return []Item{}, nil
	}

	var aiItems []Item
	if strings.TrimSpace(text) != "" {
		aiItems, err = s.ai.IdentifyItems(ctx, text)
	} else {
		// No text layer at all, likely a scanned receipt. Render page
		// one and use the vision path.
		var page []byte
		page, err = RasterizePDF(data)
		if err != nil {
			slog.Error("Failed to rasterize PDF", "filename", filename, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
		}
		aiItems, err = s.ai.IdentifyItemsFromImage(ctx, page)
	}
	if err != nil {
		// Remote failure contributes nothing; it never aborts the import.
		slog.Warn("AI extraction failed", "filename", filename, "error", err)
		return []Item{}, nil
	}

	slog.Info("AI identified items", "filename", filename, "items", len(aiItems))
	return s.enrichImages(ctx, aiItems), nil
}

func (s *Service) importPhoto(ctx context.Context, filename string, data []byte, contentType string) ([]Item, error) {
	if s.ai == nil {
		return []Item{}, nil
	}

	png, err := PhotoToPNG(data, contentType)
	if err != nil {
		slog.Error("Failed to decode photo", "filename", filename, "content_type", contentType, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	items, err := s.ai.IdentifyItemsFromImage(ctx, png)
	if err != nil {
		slog.Warn("AI extraction failed", "filename", filename, "error", err)
		return []Item{}, nil
	}
	return s.enrichImages(ctx, items), nil
}

// enrichImages attaches a product image to each item where the lookup
// succeeds. A failed lookup leaves that one item without an image and
// never affects its siblings.
func (s *Service) enrichImages(ctx context.Context, items []Item) []Item {
	if s.lookupImage == nil {
		return items
	}
	for i := range items {
		result, err := s.lookupImage(ctx, items[i].Name)
		if err != nil {
			slog.Warn("Image lookup failed", "name", items[i].Name, "error", err)
			continue
		}
		if img := NormalizeImageURL(result.Image); img != "" {
			items[i].Image = img
		}
		if items[i].PurchaseURL == "" && result.ProductURL != "" {
			items[i].PurchaseURL = result.ProductURL
		}
	}
	return items
}

func isCSV(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return true
	}
	return contentType == "text/csv" || contentType == "application/csv"
}
