package imports

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Column names from the order-history export format.
const (
	colTitle     = "Title"
	colOrderDate = "Order Date"
	colOrderID   = "Order ID"
	colItemTotal = "Item Total"
	colQuantity  = "Quantity"
	colSeller    = "Seller"
)

var nonPriceChars = regexp.MustCompile(`[^0-9.]`)

// csvDateFormats covers the date renderings seen in order exports.
var csvDateFormats = []string{"01/02/06", "01/02/2006", "2006-01-02"}

// ParseOrderCSV reads an order-history CSV export and returns candidate
// items. Rows that match neither the clothing nor the makeup vocabulary
// are skipped unless generically tagged as fashion or beauty, to keep
// household noise out of the review list.
func ParseOrderCSV(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colTitle]; !ok {
		return nil, fmt.Errorf("csv has no %q column", colTitle)
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var items []Item
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// One malformed row should not sink the import.
			continue
		}

		title := field(row, colTitle)
		orderDate := field(row, colOrderDate)
		if title == "" || orderDate == "" {
			continue
		}

		typ := InferType(title)
		category := InferCategory(title, typ)
		confidence := 0.9
		if typ == TypeMakeup {
			confidence = 0.95
		} else if category == CategoryOther {
			// Nothing matched; keep only rows with a generic hint.
			lower := strings.ToLower(title)
			if !strings.Contains(lower, "fashion") && !strings.Contains(lower, "beauty") {
				continue
			}
			confidence = 0.5
		}

		price, _ := strconv.ParseFloat(nonPriceChars.ReplaceAllString(field(row, colItemTotal), ""), 64)

		quantity := 1
		if q, err := strconv.Atoi(field(row, colQuantity)); err == nil && q > 0 {
			quantity = q
		}

		brand := field(row, colSeller)
		if brand == "" {
			brand = "Amazon"
		}

		dateAdded := time.Now()
		for _, layout := range csvDateFormats {
			if d, err := time.Parse(layout, orderDate); err == nil {
				dateAdded = d
				break
			}
		}

		attrs := InferAttributes(title)
		item := Item{
			ID:         uuid.NewString(),
			Name:       title,
			Type:       typ,
			Category:   category,
			Price:      price,
			Quantity:   quantity,
			Color:      attrs.Color,
			Brand:      brand,
			Notes:      fmt.Sprintf("Imported from order history (Order: %s)", field(row, colOrderID)),
			ImportMeta: ImportMeta{Confidence: confidence, Source: SourceParsed},
			DateAdded:  dateAdded,
		}
		items = append(items, item)
	}
	return items, nil
}
