package imports

import "time"

// ItemType splits the inventory into its two top-level kinds.
type ItemType string

const (
	TypeClothing ItemType = "clothing"
	TypeMakeup   ItemType = "makeup"
)

// Category is a closed sub-category enumeration conditioned on ItemType.
type Category string

const (
	// Clothing categories
	CategoryTop       Category = "top"
	CategoryBottom    Category = "bottom"
	CategoryDress     Category = "dress"
	CategoryShoe      Category = "shoe"
	CategoryOuterwear Category = "outerwear"
	CategoryAccessory Category = "accessory"
	CategoryLegging   Category = "legging"
	CategoryOther     Category = "other"

	// Makeup categories
	CategoryFace  Category = "face"
	CategoryEye   Category = "eye"
	CategoryLip   Category = "lip"
	CategoryCheek Category = "cheek"
	CategoryTool  Category = "tool"
)

// Source records how an item record was produced.
type Source string

const (
	SourceParsed Source = "parsed" // heuristic text extraction
	SourceAI     Source = "ai"     // remote structured extraction
)

// ImportMeta carries provenance for downstream trust decisions, e.g. a
// UI showing AI-derived fields as editable suggestions rather than facts.
type ImportMeta struct {
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// Item is one candidate (or confirmed) inventory record.
type Item struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        ItemType   `json:"type"`
	Category    Category   `json:"category"`
	Price       float64    `json:"price,omitempty"`
	Quantity    int        `json:"quantity"`
	Color       string     `json:"color,omitempty"`
	Brand       string     `json:"brand,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Image       string     `json:"image,omitempty"`
	PurchaseURL string     `json:"purchase_url,omitempty"`
	ImportMeta  ImportMeta `json:"import_meta"`
	DateAdded   time.Time  `json:"date_added"`
}

// ParsedLineItem is one candidate product extracted from raw receipt
// text, before classification and enrichment.
type ParsedLineItem struct {
	Name        string
	Price       float64
	Quantity    int
	PurchaseURL string
}
