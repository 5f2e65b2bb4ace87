package imports

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// maxPromptChars bounds how much receipt text is sent to the remote
// extractor.
const maxPromptChars = 3000

const geminiCallTimeout = 30 * time.Second

// identifyItemsPrompt asks for a structured product list, excluding
// order bookkeeping lines.
const identifyItemsPrompt = `Extract ALL products from this order receipt that are clothing, shoes, accessories, or beauty/makeup.
Return a JSON array of objects with fields: name, price, brand, color, size, category, image, productUrl.
- name: exact product name
- price: number
- brand: brand if present
- color: simple color if present
- size: size token (e.g., L/XL, S, M)
- category: one of top, bottom, dress, shoe, outerwear, accessory, legging, face, eye, lip, cheek, tool, other
- image: direct image URL if known
- productUrl: product page URL if known
Only include real products (no shipping/tax/totals).
Do not use markdown code blocks.

Receipt text:
`

// ImageResult is the outcome of a product image lookup.
type ImageResult struct {
	Image      string
	ProductURL string
}

// Gemini performs AI-assisted extraction via Google Gemini. The
// underlying client is dialed once, on first use; concurrent callers
// during the first call share the same initialization.
type Gemini struct {
	modelName string
	connect   func() (*genai.Client, error)
}

// NewGemini creates a Gemini extractor. The API key is required; the
// caller decides what "no key" means (typically: cannot escalate).
func NewGemini(apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	g := &Gemini{modelName: modelName}
	g.connect = sync.OnceValues(func() (*genai.Client, error) {
		client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return client, nil
	})
	return g, nil
}

// IdentifyItems asks the model for a structured product list from raw
// receipt text. An unrecognized response shape yields zero items, not
// an error.
func (g *Gemini) IdentifyItems(ctx context.Context, receiptText string) ([]Item, error) {
	if len(receiptText) > maxPromptChars {
		receiptText = receiptText[:maxPromptChars]
	}
	text, err := g.generate(ctx, genai.Text(identifyItemsPrompt+receiptText))
	if err != nil {
		return nil, err
	}
	return convertAIItems(decodeItemsPayload([]byte(text))), nil
}

// IdentifyItemsFromImage is the vision path for scanned receipts and
// photos with no extractable text.
func (g *Gemini) IdentifyItemsFromImage(ctx context.Context, pngData []byte) ([]Item, error) {
	text, err := g.generate(ctx, genai.ImageData("png", pngData), genai.Text(identifyItemsPrompt+"(see attached image)"))
	if err != nil {
		return nil, err
	}
	return convertAIItems(decodeItemsPayload([]byte(text))), nil
}

// LookupImage asks the model for a best-guess product image URL.
func (g *Gemini) LookupImage(ctx context.Context, productName string) (ImageResult, error) {
	prompt := fmt.Sprintf(`Find this product online and return JSON with just the image URL: %q. Return only: {"image": "https://...", "productUrl": "https://..."}. If not found, return {"image": null}`, productName)
	text, err := g.generate(ctx, genai.Text(prompt))
	if err != nil {
		return ImageResult{}, err
	}

	var payload struct {
		Image           string `json:"image"`
		ProductURL      string `json:"productUrl"`
		URL             string `json:"url"`
		Recommendations []struct {
			Image      string `json:"image"`
			ProductURL string `json:"productUrl"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return ImageResult{}, fmt.Errorf("unmarshaling image lookup response: %w", err)
	}

	result := ImageResult{Image: payload.Image, ProductURL: payload.ProductURL}
	if result.ProductURL == "" {
		result.ProductURL = payload.URL
	}
	if result.Image == "" && len(payload.Recommendations) > 0 {
		result.Image = payload.Recommendations[0].Image
		if result.ProductURL == "" {
			result.ProductURL = payload.Recommendations[0].ProductURL
		}
	}
	return result, nil
}

// Close closes the underlying client if it was ever dialed.
func (g *Gemini) Close() error {
	client, err := g.connect()
	if err != nil {
		return nil
	}
	return client.Close()
}

// generate runs one model call and returns the concatenated text parts
// with markdown fences stripped.
func (g *Gemini) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	client, err := g.connect()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, geminiCallTimeout)
	defer cancel()

	resp, err := client.GenerativeModel(g.modelName).GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}
	return stripMarkdownFences(builder.String()), nil
}

func stripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// aiItem is one product record as the remote model reports it. Field
// names vary between responses, so several aliases are accepted.
type aiItem struct {
	Name       string    `json:"name"`
	Product    string    `json:"product"`
	Title      string    `json:"title"`
	Price      flexFloat `json:"price"`
	Brand      string    `json:"brand"`
	Color      string    `json:"color"`
	Size       string    `json:"size"`
	Category   string    `json:"category"`
	Image      string    `json:"image"`
	ProductURL string    `json:"productUrl"`
}

func (a aiItem) name() string {
	for _, n := range []string{a.Name, a.Product, a.Title} {
		if strings.TrimSpace(n) != "" {
			return strings.TrimSpace(n)
		}
	}
	return ""
}

// flexFloat tolerates prices returned as numbers or quoted strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// decodeItemsPayload extracts a product list from whichever JSON shape
// the model produced: a bare array, an object wrapping one under
// items/products/recommendations, an object keyed by numeric-looking
// string indices, or a single bare object. Anything else decodes to
// zero items rather than an error.
func decodeItemsPayload(data []byte) []aiItem {
	var items []aiItem
	if err := json.Unmarshal(data, &items); err == nil {
		return items
	}

	var wrapper struct {
		Items           []aiItem `json:"items"`
		Products        []aiItem `json:"products"`
		Recommendations []aiItem `json:"recommendations"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil {
		for _, list := range [][]aiItem{wrapper.Items, wrapper.Products, wrapper.Recommendations} {
			if len(list) > 0 {
				return list
			}
		}
	}

	// Responses shaped like {"0": {...}, "1": {...}}.
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(data, &keyed); err == nil {
		var numeric []aiItem
		for key, raw := range keyed {
			if _, err := strconv.Atoi(key); err != nil {
				continue
			}
			var item aiItem
			if err := json.Unmarshal(raw, &item); err == nil {
				numeric = append(numeric, item)
			}
		}
		if len(numeric) > 0 {
			return numeric
		}
	}

	// A single bare object.
	var single aiItem
	if err := json.Unmarshal(data, &single); err == nil && single.name() != "" {
		return []aiItem{single}
	}

	return nil
}

// convertAIItems turns raw model records into classified items.
// Records with no usable name are dropped; a malformed record never
// affects its siblings.
func convertAIItems(raw []aiItem) []Item {
	var items []Item
	for _, ai := range raw {
		name := ai.name()
		if name == "" {
			continue
		}

		price := float64(ai.Price)
		if price == 0 {
			price = 9.99
		}

		item := buildItem(name, price, ImportMeta{Confidence: 0.9, Source: SourceAI})
		item.Category = MapAICategory(ai.Category, name, item.Type)
		if ai.Color != "" {
			item.Color = ai.Color
		}
		if ai.Brand != "" {
			item.Brand = ai.Brand
		}
		if ai.Size != "" {
			item.Notes = "Size: " + ai.Size
		}
		if ai.Image != "" {
			item.Image = NormalizeImageURL(ai.Image)
		}
		if ai.ProductURL != "" {
			item.PurchaseURL = ai.ProductURL
		}
		items = append(items, item)
	}
	return items
}

// buildItem assembles an item from a name and price, inferring type,
// category and attributes from the name.
func buildItem(name string, price float64, meta ImportMeta) Item {
	typ := InferType(name)
	attrs := InferAttributes(name)

	item := Item{
		ID:         uuid.NewString(),
		Name:       name,
		Type:       typ,
		Category:   InferCategory(name, typ),
		Price:      price,
		Quantity:   1,
		Color:      attrs.Color,
		Brand:      attrs.Brand,
		ImportMeta: meta,
		DateAdded:  time.Now(),
	}
	if attrs.Size != "" {
		item.Notes = "Size: " + attrs.Size
	}
	return item
}
