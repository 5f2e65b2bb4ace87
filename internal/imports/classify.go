package imports

import (
	"regexp"
	"strings"
)

// makeupKeywords decide the top-level type. Anything not matching is
// treated as clothing.
var makeupKeywords = []string{
	"makeup", "cosmetic", "lipstick", "mascara", "eyeshadow", "foundation",
	"blush", "powder", "concealer", "primer", "highlighter", "bronzer",
	"nail polish", "eyeliner", "lip gloss", "lip balm",
	"skincare", "moisturizer", "serum", "cleanser", "toner",
	"perfume", "fragrance", "cologne",
	"brush set", "makeup brush", "beauty blender", "sponge",
}

// categoryRule maps name keywords to a category. Rules are evaluated
// in order, first match wins.
type categoryRule struct {
	keywords []string
	category Category
}

var makeupRules = []categoryRule{
	{[]string{"lipstick", "lip gloss", "lip"}, CategoryLip},
	{[]string{"eyeshadow", "mascara", "eyeliner"}, CategoryEye},
	{[]string{"foundation", "concealer", "powder"}, CategoryFace},
	{[]string{"blush", "bronzer", "highlighter"}, CategoryCheek},
	{[]string{"brush", "sponge", "applicator"}, CategoryTool},
}

var clothingRules = []categoryRule{
	{[]string{"dress"}, CategoryDress},
	{[]string{"skirt", "bottom", "pants", "jeans"}, CategoryBottom},
	{[]string{"top", "blouse", "shirt"}, CategoryTop},
	{[]string{"shoe", "heel", "boot", "sandal"}, CategoryShoe},
	{[]string{"jacket", "coat", "sweater"}, CategoryOuterwear},
	{[]string{"legging", "tights", "stockings"}, CategoryLegging},
	{[]string{"accessories", "jewelry", "necklace", "bracelet", "earring"}, CategoryAccessory},
}

// colorPalette is matched by substring against the lowercased name.
var colorPalette = []string{
	"black", "white", "red", "blue", "green", "yellow", "pink", "purple",
	"brown", "beige", "gray", "grey", "nude", "ivory", "orange",
}

var sizePattern = regexp.MustCompile(`(?i)\b(XXL|XL|L/XL|L|M|S|XS|XXS|\d+[ -]?pack|\d+T|\d+W|\d+H)\b`)

// InferType classifies a name as makeup or clothing by keyword
// membership; clothing is the default.
func InferType(name string) ItemType {
	if containsAnyFold(name, makeupKeywords) {
		return TypeMakeup
	}
	return TypeClothing
}

// InferCategory resolves the sub-category for a name within its type.
// Names matching no rule fall back to face for makeup and other for
// clothing.
func InferCategory(name string, typ ItemType) Category {
	rules, fallback := clothingRules, CategoryOther
	if typ == TypeMakeup {
		rules, fallback = makeupRules, CategoryFace
	}
	for _, rule := range rules {
		if containsAnyFold(name, rule.keywords) {
			return rule.category
		}
	}
	return fallback
}

// Attributes are best-effort fields pulled out of a product name.
type Attributes struct {
	Color string
	Size  string
	Brand string
}

// InferAttributes extracts color, size and brand from a name. Brand
// falls back to the first token when nothing better is available.
func InferAttributes(name string) Attributes {
	var attrs Attributes

	lower := strings.ToLower(name)
	for _, color := range colorPalette {
		if strings.Contains(lower, color) {
			attrs.Color = color
			break
		}
	}

	if m := sizePattern.FindStringSubmatch(name); m != nil {
		attrs.Size = m[1]
	}

	if fields := strings.FieldsFunc(name, func(r rune) bool { return r == ' ' || r == ',' }); len(fields) > 0 {
		attrs.Brand = fields[0]
	}

	return attrs
}

// knownCategories validates AI-returned category strings.
var knownCategories = map[Category]bool{
	CategoryTop: true, CategoryBottom: true, CategoryDress: true,
	CategoryShoe: true, CategoryOuterwear: true, CategoryAccessory: true,
	CategoryLegging: true, CategoryOther: true, CategoryFace: true,
	CategoryEye: true, CategoryLip: true, CategoryCheek: true,
	CategoryTool: true,
}

// MapAICategory accepts a category string from the remote extractor if
// it is one of the known values, otherwise re-infers from the name.
func MapAICategory(raw, name string, typ ItemType) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if knownCategories[c] {
		return c
	}
	return InferCategory(name, typ)
}
