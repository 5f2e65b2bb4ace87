package imports

import (
	"regexp"
	"strconv"
	"strings"
)

// Prices are the most reliable anchor in receipt text. Amounts outside
// this range are noise: per-unit breakdowns below, order totals above.
const (
	minItemPrice = 0.50
	maxItemPrice = 500
)

const (
	nameLookback   = 10  // lines scanned backward from a price for a name
	urlWindow      = 6   // lines scanned around a price for a product URL
	minNameLength  = 5   // shorter candidates are fragments
	maxNameLength  = 200 // longer candidates are paragraph runs
	maxCleanedName = 100
)

var (
	pricePattern   = regexp.MustCompile(`\$\s*(\d+\.?\d*)`)
	numericOnly    = regexp.MustCompile(`^\$?\s*\d+\.?\d*$`)
	productURL     = regexp.MustCompile(`(?i)(https?://\S*amazon\.com\S*)`)
	nameNoise      = regexp.MustCompile(`[^\w\s\-.,]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// nonProductKeywords mark lines that carry order bookkeeping, not
// product descriptions.
var nonProductKeywords = []string{"total", "tax", "shipping", "qty"}

// ParseReceiptText extracts candidate line items from raw receipt text.
// Every dollar amount in a plausible per-item range anchors a backward
// scan for the nearest preceding line that reads like a product name;
// amounts with no plausible name are dropped. Returns an empty slice,
// never an error, when nothing usable is found.
func ParseReceiptText(text string) []ParsedLineItem {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}

	var items []ParsedLineItem
	for i, line := range lines {
		m := pricePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		price, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if price < minItemPrice || price > maxItemPrice {
			continue
		}

		name := findProductName(lines, i)
		if name == "" {
			continue
		}

		items = append(items, ParsedLineItem{
			Name:        cleanItemName(name),
			Price:       price,
			Quantity:    1,
			PurchaseURL: findNearbyProductURL(lines, i),
		})
	}
	return items
}

// findProductName scans backward from the price line for the nearest
// line that looks like a product description.
func findProductName(lines []string, priceLine int) string {
	for j := priceLine - 1; j >= 0 && j >= priceLine-nameLookback; j-- {
		candidate := strings.TrimSpace(lines[j])
		if len(candidate) <= minNameLength || len(candidate) >= maxNameLength {
			continue
		}
		if numericOnly.MatchString(candidate) {
			continue
		}
		if containsAnyFold(candidate, nonProductKeywords) {
			continue
		}
		// Hyperlink lines belong to the URL search, not the name.
		if strings.Contains(strings.ToLower(candidate), "http") {
			continue
		}
		return candidate
	}
	return ""
}

// findNearbyProductURL looks for a retailer product link in a symmetric
// window of lines around the matched price.
func findNearbyProductURL(lines []string, priceLine int) string {
	start := max(0, priceLine-urlWindow)
	end := min(len(lines)-1, priceLine+urlWindow)

	for i := start; i <= end; i++ {
		m := productURL.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		url := strings.TrimSpace(m[1])
		// Trim markdown-style trailing delimiters.
		url, _, _ = strings.Cut(url, ")")
		url, _, _ = strings.Cut(url, "]")
		return url
	}
	return ""
}

// cleanItemName collapses whitespace, strips stray punctuation and
// caps the length.
func cleanItemName(name string) string {
	name = whitespaceRuns.ReplaceAllString(name, " ")
	name = nameNoise.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if len(name) > maxCleanedName {
		name = name[:maxCleanedName]
	}
	return name
}

func containsAnyFold(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
