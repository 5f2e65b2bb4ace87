package imports

import (
	"regexp"
	"strings"
)

var (
	urlWhitespace    = regexp.MustCompile(`\s+`)
	amazonMediaHost  = regexp.MustCompile(`m\.media-amazon\.com`)
	amazonThumbToken = regexp.MustCompile(`\._AC_UF\d+,\d+_QL\d+_\.`)
)

// NormalizeImageURL cleans up an image URL before acceptance: trims
// whitespace, percent-encodes embedded spaces, upgrades
// protocol-relative and plain-HTTP URLs to HTTPS, and rewrites the
// Amazon thumbnail sizing token that often 404s to a reliable fixed
// size. Idempotent: normalizing an already-normalized URL is a no-op.
func NormalizeImageURL(url string) string {
	normalized := strings.TrimSpace(url)
	if normalized == "" {
		return ""
	}

	normalized = urlWhitespace.ReplaceAllString(normalized, "%20")

	if strings.HasPrefix(normalized, "//") {
		normalized = "https:" + normalized
	}

	// Single-slash protocol typo.
	if strings.HasPrefix(normalized, "http:/") && !strings.HasPrefix(normalized, "http://") {
		normalized = strings.Replace(normalized, "http:/", "http://", 1)
	}

	if strings.HasPrefix(normalized, "http://") {
		normalized = strings.Replace(normalized, "http://", "https://", 1)
	}

	if amazonMediaHost.MatchString(normalized) {
		normalized = amazonThumbToken.ReplaceAllString(normalized, "._AC_SL1000_.")
	}

	return normalized
}
