package ebay

import "strings"

// Marketing filler that dilutes keyword matching. Tokens containing a
// digit are always kept since they tend to be model numbers.
var noiseWords = map[string]bool{
	"new": true, "used": true, "refurbished": true, "pre-owned": true,
	"vintage": true, "rare": true, "authentic": true, "original": true,
	"genuine": true, "oem": true, "aftermarket": true, "free": true,
	"shipping": true, "fast": true, "quick": true, "sale": true,
	"deal": true, "look": true, "nice": true, "great": true,
	"excellent": true, "good": true, "mint": true, "perfect": true,
	"bundle": true, "lot": true, "set": true, "kit": true,
	"case": true, "box": true,
}

const maxSearchTerms = 6

// OptimizeSearchTerms strips marketing noise from a listing title and
// keeps the leading brand/model tokens for keyword search.
func OptimizeSearchTerms(title string) string {
	var kept []string
	for _, word := range strings.Fields(strings.ToLower(title)) {
		if noiseWords[word] && !containsDigit(word) {
			continue
		}
		kept = append(kept, word)
		if len(kept) == maxSearchTerms {
			break
		}
	}
	return strings.Join(kept, " ")
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
