package quality

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Report summarizes the quality of a listing description. Marketplace
// descriptions usually arrive as HTML fragments; the report is computed
// over the visible text only.
type Report struct {
	Text             string
	TextLength       int
	ImageCount       int
	StockPhotoMarker bool
	OffPlatformHint  bool
	LengthNorm       float64 // 0..1, saturates at 1000 characters
}

// Phrases that indicate a generic listing reusing catalog imagery.
var stockMarkers = []string{
	"stock photo",
	"stock image",
	"photo for reference",
	"actual item may vary",
	"image is for illustration",
}

// Phrases that indicate the seller is steering payment off the platform.
var offPlatformMarkers = []string{
	"western union",
	"wire transfer",
	"pay outside",
	"contact me before buying",
	"zelle",
	"venmo only",
}

// Analyze parses a listing description and extracts quality signals.
// Malformed HTML degrades to treating the input as plain text; Analyze
// never fails.
func Analyze(description string) Report {
	text := description
	imageCount := 0

	if strings.Contains(description, "<") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
		if err == nil {
			doc.Find("script, style").Remove()
			imageCount = doc.Find("img").Length()
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	lower := strings.ToLower(text)

	report := Report{
		Text:       text,
		TextLength: len(text),
		ImageCount: imageCount,
		LengthNorm: lengthNorm(len(text)),
	}

	for _, marker := range stockMarkers {
		if strings.Contains(lower, marker) {
			report.StockPhotoMarker = true
			break
		}
	}
	for _, marker := range offPlatformMarkers {
		if strings.Contains(lower, marker) {
			report.OffPlatformHint = true
			break
		}
	}

	return report
}

func lengthNorm(length int) float64 {
	norm := float64(length) / 1000.0
	if norm > 1 {
		return 1
	}
	return norm
}
