package quality

import (
	"strings"
	"testing"
)

func TestAnalyze_PlainText(t *testing.T) {
	report := Analyze("Excellent condition iPhone with original box")

	if report.TextLength == 0 {
		t.Error("expected non-zero text length")
	}
	if report.ImageCount != 0 {
		t.Errorf("plain text should have 0 images, got %d", report.ImageCount)
	}
	if report.StockPhotoMarker {
		t.Error("no stock photo marker expected")
	}
}

func TestAnalyze_HTMLStripped(t *testing.T) {
	html := `<div><h1>iPhone 13</h1><script>alert(1)</script><p>Great phone</p><img src="a.jpg"><img src="b.jpg"></div>`
	report := Analyze(html)

	if strings.Contains(report.Text, "alert") {
		t.Error("script content should be stripped")
	}
	if !strings.Contains(report.Text, "Great phone") {
		t.Errorf("visible text should survive, got %q", report.Text)
	}
	if report.ImageCount != 2 {
		t.Errorf("expected 2 images, got %d", report.ImageCount)
	}
}

func TestAnalyze_StockPhotoMarker(t *testing.T) {
	cases := []struct {
		desc string
		want bool
	}{
		{"This is a STOCK PHOTO of the item", true},
		{"<p>Image is for illustration purposes</p>", true},
		{"Actual photos of the actual item", false},
	}

	for _, tc := range cases {
		report := Analyze(tc.desc)
		if report.StockPhotoMarker != tc.want {
			t.Errorf("Analyze(%q).StockPhotoMarker = %v, want %v", tc.desc, report.StockPhotoMarker, tc.want)
		}
	}
}

func TestAnalyze_OffPlatformHint(t *testing.T) {
	report := Analyze("Will ship fast. Zelle preferred, contact me before buying")
	if !report.OffPlatformHint {
		t.Error("expected off-platform payment hint")
	}
}

func TestAnalyze_LengthNorm(t *testing.T) {
	short := Analyze("short")
	if short.LengthNorm >= 0.1 {
		t.Errorf("short description norm too high: %f", short.LengthNorm)
	}

	long := Analyze(strings.Repeat("very detailed description ", 100))
	if long.LengthNorm != 1.0 {
		t.Errorf("long description should saturate at 1.0, got %f", long.LengthNorm)
	}
}
