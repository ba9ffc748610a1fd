// Package analysis turns raw comparable items into market pattern
// summaries and a heuristic trust score for a fingerprinted listing.
package analysis

import (
	"sort"

	"github.com/guarzo/trustguard/internal/fingerprint"
	"github.com/guarzo/trustguard/internal/model"
)

// PatternSummary aggregates sold comparables into the market signals
// used by scoring and decision making.
type PatternSummary struct {
	SuccessRate   float64 // fraction of similar listings that sell
	MedianPrice   float64
	PriceLow      float64
	PriceHigh     float64
	AvgSellerTier float64
	Velocity      int // 0-100, higher = faster market
	SampleSize    int
}

// Summarize analyzes sold comparables. With no data it returns neutral
// defaults so downstream scoring degrades rather than fails.
func Summarize(sold []model.ComparableItem) PatternSummary {
	if len(sold) == 0 {
		return PatternSummary{SuccessRate: 0.5, Velocity: 50}
	}

	var prices []float64
	var tierSum float64
	for _, item := range sold {
		if item.Price > 0 {
			prices = append(prices, item.Price)
		}
		tierSum += float64(comparableSellerTier(item.SellerFeedbackPct))
	}

	summary := PatternSummary{
		// Observed sales imply the pattern converts well.
		SuccessRate:   0.8,
		AvgSellerTier: tierSum / float64(len(sold)),
		Velocity:      velocityFromSales(len(sold)),
		SampleSize:    len(sold),
	}

	if len(prices) > 0 {
		sort.Float64s(prices)
		summary.MedianPrice = median(prices)
		summary.PriceLow = prices[0]
		summary.PriceHigh = prices[len(prices)-1]
	}

	return summary
}

// comparableSellerTier buckets a comparable's feedback percentage.
// Account age is unknown for comparables, so only feedback counts.
func comparableSellerTier(feedbackPct float64) int {
	switch {
	case feedbackPct >= 99:
		return 9
	case feedbackPct >= 95:
		return 7
	default:
		return 5
	}
}

// velocityFromSales maps recent sale volume onto a 0-100 scale.
func velocityFromSales(sales int) int {
	v := sales * 2
	if v > 100 {
		v = 100
	}
	return v
}

// median expects prices sorted ascending.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// TemplateMatch scores how well a listing matches proven sale
// patterns, based on sold comparable volume.
func TemplateMatch(soldCount int) float64 {
	match := float64(soldCount * 2)
	if match > 100 {
		match = 100
	}
	return match
}

// VelocityLabel converts a numeric velocity into the coarse label
// reported to callers.
func VelocityLabel(velocity int) model.MarketVelocity {
	switch {
	case velocity >= 70:
		return model.VelocityFast
	case velocity >= 40:
		return model.VelocityMedium
	default:
		return model.VelocitySlow
	}
}

// PrimaryConcern picks the single most important issue to surface.
func PrimaryConcern(fp *fingerprint.Fingerprint, comparableCount int) string {
	switch {
	case fp.RiskFlags&fingerprint.RiskPriceTooLow != 0:
		return "Price too low - possible scam"
	case fp.SellerTier < 3:
		return "Unestablished seller"
	case comparableCount < 5:
		return "Limited market data"
	default:
		return "None"
	}
}
