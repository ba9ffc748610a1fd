package analysis

import (
	"math/bits"

	"github.com/guarzo/trustguard/internal/fingerprint"
)

// Factor weights for the heuristic score. They sum to 100, matching
// the score's additive range around the neutral 50 baseline.
const (
	sellerWeight   = 30.0
	priceWeight    = 25.0
	activityWeight = 20.0
	featureWeight  = 15.0
	riskPenalty    = 10.0
)

// TrustScore computes the heuristic 0-100 trust score for a
// fingerprinted listing against its market pattern. Higher is more
// trustworthy.
func TrustScore(fp *fingerprint.Fingerprint, summary PatternSummary, comparableCount int) float64 {
	score := 50.0

	// Seller quality.
	score += float64(fp.SellerTier) / 9.0 * sellerWeight

	// Price reasonableness against the sold median.
	if summary.MedianPrice > 0 && fp.Price > 0 {
		ratio := fp.Price / summary.MedianPrice
		switch {
		case ratio >= 0.7 && ratio <= 1.3:
			score += priceWeight
		case ratio < 0.5:
			score -= 30
		case ratio > 2.0:
			score -= 15
		}
	}

	// Market activity.
	switch {
	case comparableCount > 50:
		score += activityWeight
	case comparableCount > 20:
		score += 15
	case comparableCount > 5:
		score += 10
	default:
		score -= 10
	}

	// Feature completeness.
	featureCount := bits.OnesCount8(fp.Features)
	score += float64(featureCount) / fingerprint.FeatureBits * featureWeight

	// Risk flags.
	riskCount := bits.OnesCount8(fp.RiskFlags)
	score -= float64(riskCount) * riskPenalty

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
