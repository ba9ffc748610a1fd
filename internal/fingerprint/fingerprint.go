// Package fingerprint reduces a raw listing into a small, comparable
// record used for pattern matching, cache keying, and trust scoring.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/guarzo/trustguard/internal/model"
	"github.com/guarzo/trustguard/internal/quality"
)

// Feature bitmap bits.
const (
	FeatureReturns uint8 = 1 << iota
	FeatureFreeShipping
	FeatureBuyItNow
	FeatureManyPhotos
	FeatureLongDescription
)

// Risk flag bits.
const (
	RiskPriceTooLow uint8 = 1 << iota
	RiskLowSellerTier
	RiskGenericListing
)

// FeatureBits is the number of feature bitmap bits in use.
const FeatureBits = 5

// Fingerprint is the compressed representation of a listing snapshot.
// Price carries the true listing price for scoring; PriceBand is the
// lossy bucket used only for pattern matching and cache keys.
type Fingerprint struct {
	TitleHash     string // 8 hex chars
	Price         float64
	PriceBand     int // 0-6
	SellerTier    int // 0-9
	CategoryCode  string
	ConditionCode string
	Features      uint8
	RiskFlags     uint8

	// Populated after pattern analysis.
	SuccessRate   float64
	VelocityScore float64
}

// Build constructs a fingerprint from a listing. Pure and deterministic;
// missing listing fields default to neutral values.
func Build(l model.Listing) Fingerprint {
	sum := md5.Sum([]byte(strings.ToLower(l.Title)))
	desc := quality.Analyze(l.Description)

	fp := Fingerprint{
		TitleHash:     hex.EncodeToString(sum[:4]),
		Price:         l.Price,
		PriceBand:     PriceBand(l.Price),
		SellerTier:    SellerTier(l.Seller.FeedbackPct, l.Seller.AccountAgeDays),
		CategoryCode:  truncate(l.Category, 4),
		ConditionCode: truncate(defaultString(l.Condition, "used"), 3),
		SuccessRate:   0.5,
		VelocityScore: 50,
	}

	if l.HasReturns {
		fp.Features |= FeatureReturns
	}
	if l.FreeShipping {
		fp.Features |= FeatureFreeShipping
	}
	if l.BuyItNow {
		fp.Features |= FeatureBuyItNow
	}
	if len(l.Photos) >= 5 {
		fp.Features |= FeatureManyPhotos
	}
	if desc.TextLength > 200 {
		fp.Features |= FeatureLongDescription
	}

	if l.MarketEstimate > 0 && l.Price < 0.3*l.MarketEstimate {
		fp.RiskFlags |= RiskPriceTooLow
	}
	if fp.SellerTier < 3 {
		fp.RiskFlags |= RiskLowSellerTier
	}
	if desc.StockPhotoMarker {
		fp.RiskFlags |= RiskGenericListing
	}

	return fp
}

// PriceBand buckets a price into a fixed ordinal band (0-6).
func PriceBand(price float64) int {
	switch {
	case price <= 0:
		return 0
	case price < 10:
		return 1
	case price < 50:
		return 2
	case price < 100:
		return 3
	case price < 500:
		return 4
	case price < 1000:
		return 5
	default:
		return 6
	}
}

// SellerTier derives a 0-9 quality tier from feedback percentage and
// account age. Tier is monotonically non-decreasing in both inputs.
func SellerTier(feedbackPct float64, accountAgeDays int) int {
	switch {
	case feedbackPct >= 99 && accountAgeDays >= 1000:
		return 9
	case feedbackPct >= 98 && accountAgeDays >= 500:
		return 8
	case feedbackPct >= 95 && accountAgeDays >= 200:
		return 7
	case feedbackPct >= 90 && accountAgeDays >= 100:
		return 6
	}

	tier := int((feedbackPct - 50) / 10)
	if tier < 0 {
		return 0
	}
	if tier > 5 {
		// Only reachable with feedback above 100%; clamp to the
		// ceiling of the formula's valid range.
		return 5
	}
	return tier
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
