// Package learning implements the online fraud classifier: a logistic
// model updated incrementally from labeled outcomes, with checkpoint
// persistence, timestamped backups, and drift monitoring.
package learning

import (
	"github.com/guarzo/trustguard/internal/analysis"
	"github.com/guarzo/trustguard/internal/fingerprint"
	"github.com/guarzo/trustguard/internal/model"
	"github.com/guarzo/trustguard/internal/quality"
)

// Feature indices. Order is part of the checkpoint format; append
// only, never reorder.
const (
	FeatPriceVsMarket = iota
	FeatSellerFeedback
	FeatAccountAge
	FeatStockImages
	FeatOffPlatformPayment
	FeatPriceAnomaly
	FeatFeedbackDrop
	FeatDescLength
	FeatIdenticalListings

	NumFeatures = 9
)

// FeatureNames maps indices to stable names used in checkpoints,
// status reports, and explanations.
var FeatureNames = [NumFeatures]string{
	"price_vs_market_pct",
	"seller_feedback_pct",
	"account_age_days_norm",
	"uses_stock_images",
	"off_platform_payment",
	"price_anomaly_flag",
	"feedback_drop_flag",
	"desc_length_norm",
	"num_identical_listings_norm",
}

// Features is a normalized feature vector; every element is in [0, 1].
type Features [NumFeatures]float64

// initialWeights is the hand-tuned interpretable baseline used until
// the model has seen real updates, and as the prediction fallback.
var initialWeights = Features{
	FeatPriceVsMarket:      1.0,
	FeatSellerFeedback:     -1.5,
	FeatAccountAge:         -0.8,
	FeatStockImages:        0.9,
	FeatOffPlatformPayment: 2.5,
	FeatPriceAnomaly:       1.8,
	FeatFeedbackDrop:       1.2,
	FeatDescLength:         0.6,
	FeatIdenticalListings:  0.3,
}

const initialBias = -1.0

// ExtractFeatures builds the normalized vector for a listing from its
// fingerprint, description quality report, and market summary.
// identicalListings counts near-duplicate active listings found during
// the comparable fetch.
func ExtractFeatures(l model.Listing, fp *fingerprint.Fingerprint, report quality.Report, summary analysis.PatternSummary, identicalListings int) Features {
	var f Features

	priceRatio := 1.0
	if summary.MedianPrice > 0 && l.Price > 0 {
		priceRatio = l.Price / summary.MedianPrice
	}
	f[FeatPriceVsMarket] = clamp01(priceRatio / 3.0)

	f[FeatSellerFeedback] = clamp01(l.Seller.FeedbackPct / 100.0)
	f[FeatAccountAge] = clamp01(float64(l.Seller.AccountAgeDays) / 3650.0)

	f[FeatStockImages] = boolFeature(report.StockPhotoMarker)
	f[FeatOffPlatformPayment] = boolFeature(report.OffPlatformHint)
	f[FeatPriceAnomaly] = boolFeature(fp.RiskFlags&fingerprint.RiskPriceTooLow != 0)
	f[FeatFeedbackDrop] = boolFeature(l.Seller.FeedbackDropped)

	f[FeatDescLength] = clamp01(report.LengthNorm)
	f[FeatIdenticalListings] = clamp01(float64(identicalListings) / 10.0)

	return f
}

// Normalize clamps every element into [0, 1]. Vectors arriving from
// external callers go through this before prediction or update.
func (f Features) Normalize() Features {
	for i := range f {
		f[i] = clamp01(f[i])
	}
	return f
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
