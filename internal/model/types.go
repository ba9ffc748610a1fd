package model

import "time"

// Listing is the raw marketplace listing submitted for verification.
// Missing fields are tolerated everywhere; zero values mean "unknown".
type Listing struct {
	Title          string
	Price          float64
	Description    string // may be an HTML fragment
	Category       string
	Condition      string
	Photos         []string
	HasReturns     bool
	FreeShipping   bool
	BuyItNow       bool
	MarketEstimate float64 // caller-supplied rough market value, 0 if unknown
	Seller         SellerInfo
}

type SellerInfo struct {
	FeedbackPct    float64 // 0-100
	AccountAgeDays int
	// FeedbackDropped is set when the caller observed a recent drop in
	// the seller's feedback percentage.
	FeedbackDropped bool
}

// ComparableItem is one retrieved marketplace listing, sold or active.
// Held in memory for the duration of a verification call only.
type ComparableItem struct {
	ID                  string
	Title               string
	Price               float64
	Currency            string
	Condition           string
	CategoryID          string
	CategoryName        string
	ListingType         string
	Sold                bool
	SellerFeedbackScore int
	SellerFeedbackPct   float64
	StartTime           time.Time
	EndTime             time.Time
}

// RiskLevel buckets the overall risk of a listing.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// MarketVelocity labels how fast comparable items are selling.
type MarketVelocity string

const (
	VelocityFast    MarketVelocity = "FAST"
	VelocityMedium  MarketVelocity = "MEDIUM"
	VelocitySlow    MarketVelocity = "SLOW"
	VelocityUnknown MarketVelocity = "UNKNOWN"
)

// VerificationResult is the structured output of a verification call.
// A verification always produces one of these, possibly low-confidence;
// it never surfaces a raw transport or parsing error to the caller.
type VerificationResult struct {
	TrustScore        float64 // 0-100, higher = more trustworthy
	RiskLevel         RiskLevel
	Decision          string // "BUY", "CAUTION", "AVOID"
	Confidence        float64 // 0-100
	PrimaryConcern    string
	SimilarItemsFound int
	ProcessingTime    time.Duration
	TemplateMatch     float64
	MarketVelocity    MarketVelocity
}
