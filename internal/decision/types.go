// Package decision turns market analysis into a ranked buy/avoid
// recommendation with human-readable trust signals.
package decision

// Decision is the recommendation bucket, ordered best to worst.
type Decision string

const (
	StrongBuy   Decision = "STRONG_BUY"
	Buy         Decision = "BUY"
	Caution     Decision = "CAUTION"
	Avoid       Decision = "AVOID"
	StrongAvoid Decision = "STRONG_AVOID"
)

// rank orders decisions; lower is better.
func (d Decision) rank() int {
	switch d {
	case StrongBuy:
		return 0
	case Buy:
		return 1
	case Caution:
		return 2
	case Avoid:
		return 3
	default:
		return 4
	}
}

// TrustSignal is one interpretable factor behind a recommendation.
// Value runs -1 (red flag) to 1 (green flag); Weight and Confidence
// run 0 to 1.
type TrustSignal struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Weight      float64 `json:"weight"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// AnalysisData carries the inputs the engine weighs. All fields are
// optional; zero values read as "unknown" and skip their factor.
type AnalysisData struct {
	Profit          float64 // expected profit in dollars
	ProfitMarginPct float64
	MarketValue     float64
	MedianActive    float64 // median price of active comparables
	RiskScore       float64 // 0-1, from the classifier
	SoldCount       int
	ActiveCount     int
	PriceVsMarket   float64 // listing price / market median, 1.0 = at market
	SellerFeedback  float64 // 0-1
	AccountAgeNorm  float64 // 0-1
	DescLengthNorm  float64 // 0-1
	UsesStockImages bool
	PriceVariance   float64 // 0-1, dispersion of comparable prices
}

// UserPreferences tunes the decision mapping per caller.
type UserPreferences struct {
	// RiskAverse downgrades buy recommendations one notch when
	// meaningful risk remains.
	RiskAverse bool
}

// Recommendation is the engine's full output.
type Recommendation struct {
	Decision        Decision      `json:"decision"`
	Confidence      float64       `json:"confidence"` // 0-1
	ProfitPotential float64       `json:"profit_potential"`
	RiskScore       float64       `json:"risk_score"`
	DaysToSell      int           `json:"days_to_sell"`
	MarketStrength  string        `json:"market_strength"` // Strong, Moderate, Weak, Unknown
	PrimaryReason   string        `json:"primary_reason"`
	TrustSignals    []TrustSignal `json:"trust_signals"`
	CrossValidation float64       `json:"cross_validation_score"` // 0-1
	QuickSummary    string        `json:"quick_summary"`
}
