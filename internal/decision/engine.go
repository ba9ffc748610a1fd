package decision

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Factor weights. They sum to 1.
const (
	weightProfitMargin    = 0.25
	weightMarketLiquidity = 0.20
	weightRiskAssessment  = 0.20
	weightPriceValidation = 0.15
	weightSellerTrust     = 0.10
	weightMarketTrend     = 0.10
)

// Engine weighs analysis data into strategic recommendations.
// Stateless; the zero value is ready to use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// MarketStrength classifies market health from the sold/active split
// and price dispersion. Returns the label and a 0-1 confidence.
func (e *Engine) MarketStrength(soldCount, activeCount int, priceVariance float64) (string, float64) {
	total := soldCount + activeCount
	if total == 0 {
		return "Unknown", 0.0
	}

	soldRatio := float64(soldCount) / float64(total)
	priceStability := 1 - priceVariance
	if priceStability < 0 {
		priceStability = 0
	}

	switch {
	case soldRatio >= 0.7 && priceStability >= 0.8:
		return "Strong", 0.85
	case soldRatio >= 0.4 && priceStability >= 0.6:
		return "Moderate", 0.65
	default:
		return "Weak", 0.35
	}
}

// TrustSignals derives the interpretable signals for the data, ranked
// by absolute weighted value.
func (e *Engine) TrustSignals(data AnalysisData) []TrustSignal {
	var signals []TrustSignal

	// Price position.
	priceVsMarket := data.PriceVsMarket
	if priceVsMarket == 0 {
		priceVsMarket = 1.0
	}
	switch {
	case priceVsMarket < 0.7:
		signals = append(signals, TrustSignal{
			Name:        "Price Alert",
			Value:       -0.8,
			Weight:      0.9,
			Explanation: fmt.Sprintf("Price is %.0f%% below market average - investigate why", (1-priceVsMarket)*100),
			Confidence:  0.9,
		})
	case priceVsMarket > 1.3:
		signals = append(signals, TrustSignal{
			Name:        "Price Warning",
			Value:       -0.5,
			Weight:      0.7,
			Explanation: fmt.Sprintf("Price is %.0f%% above market average", (priceVsMarket-1)*100),
			Confidence:  0.8,
		})
	default:
		signals = append(signals, TrustSignal{
			Name:        "Fair Price",
			Value:       0.6,
			Weight:      0.8,
			Explanation: "Price is within normal market range",
			Confidence:  0.7,
		})
	}

	// Seller reputation.
	switch {
	case data.SellerFeedback >= 0.98 && data.AccountAgeNorm >= 0.7:
		signals = append(signals, TrustSignal{
			Name:        "Trusted Seller",
			Value:       0.8,
			Weight:      0.7,
			Explanation: "Seller has excellent feedback and established account",
			Confidence:  0.9,
		})
	case data.SellerFeedback < 0.85 || data.AccountAgeNorm < 0.2:
		signals = append(signals, TrustSignal{
			Name:        "Seller Risk",
			Value:       -0.7,
			Weight:      0.8,
			Explanation: "New seller or poor feedback history",
			Confidence:  0.8,
		})
	default:
		signals = append(signals, TrustSignal{
			Name:        "Average Seller",
			Value:       0.0,
			Weight:      0.5,
			Explanation: "Seller has reasonable feedback and account age",
			Confidence:  0.6,
		})
	}

	// Demand.
	switch {
	case data.SoldCount > 100:
		signals = append(signals, TrustSignal{
			Name:        "High Demand",
			Value:       0.7,
			Weight:      0.8,
			Explanation: fmt.Sprintf("%d recently sold - proven market demand", data.SoldCount),
			Confidence:  0.9,
		})
	case data.SoldCount < 10:
		signals = append(signals, TrustSignal{
			Name:        "Low Demand",
			Value:       -0.4,
			Weight:      0.6,
			Explanation: fmt.Sprintf("Only %d recently sold - limited market", data.SoldCount),
			Confidence:  0.7,
		})
	default:
		signals = append(signals, TrustSignal{
			Name:        "Moderate Demand",
			Value:       0.2,
			Weight:      0.5,
			Explanation: fmt.Sprintf("%d recently sold - decent market activity", data.SoldCount),
			Confidence:  0.6,
		})
	}

	// Competition.
	soldFloor := data.SoldCount
	if soldFloor < 1 {
		soldFloor = 1
	}
	competition := float64(data.ActiveCount) / float64(soldFloor)
	if competition > 3 {
		signals = append(signals, TrustSignal{
			Name:        "High Competition",
			Value:       -0.6,
			Weight:      0.7,
			Explanation: fmt.Sprintf("%d active listings vs %d sold - saturated market", data.ActiveCount, data.SoldCount),
			Confidence:  0.8,
		})
	} else if competition < 0.5 {
		signals = append(signals, TrustSignal{
			Name:        "Low Competition",
			Value:       0.5,
			Weight:      0.6,
			Explanation: "Good supply/demand ratio - easier to sell",
			Confidence:  0.7,
		})
	}

	// Listing quality.
	if data.UsesStockImages && data.DescLengthNorm < 0.3 {
		signals = append(signals, TrustSignal{
			Name:        "Poor Listing",
			Value:       -0.5,
			Weight:      0.6,
			Explanation: "Generic photos and minimal description - potential dropshipper",
			Confidence:  0.7,
		})
	} else if data.DescLengthNorm > 0.7 {
		signals = append(signals, TrustSignal{
			Name:        "Detailed Listing",
			Value:       0.4,
			Weight:      0.5,
			Explanation: "Comprehensive description suggests legitimate seller",
			Confidence:  0.6,
		})
	}

	sort.SliceStable(signals, func(a, b int) bool {
		return math.Abs(signals[a].Value*signals[a].Weight) > math.Abs(signals[b].Value*signals[b].Weight)
	})
	return signals
}

// CrossValidate scores internal consistency of the analysis sources,
// 0-1. Low scores shrink the final confidence.
func (e *Engine) CrossValidate(data AnalysisData) float64 {
	score := 0.5
	checks := 0

	if data.MarketValue > 0 {
		checks++
		median := data.MedianActive
		if median == 0 {
			median = data.MarketValue
		}
		consistency := 1.0 - math.Abs(data.MarketValue-median)/data.MarketValue
		score += consistency * 0.3
	}

	if data.SellerFeedback > 0 {
		checks++
		score += data.SellerFeedback * 0.2
	}

	if data.SoldCount > 0 {
		checks++
		activity := float64(data.SoldCount) / 100
		if activity > 1 {
			activity = 1
		}
		score += activity * 0.2
	}

	if checks > 0 {
		score /= float64(checks)
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// EstimateDaysToSell projects the wait to a sale from market turnover
// and saturation, adjusted for how aggressively the margin lets the
// seller price. Bounded to [3, 90].
func (e *Engine) EstimateDaysToSell(soldCount, activeCount int, profitMarginPct float64) int {
	if soldCount+activeCount == 0 {
		return 90
	}

	// Sold counts cover roughly a 30-day window.
	turnover := float64(soldCount) / 30
	if turnover == 0 {
		return 90
	}
	if turnover < 0.1 {
		turnover = 0.1
	}

	days := float64(activeCount) / turnover
	if days > 90 {
		days = 90
	}

	if profitMarginPct > 50 {
		days *= 0.7
	} else if profitMarginPct < 20 {
		days *= 1.3
	}

	if days < 3 {
		return 3
	}
	if days > 90 {
		return 90
	}
	return int(days)
}

// Decide produces the final recommendation for the analysis data.
func (e *Engine) Decide(data AnalysisData, prefs UserPreferences) Recommendation {
	signals := e.TrustSignals(data)
	strength, marketConfidence := e.MarketStrength(data.SoldCount, data.ActiveCount, data.PriceVariance)
	crossValidation := e.CrossValidate(data)
	daysToSell := e.EstimateDaysToSell(data.SoldCount, data.ActiveCount, data.ProfitMarginPct)

	var score float64
	var confidenceFactors []float64

	// Profit potential.
	switch {
	case data.ProfitMarginPct >= 100:
		score += 0.9 * weightProfitMargin
		confidenceFactors = append(confidenceFactors, 0.9)
	case data.ProfitMarginPct >= 50:
		score += 0.7 * weightProfitMargin
		confidenceFactors = append(confidenceFactors, 0.8)
	case data.ProfitMarginPct >= 20:
		score += 0.4 * weightProfitMargin
		confidenceFactors = append(confidenceFactors, 0.6)
	case data.ProfitMarginPct <= 0:
		score -= 0.8 * weightProfitMargin
		confidenceFactors = append(confidenceFactors, 0.9)
	}

	// Liquidity.
	switch {
	case data.SoldCount >= 100 && daysToSell <= 14:
		score += 0.8 * weightMarketLiquidity
		confidenceFactors = append(confidenceFactors, 0.8)
	case data.SoldCount >= 20 && daysToSell <= 30:
		score += 0.5 * weightMarketLiquidity
		confidenceFactors = append(confidenceFactors, 0.6)
	case data.SoldCount < 5:
		score -= 0.6 * weightMarketLiquidity
		confidenceFactors = append(confidenceFactors, 0.7)
	}

	// Risk.
	switch {
	case data.RiskScore >= 0.8:
		score -= 0.9 * weightRiskAssessment
		confidenceFactors = append(confidenceFactors, 0.9)
	case data.RiskScore >= 0.6:
		score -= 0.5 * weightRiskAssessment
		confidenceFactors = append(confidenceFactors, 0.7)
	case data.RiskScore <= 0.3:
		score += 0.6 * weightRiskAssessment
		confidenceFactors = append(confidenceFactors, 0.6)
	}

	// Price validation and seller trust come from the signal values.
	if s := findSignal(signals, "Fair Price", "Price Alert", "Price Warning"); s != nil {
		score += s.Value * weightPriceValidation
		confidenceFactors = append(confidenceFactors, s.Confidence)
	}
	if s := findSellerSignal(signals); s != nil {
		score += s.Value * weightSellerTrust
		confidenceFactors = append(confidenceFactors, s.Confidence)
	}

	// Market trend.
	score += marketConfidence * weightMarketTrend
	confidenceFactors = append(confidenceFactors, marketConfidence)

	confidence := 0.5
	if len(confidenceFactors) > 0 {
		var sum float64
		for _, c := range confidenceFactors {
			sum += c
		}
		confidence = sum / float64(len(confidenceFactors))
	}
	confidence *= crossValidation

	dec, reason := mapDecision(score, confidence, data, strength, daysToSell)

	// High classifier risk never yields a buy recommendation.
	if data.RiskScore >= 0.6 && dec.rank() < Caution.rank() {
		dec = Caution
		reason = fmt.Sprintf("Proceed carefully - risk score %.1f overrides favorable market signals", data.RiskScore)
	}

	if prefs.RiskAverse && data.RiskScore >= 0.4 && dec.rank() < Caution.rank() {
		dec = downgrade(dec)
	}

	return Recommendation{
		Decision:        dec,
		Confidence:      confidence,
		ProfitPotential: data.Profit,
		RiskScore:       data.RiskScore,
		DaysToSell:      daysToSell,
		MarketStrength:  strength,
		PrimaryReason:   reason,
		TrustSignals:    signals,
		CrossValidation: crossValidation,
		QuickSummary: fmt.Sprintf("%s: $%.0f profit, %dd to sell, %.0f%% confidence",
			dec, data.Profit, daysToSell, confidence*100),
	}
}

func mapDecision(score, confidence float64, data AnalysisData, strength string, daysToSell int) (Decision, string) {
	switch {
	case score >= 0.7 && confidence >= 0.8:
		return StrongBuy, fmt.Sprintf("Excellent profit potential (%.0f%% margin) with high market confidence", data.ProfitMarginPct)
	case score >= 0.4 && confidence >= 0.6:
		return Buy, fmt.Sprintf("Good opportunity with %.0f%% margin and %s market", data.ProfitMarginPct, strings.ToLower(strength))
	case score >= -0.2 || data.RiskScore >= 0.6:
		return Caution, fmt.Sprintf("Proceed carefully - %d day sell time, risk score %.1f", daysToSell, data.RiskScore)
	case score >= -0.5:
		return Avoid, fmt.Sprintf("Poor profit potential or high risk (score: %.1f)", data.RiskScore)
	default:
		return StrongAvoid, "High risk with poor fundamentals - avoid"
	}
}

func downgrade(d Decision) Decision {
	switch d {
	case StrongBuy:
		return Buy
	case Buy:
		return Caution
	default:
		return d
	}
}

func findSignal(signals []TrustSignal, names ...string) *TrustSignal {
	for i := range signals {
		for _, name := range names {
			if signals[i].Name == name {
				return &signals[i]
			}
		}
	}
	return nil
}

func findSellerSignal(signals []TrustSignal) *TrustSignal {
	for i := range signals {
		if strings.Contains(signals[i].Name, "Seller") {
			return &signals[i]
		}
	}
	return nil
}

// Explain renders a plain-text breakdown of a recommendation.
func (e *Engine) Explain(rec Recommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "RECOMMENDATION: %s\n", rec.Decision)
	fmt.Fprintf(&b, "Profit potential: $%.0f\n", rec.ProfitPotential)
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", rec.Confidence*100)
	fmt.Fprintf(&b, "Time to sell: %d days\n", rec.DaysToSell)
	fmt.Fprintf(&b, "Market: %s\n\n", rec.MarketStrength)
	fmt.Fprintf(&b, "Why: %s\n\nKey factors:\n", rec.PrimaryReason)

	top := rec.TrustSignals
	if len(top) > 3 {
		top = top[:3]
	}
	for _, s := range top {
		fmt.Fprintf(&b, "  %s: %s\n", s.Name, s.Explanation)
	}

	fmt.Fprintf(&b, "\nCross-validation score: %.0f%%\n", rec.CrossValidation*100)
	return b.String()
}
