// Command trustguard verifies a marketplace listing from the command
// line: fingerprint, live comparables, trust score, and the strategic
// recommendation, printed as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/guarzo/trustguard/internal/analysis"
	"github.com/guarzo/trustguard/internal/cache"
	"github.com/guarzo/trustguard/internal/decision"
	"github.com/guarzo/trustguard/internal/ebay"
	"github.com/guarzo/trustguard/internal/fingerprint"
	"github.com/guarzo/trustguard/internal/learning"
	"github.com/guarzo/trustguard/internal/maintenance"
	"github.com/guarzo/trustguard/internal/model"
	"github.com/guarzo/trustguard/internal/quality"
	"github.com/guarzo/trustguard/internal/ratelimit"
	"github.com/guarzo/trustguard/internal/verify"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var (
		title       = flag.String("title", "", "listing title (required)")
		price       = flag.Float64("price", 0, "listing price")
		description = flag.String("description", "", "listing description (may be HTML)")
		category    = flag.String("category", "", "marketplace category ID")
		condition   = flag.String("condition", "used", "item condition")
		feedbackPct = flag.Float64("feedback", 98, "seller feedback percentage")
		accountAge  = flag.Int("account-age", 365, "seller account age in days")
		estimate    = flag.Float64("estimate", 0, "rough market value, 0 if unknown")
		riskAverse  = flag.Bool("risk-averse", false, "prefer conservative recommendations")
		modelDir    = flag.String("model-dir", "models", "checkpoint directory for the online model")
		timeout     = flag.Duration("timeout", 10*time.Second, "overall verification timeout")
	)
	flag.Parse()

	if *title == "" {
		flag.Usage()
		os.Exit(2)
	}

	appID := os.Getenv("EBAY_APP_ID")
	if appID == "" {
		log.Println("EBAY_APP_ID not set; running without live comparables")
	}

	respCache := cache.NewMemory(100, 5*time.Minute)
	client := ebay.NewClient(ebay.DefaultConfig(appID), ratelimit.DefaultFindingLimiter(), respCache)

	store, err := learning.NewFileStore(*modelDir)
	if err != nil {
		log.Fatalf("model store: %v", err)
	}
	clf, err := learning.NewModel(store)
	if err != nil {
		log.Fatalf("model: %v", err)
	}

	scheduler, err := maintenance.NewScheduler(respCache, clf)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	listing := model.Listing{
		Title:          *title,
		Price:          *price,
		Description:    *description,
		Category:       *category,
		Condition:      *condition,
		MarketEstimate: *estimate,
		Seller: model.SellerInfo{
			FeedbackPct:    *feedbackPct,
			AccountAgeDays: *accountAge,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	engine := verify.NewEngine(client)
	result := engine.Verify(ctx, listing)

	// Rebuild the market context for the strategic layer. The fetch
	// hits the response cache, so no extra upstream calls are made.
	var sold, active []model.ComparableItem
	if client.Available() {
		sold, active, _ = client.FetchComparables(ctx, listing.Title, listing.Category)
	}
	summary := analysis.Summarize(sold)
	fp := fingerprint.Build(listing)
	report := quality.Analyze(listing.Description)

	features := learning.ExtractFeatures(listing, &fp, report, summary, 0)
	riskScore := clf.Predict(features)

	priceVsMarket := 1.0
	if summary.MedianPrice > 0 && listing.Price > 0 {
		priceVsMarket = listing.Price / summary.MedianPrice
	}
	profit := summary.MedianPrice - listing.Price
	marginPct := 0.0
	if listing.Price > 0 {
		marginPct = profit / listing.Price * 100
	}

	rec := decision.NewEngine().Decide(decision.AnalysisData{
		Profit:          profit,
		ProfitMarginPct: marginPct,
		MarketValue:     summary.MedianPrice,
		MedianActive:    medianPrice(active),
		RiskScore:       riskScore,
		SoldCount:       len(sold),
		ActiveCount:     len(active),
		PriceVsMarket:   priceVsMarket,
		SellerFeedback:  listing.Seller.FeedbackPct / 100,
		AccountAgeNorm:  float64(listing.Seller.AccountAgeDays) / 3650,
		DescLengthNorm:  report.LengthNorm,
		UsesStockImages: report.StockPhotoMarker,
	}, decision.UserPreferences{RiskAverse: *riskAverse})

	out := struct {
		Verification   model.VerificationResult `json:"verification"`
		Recommendation decision.Recommendation  `json:"recommendation"`
		RiskScore      float64                  `json:"model_risk_score"`
		TopFactors     []learning.Contribution  `json:"top_factors"`
	}{result, rec, riskScore, clf.ExplainTop(features, 4)}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode output: %v", err)
	}

	fmt.Fprintln(os.Stderr, decision.NewEngine().Explain(rec))
}

func medianPrice(items []model.ComparableItem) float64 {
	var prices []float64
	for _, item := range items {
		if item.Price > 0 {
			prices = append(prices, item.Price)
		}
	}
	if len(prices) == 0 {
		return 0
	}
	for i := 1; i < len(prices); i++ {
		for j := i; j > 0 && prices[j] < prices[j-1]; j-- {
			prices[j], prices[j-1] = prices[j-1], prices[j]
		}
	}
	if len(prices)%2 == 1 {
		return prices[len(prices)/2]
	}
	return (prices[len(prices)/2-1] + prices[len(prices)/2]) / 2
}
