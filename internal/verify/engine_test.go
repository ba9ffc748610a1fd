package verify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/guarzo/trustguard/internal/ebay"
	"github.com/guarzo/trustguard/internal/model"
)

func goodListing() model.Listing {
	return model.Listing{
		Title:          "Apple iPhone 13 Pro Max 256GB Unlocked",
		Price:          800,
		Description:    strings.Repeat("Well maintained phone with original box and accessories. ", 6),
		Category:       "9355",
		Condition:      "used",
		Photos:         []string{"a", "b", "c", "d", "e"},
		HasReturns:     true,
		FreeShipping:   true,
		BuyItNow:       true,
		MarketEstimate: 820,
		Seller:         model.SellerInfo{FeedbackPct: 99.2, AccountAgeDays: 1500},
	}
}

func comparables(n int, price float64) []model.ComparableItem {
	items := make([]model.ComparableItem, n)
	for i := range items {
		items[i] = model.ComparableItem{
			ID:                "c",
			Title:             "Apple iPhone 13 Pro Max",
			Price:             price,
			SellerFeedbackPct: 99,
			Sold:              true,
		}
	}
	return items
}

func TestVerify_HealthyListingBuys(t *testing.T) {
	mock := ebay.NewMock()
	mock.Sold = comparables(60, 790)
	mock.Active = comparables(20, 810)

	e := NewEngine(mock)
	res := e.Verify(context.Background(), goodListing())

	if res.Decision != "BUY" {
		t.Errorf("Decision = %q, want BUY (trust %v)", res.Decision, res.TrustScore)
	}
	if res.RiskLevel != model.RiskLow && res.RiskLevel != model.RiskMedium {
		t.Errorf("RiskLevel = %q, want LOW or MEDIUM", res.RiskLevel)
	}
	if res.SimilarItemsFound != 80 {
		t.Errorf("SimilarItemsFound = %d, want 80", res.SimilarItemsFound)
	}
	if res.MarketVelocity != model.VelocityFast {
		t.Errorf("MarketVelocity = %q, want FAST for 60 recent sales", res.MarketVelocity)
	}
	if res.TemplateMatch != 100 {
		t.Errorf("TemplateMatch = %v, want capped 100", res.TemplateMatch)
	}
	if res.Confidence < 0 || res.Confidence > 100 {
		t.Errorf("Confidence = %v, out of range", res.Confidence)
	}
}

func TestVerify_SuspiciouslyCheapAvoids(t *testing.T) {
	mock := ebay.NewMock()
	mock.Sold = comparables(30, 750)

	listing := goodListing()
	listing.Price = 50
	listing.MarketEstimate = 750
	listing.Seller = model.SellerInfo{FeedbackPct: 70, AccountAgeDays: 20}
	listing.HasReturns = false
	listing.FreeShipping = false
	listing.BuyItNow = false
	listing.Photos = nil
	listing.Description = "phone"

	e := NewEngine(mock)
	res := e.Verify(context.Background(), listing)

	if res.Decision == "BUY" {
		t.Errorf("Decision = BUY for a scam-shaped listing (trust %v)", res.TrustScore)
	}
	if res.PrimaryConcern != "Price too low - possible scam" {
		t.Errorf("PrimaryConcern = %q", res.PrimaryConcern)
	}
	if res.RiskLevel != model.RiskHigh && res.RiskLevel != model.RiskCritical && res.RiskLevel != model.RiskMedium {
		t.Errorf("RiskLevel = %q", res.RiskLevel)
	}
}

func TestVerify_FetchFailureFallsBackConservatively(t *testing.T) {
	mock := ebay.NewMock()
	mock.Err = errors.New("both comparable queries failed")

	e := NewEngine(mock)
	res := e.Verify(context.Background(), goodListing())

	if res.TrustScore != 25 {
		t.Errorf("TrustScore = %v, want conservative 25", res.TrustScore)
	}
	if res.RiskLevel != model.RiskHigh || res.Decision != "AVOID" {
		t.Errorf("fallback = %q/%q, want HIGH/AVOID", res.RiskLevel, res.Decision)
	}
	if res.Confidence != 90 {
		t.Errorf("Confidence = %v, want 90", res.Confidence)
	}
	if !strings.HasPrefix(res.PrimaryConcern, "Verification error: ") {
		t.Errorf("PrimaryConcern = %q", res.PrimaryConcern)
	}
	if res.MarketVelocity != model.VelocityUnknown {
		t.Errorf("MarketVelocity = %q, want UNKNOWN", res.MarketVelocity)
	}
}

func TestVerify_NoComparablesStillReturnsResult(t *testing.T) {
	e := NewEngine(ebay.NewMock())
	res := e.Verify(context.Background(), goodListing())

	if res.SimilarItemsFound != 0 {
		t.Errorf("SimilarItemsFound = %d, want 0", res.SimilarItemsFound)
	}
	if res.Decision == "" {
		t.Error("empty market must still produce a decision")
	}
	if res.PrimaryConcern != "Limited market data" {
		t.Errorf("PrimaryConcern = %q, want Limited market data", res.PrimaryConcern)
	}
}

func TestInstantDecision_Ladder(t *testing.T) {
	tests := []struct {
		trust    float64
		decision string
		risk     model.RiskLevel
	}{
		{90, "BUY", model.RiskLow},
		{80, "BUY", model.RiskLow},
		{70, "BUY", model.RiskMedium},
		{50, "CAUTION", model.RiskMedium},
		{30, "AVOID", model.RiskHigh},
		{10, "AVOID", model.RiskCritical},
	}

	for _, tt := range tests {
		decision, risk, confidence := instantDecision(tt.trust)
		if decision != tt.decision || risk != tt.risk {
			t.Errorf("instantDecision(%v) = %q/%q, want %q/%q", tt.trust, decision, risk, tt.decision, tt.risk)
		}
		if confidence < 0 || confidence > 100 {
			t.Errorf("instantDecision(%v) confidence = %v", tt.trust, confidence)
		}
	}

	// Confidence caps at 95 even for near-perfect scores.
	if _, _, conf := instantDecision(99); conf != 95 {
		t.Errorf("confidence at trust 99 = %v, want 95", conf)
	}
}

func TestStats(t *testing.T) {
	mock := ebay.NewMock()
	mock.Sold = comparables(10, 800)
	e := NewEngine(mock)

	for i := 0; i < 3; i++ {
		e.Verify(context.Background(), goodListing())
	}

	st := e.Stats()
	if st.Completed != 3 || st.Failed != 0 {
		t.Errorf("Stats = %+v, want 3 completed", st)
	}

	mock.Err = errors.New("down")
	e.Verify(context.Background(), goodListing())

	if st := e.Stats(); st.Failed != 1 {
		t.Errorf("Failed = %d, want 1", st.Failed)
	}
}
