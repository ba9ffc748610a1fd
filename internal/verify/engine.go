// Package verify orchestrates a full listing verification: fingerprint
// and comparable fetch run in parallel, then pattern analysis, trust
// scoring, and the instant decision.
package verify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/guarzo/trustguard/internal/analysis"
	"github.com/guarzo/trustguard/internal/ebay"
	"github.com/guarzo/trustguard/internal/fingerprint"
	"github.com/guarzo/trustguard/internal/model"
)

// Engine runs verifications. Safe for concurrent use; per-request
// state lives on the stack, only the stats counters are shared.
type Engine struct {
	provider ebay.Provider

	mu        sync.Mutex
	completed int
	failed    int
	totalTime time.Duration
}

// NewEngine wires a verification engine to a comparable provider.
func NewEngine(provider ebay.Provider) *Engine {
	return &Engine{provider: provider}
}

// Verify produces a structured result for a listing. It never returns
// an error: when comparable data is unavailable it degrades to a
// conservative low-trust result instead.
func (e *Engine) Verify(ctx context.Context, listing model.Listing) model.VerificationResult {
	start := time.Now()

	// The fetch is the slow path; fingerprinting runs alongside it.
	type fetchResult struct {
		sold   []model.ComparableItem
		active []model.ComparableItem
		err    error
	}
	fetchCh := make(chan fetchResult, 1)
	go func() {
		var fr fetchResult
		if e.provider != nil && e.provider.Available() {
			fr.sold, fr.active, fr.err = e.provider.FetchComparables(ctx, listing.Title, listing.Category)
		}
		fetchCh <- fr
	}()

	fp := fingerprint.Build(listing)

	var fetched fetchResult
	select {
	case fetched = <-fetchCh:
	case <-ctx.Done():
		fetched.err = ctx.Err()
	}

	if fetched.err != nil {
		log.Printf("verify: comparable fetch failed for %q: %v", listing.Title, fetched.err)
		return e.fallbackResult(fetched.err, start)
	}

	summary := analysis.Summarize(fetched.sold)
	fp.SuccessRate = summary.SuccessRate
	fp.VelocityScore = float64(summary.Velocity)

	comparableCount := len(fetched.sold) + len(fetched.active)
	trustScore := analysis.TrustScore(&fp, summary, comparableCount)
	decision, riskLevel, confidence := instantDecision(trustScore)

	result := model.VerificationResult{
		TrustScore:        round1(trustScore),
		RiskLevel:         riskLevel,
		Decision:          decision,
		Confidence:        round1(confidence),
		PrimaryConcern:    analysis.PrimaryConcern(&fp, comparableCount),
		SimilarItemsFound: comparableCount,
		ProcessingTime:    time.Since(start),
		TemplateMatch:     analysis.TemplateMatch(len(fetched.sold)),
		MarketVelocity:    analysis.VelocityLabel(summary.Velocity),
	}

	e.record(result.ProcessingTime, false)
	return result
}

// instantDecision maps a trust score onto the decision ladder.
func instantDecision(trustScore float64) (string, model.RiskLevel, float64) {
	switch {
	case trustScore >= 80:
		confidence := trustScore
		if confidence > 95 {
			confidence = 95
		}
		return "BUY", model.RiskLow, confidence
	case trustScore >= 60:
		return "BUY", model.RiskMedium, trustScore - 10
	case trustScore >= 40:
		return "CAUTION", model.RiskMedium, trustScore
	case trustScore >= 20:
		return "AVOID", model.RiskHigh, 100 - trustScore
	default:
		return "AVOID", model.RiskCritical, 100 - trustScore
	}
}

// fallbackResult is returned when no comparable data could be fetched.
// Conservative on purpose: unknown listings are treated as risky.
func (e *Engine) fallbackResult(cause error, start time.Time) model.VerificationResult {
	concern := fmt.Sprintf("Verification error: %s", truncate(cause.Error(), 50))

	result := model.VerificationResult{
		TrustScore:     25,
		RiskLevel:      model.RiskHigh,
		Decision:       "AVOID",
		Confidence:     90,
		PrimaryConcern: concern,
		ProcessingTime: time.Since(start),
		MarketVelocity: model.VelocityUnknown,
	}

	e.record(result.ProcessingTime, true)
	return result
}

// Stats summarizes engine activity since startup.
type Stats struct {
	Completed   int           `json:"completed"`
	Failed      int           `json:"failed"`
	AvgDuration time.Duration `json:"avg_duration"`
}

func (e *Engine) record(d time.Duration, failed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if failed {
		e.failed++
	} else {
		e.completed++
	}
	e.totalTime += d
}

// Stats returns cumulative verification counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Stats{Completed: e.completed, Failed: e.failed}
	if total := e.completed + e.failed; total > 0 {
		st.AvgDuration = e.totalTime / time.Duration(total)
	}
	return st
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
