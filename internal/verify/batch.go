package verify

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/guarzo/trustguard/internal/model"
)

// BatchResult pairs one listing with its verification outcome.
type BatchResult struct {
	Listing model.Listing
	Result  model.VerificationResult
}

// Progress reports how far a batch run has advanced.
type Progress struct {
	Completed int
	Total     int
	Current   string
	StartTime time.Time
}

// BatchConfig tunes the batch verifier.
type BatchConfig struct {
	Workers   int        // 0 = NumCPU capped at 10
	RateLimit rate.Limit // verifications per second, 0 = 5/s
}

// BatchVerifier verifies many listings concurrently with a worker
// pool, pacing starts so the upstream quota is not burned in bursts.
type BatchVerifier struct {
	engine  *Engine
	workers int
	limiter *rate.Limiter

	progressCh chan Progress
}

// NewBatchVerifier wraps an engine for bulk runs.
func NewBatchVerifier(engine *Engine, config BatchConfig) *BatchVerifier {
	workers := config.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
		if workers > 10 {
			workers = 10
		}
	}

	limit := config.RateLimit
	if limit == 0 {
		limit = rate.Limit(5)
	}

	return &BatchVerifier{
		engine:     engine,
		workers:    workers,
		limiter:    rate.NewLimiter(limit, workers),
		progressCh: make(chan Progress, 100),
	}
}

// Progress exposes the progress stream. Updates are dropped rather
// than blocking when the consumer lags.
func (b *BatchVerifier) Progress() <-chan Progress {
	return b.progressCh
}

// VerifyAll runs every listing through the engine and returns results
// in completion order. Cancelling the context returns the results
// collected so far.
func (b *BatchVerifier) VerifyAll(ctx context.Context, listings []model.Listing) []BatchResult {
	if len(listings) == 0 {
		return nil
	}

	start := time.Now()
	jobs := make(chan model.Listing, len(listings))
	results := make(chan BatchResult, len(listings))

	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go b.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for _, l := range listings {
			select {
			case jobs <- l:
			case <-ctx.Done():
				return
			}
		}
	}()

	all := make([]BatchResult, 0, len(listings))
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(results)
		close(done)
	}()

	for {
		select {
		case r, ok := <-results:
			if !ok {
				return all
			}
			all = append(all, r)
			select {
			case b.progressCh <- Progress{
				Completed: len(all),
				Total:     len(listings),
				Current:   r.Listing.Title,
				StartTime: start,
			}:
			default:
			}
		case <-ctx.Done():
			<-done
			// Drain whatever the workers finished before shutdown.
			for r := range results {
				all = append(all, r)
			}
			return all
		}
	}
}

func (b *BatchVerifier) worker(ctx context.Context, jobs <-chan model.Listing, results chan<- BatchResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case listing, ok := <-jobs:
			if !ok {
				return
			}
			if err := b.limiter.Wait(ctx); err != nil {
				return
			}
			result := b.engine.Verify(ctx, listing)
			select {
			case results <- BatchResult{Listing: listing, Result: result}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
