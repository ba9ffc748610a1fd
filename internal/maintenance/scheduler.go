// Package maintenance runs the recurring housekeeping jobs: response
// cache purging and periodic model health logging.
package maintenance

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/guarzo/trustguard/internal/cache"
	"github.com/guarzo/trustguard/internal/learning"
)

// Scheduler owns the cron instance; Start and Stop bracket its
// lifetime. Jobs log their outcomes rather than returning errors.
type Scheduler struct {
	cron  *cron.Cron
	cache *cache.Memory
	model *learning.Model
}

// NewScheduler registers the standard jobs. Either dependency may be
// nil to skip its jobs.
func NewScheduler(respCache *cache.Memory, model *learning.Model) (*Scheduler, error) {
	s := &Scheduler{
		cron:  cron.New(),
		cache: respCache,
		model: model,
	}

	if respCache != nil {
		if _, err := s.cron.AddFunc("@every 10m", s.purgeCache); err != nil {
			return nil, err
		}
	}
	if model != nil {
		if _, err := s.cron.AddFunc("@hourly", s.logModelHealth); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) purgeCache() {
	purged := s.cache.PurgeExpired()
	if purged > 0 {
		log.Printf("maintenance: purged %d expired cache entries", purged)
	}
}

func (s *Scheduler) logModelHealth() {
	st := s.model.Status()
	log.Printf("maintenance: model v%d, %d updates, drift=%s, accuracy=%s",
		st.Version, st.UpdateCount, st.Drift.Status, st.Accuracy.Status)

	if st.Drift.Status == "drift_detected" {
		log.Printf("maintenance: WARNING prediction drift detected, ratio %.3f (recent %.3f vs baseline %.3f)",
			st.Drift.DriftRatio, st.Drift.RecentAvg, st.Drift.BaselineAvg)
	}
}
