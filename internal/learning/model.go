package learning

import (
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"
)

const (
	defaultLearningRate  = 0.01
	defaultBackupEvery   = 100
	holdoutBufferSize    = 100
	defaultMonitorWindow = 1000
)

// Model is an online logistic regression classifier over the listing
// feature vector. Predictions take a read lock; updates take the write
// lock, so reads stay cheap under concurrent verification traffic.
type Model struct {
	mu sync.RWMutex

	weights      Features
	bias         float64
	version      int
	updateCount  int
	createdAt    time.Time
	learningRate float64
	backupEvery  int

	holdout []labeledExample // ring buffer, newest last

	store   CheckpointStore
	monitor *Monitor

	// saveMu serializes checkpoint writes; lastSaved (guarded by it)
	// is the highest version the store has accepted, so a slow save
	// can never overwrite a newer one in the latest slot.
	saveMu    sync.Mutex
	lastSaved int
}

type labeledExample struct {
	features Features
	label    int
	addedAt  time.Time
}

// Contribution is one feature's share of a prediction.
type Contribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"contribution"`
}

// Status is a point-in-time snapshot of model state and health.
type Status struct {
	Version       int                `json:"version"`
	UpdateCount   int                `json:"update_count"`
	CreatedAt     time.Time          `json:"created_at"`
	FeatureCount  int                `json:"feature_count"`
	HoldoutSize   int                `json:"holdout_buffer_size"`
	Weights       map[string]float64 `json:"weights"`
	Bias          float64            `json:"bias"`
	Drift         DriftMetrics       `json:"drift_detection"`
	Accuracy      AccuracyMetrics    `json:"accuracy_metrics"`
	UsingFallback bool               `json:"using_fallback"`
}

// NewModel loads state from the store if a checkpoint exists, else
// starts from the hand-tuned baseline. A nil store keeps everything
// in memory.
func NewModel(store CheckpointStore) (*Model, error) {
	m := &Model{
		weights:      initialWeights,
		bias:         initialBias,
		version:      1,
		createdAt:    time.Now(),
		learningRate: defaultLearningRate,
		backupEvery:  defaultBackupEvery,
		store:        store,
		monitor:      NewMonitor(defaultMonitorWindow),
	}

	if store != nil {
		cp, ok, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		if ok {
			m.weights = cp.Weights
			m.bias = cp.Bias
			m.version = cp.Version
			m.updateCount = cp.UpdateCount
			m.createdAt = cp.CreatedAt
			m.lastSaved = cp.Version
			log.Printf("learning: loaded model version %d with %d updates", m.version, m.updateCount)
		} else {
			if err := store.SaveLatest(m.checkpoint()); err != nil {
				log.Printf("learning: could not save initial checkpoint: %v", err)
			} else {
				m.lastSaved = m.version
			}
		}
	}

	return m, nil
}

// SetBackupInterval overrides how many updates elapse between backups.
func (m *Model) SetBackupInterval(n int) {
	if n < 1 {
		return
	}
	m.mu.Lock()
	m.backupEvery = n
	m.mu.Unlock()
}

// Predict returns the fraud probability for a feature vector and
// records it for drift monitoring.
func (m *Model) Predict(f Features) float64 {
	f = f.Normalize()

	m.mu.RLock()
	prob := logistic(m.weights, m.bias, f)
	m.mu.RUnlock()

	// Degenerate weights fall back to the interpretable baseline so a
	// bad update run cannot push predictions to NaN.
	if math.IsNaN(prob) || math.IsInf(prob, 0) {
		log.Printf("learning: degenerate prediction, using baseline weights")
		prob = logistic(initialWeights, initialBias, f)
	}

	m.monitor.AddPrediction(prob, time.Now())
	return prob
}

// ExplainTop returns the topN features by absolute contribution to a
// prediction. Before any real updates the baseline weights are used.
func (m *Model) ExplainTop(f Features, topN int) []Contribution {
	f = f.Normalize()

	m.mu.RLock()
	weights := m.weights
	if m.updateCount == 0 {
		weights = initialWeights
	}
	m.mu.RUnlock()

	contributions := make([]Contribution, NumFeatures)
	for i := range weights {
		contributions[i] = Contribution{
			Feature: FeatureNames[i],
			Value:   weights[i] * f[i],
		}
	}
	sort.Slice(contributions, func(a, b int) bool {
		return math.Abs(contributions[a].Value) > math.Abs(contributions[b].Value)
	})

	if topN > 0 && topN < len(contributions) {
		contributions = contributions[:topN]
	}
	return contributions
}

// OnlineUpdate applies one labeled example (label 1 = fraudulent) via
// a single gradient step, bumps the version, and persists. The update
// survives even when persistence fails; the error reports the save
// problem so callers can alert on it.
func (m *Model) OnlineUpdate(f Features, label int) error {
	if label != 0 && label != 1 {
		return fmt.Errorf("label must be 0 or 1, got %d", label)
	}
	f = f.Normalize()

	m.mu.Lock()
	pred := logistic(m.weights, m.bias, f)
	gradient := pred - float64(label)
	for i := range m.weights {
		m.weights[i] -= m.learningRate * gradient * f[i]
	}
	m.bias -= m.learningRate * gradient

	m.updateCount++
	m.version++
	m.holdout = append(m.holdout, labeledExample{features: f, label: label, addedAt: time.Now()})
	if len(m.holdout) > holdoutBufferSize {
		m.holdout = m.holdout[1:]
	}

	cp := m.checkpoint()
	needBackup := m.updateCount%m.backupEvery == 0
	updated := logistic(m.weights, m.bias, f)
	m.mu.Unlock()

	m.monitor.AddLabeled(updated, label, time.Now())

	// Persistence happens outside the model lock so concurrent Predict
	// calls are not blocked on disk IO. Writes still serialize behind
	// saveMu, and a checkpoint that lost the race to a newer version is
	// skipped rather than written over it.
	if m.store != nil {
		m.saveMu.Lock()
		defer m.saveMu.Unlock()

		if cp.Version > m.lastSaved {
			if err := m.store.SaveLatest(cp); err != nil {
				return fmt.Errorf("save checkpoint: %w", err)
			}
			m.lastSaved = cp.Version
		}
		if needBackup {
			if err := m.store.SaveBackup(cp); err != nil {
				return fmt.Errorf("save backup: %w", err)
			}
			log.Printf("learning: backup created at version %d", cp.Version)
		}
	}
	return nil
}

// Status reports version, weights, drift, and accuracy in one snapshot.
func (m *Model) Status() Status {
	m.mu.RLock()
	st := Status{
		Version:       m.version,
		UpdateCount:   m.updateCount,
		CreatedAt:     m.createdAt,
		FeatureCount:  NumFeatures,
		HoldoutSize:   len(m.holdout),
		Bias:          m.bias,
		UsingFallback: m.updateCount == 0,
		Weights:       make(map[string]float64, NumFeatures),
	}
	for i, w := range m.weights {
		st.Weights[FeatureNames[i]] = w
	}
	m.mu.RUnlock()

	st.Drift = m.monitor.DriftMetrics()
	st.Accuracy = m.monitor.AccuracyMetrics()
	return st
}

// HoldoutResult is the outcome of validating current weights against
// the retained labeled examples.
type HoldoutResult struct {
	Status     string  `json:"status"` // "insufficient_data" or "calculated"
	Accuracy   float64 `json:"accuracy"`
	SampleSize int     `json:"sample_size"`
}

// ValidateHoldout scores the current weights against the holdout
// buffer. Needs at least 10 retained examples.
func (m *Model) ValidateHoldout() HoldoutResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.holdout) < 10 {
		return HoldoutResult{Status: "insufficient_data", SampleSize: len(m.holdout)}
	}

	correct := 0
	for _, ex := range m.holdout {
		prob := logistic(m.weights, m.bias, ex.features)
		pred := 0
		if prob > 0.5 {
			pred = 1
		}
		if pred == ex.label {
			correct++
		}
	}

	return HoldoutResult{
		Status:     "calculated",
		Accuracy:   float64(correct) / float64(len(m.holdout)),
		SampleSize: len(m.holdout),
	}
}

// checkpoint snapshots current state. Must be called with mu held.
func (m *Model) checkpoint() Checkpoint {
	return Checkpoint{
		Weights:     m.weights,
		Bias:        m.bias,
		Version:     m.version,
		UpdateCount: m.updateCount,
		FeatureKeys: FeatureNames[:],
		CreatedAt:   m.createdAt,
		UpdatedAt:   time.Now(),
	}
}

// logistic computes sigmoid(w·f + b) with the exponent bounded to
// avoid overflow.
func logistic(weights Features, bias float64, f Features) float64 {
	s := bias
	for i := range weights {
		s += weights[i] * f[i]
	}
	if s > 500 {
		s = 500
	} else if s < -500 {
		s = -500
	}
	return 1.0 / (1.0 + math.Exp(-s))
}
