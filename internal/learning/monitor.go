package learning

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Monitor tracks recent predictions and labels to detect prediction
// drift and measure accuracy. All methods are safe for concurrent use.
type Monitor struct {
	mu         sync.Mutex
	window     int
	preds      []timedValue // ring, newest last
	labels     []timedLabel
	dailyStats map[string][]float64 // day -> predictions that day
}

type timedValue struct {
	value float64
	at    time.Time
}

type timedLabel struct {
	label int
	at    time.Time
}

// DriftMetrics compares recent average risk against a baseline window.
type DriftMetrics struct {
	Status        string  `json:"status"` // insufficient_data, insufficient_baseline, normal, drift_detected
	RecentAvg     float64 `json:"recent_avg_risk"`
	BaselineAvg   float64 `json:"baseline_avg_risk"`
	DriftRatio    float64 `json:"drift_ratio"`
	DaysMonitored int     `json:"days_monitored"`
}

// AccuracyMetrics reports label-vs-prediction agreement.
type AccuracyMetrics struct {
	Status     string  `json:"status"` // insufficient_labels, insufficient_matches, calculated
	Accuracy   float64 `json:"accuracy"`
	LogLoss    float64 `json:"log_loss"`
	SampleSize int     `json:"sample_size"`
}

// NewMonitor keeps at most window predictions and labels.
func NewMonitor(window int) *Monitor {
	return &Monitor{
		window:     window,
		dailyStats: make(map[string][]float64),
	}
}

// AddPrediction records an unlabeled prediction.
func (m *Monitor) AddPrediction(prediction float64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addPredictionLocked(prediction, at)
}

// AddLabeled records a prediction together with its true label.
func (m *Monitor) AddLabeled(prediction float64, label int, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addPredictionLocked(prediction, at)
	m.labels = append(m.labels, timedLabel{label: label, at: at})
	if len(m.labels) > m.window {
		m.labels = m.labels[1:]
	}
}

func (m *Monitor) addPredictionLocked(prediction float64, at time.Time) {
	m.preds = append(m.preds, timedValue{value: prediction, at: at})
	if len(m.preds) > m.window {
		m.preds = m.preds[1:]
	}
	day := at.Format("2006-01-02")
	m.dailyStats[day] = append(m.dailyStats[day], prediction)
}

// DriftMetrics compares the last 3 days of average risk against the 7
// days before them. A shift of more than 30% either way flags drift.
func (m *Monitor) DriftMetrics() DriftMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.dailyStats) < 7 {
		return DriftMetrics{Status: "insufficient_data", DaysMonitored: len(m.dailyStats)}
	}

	days := make([]string, 0, len(m.dailyStats))
	for day := range m.dailyStats {
		days = append(days, day)
	}
	sort.Strings(days)

	recentDays := days[len(days)-3:]
	baselineStart := len(days) - 10
	if baselineStart < 0 {
		baselineStart = 0
	}
	baselineDays := days[baselineStart : len(days)-3]

	if len(baselineDays) < 3 {
		return DriftMetrics{Status: "insufficient_baseline", DaysMonitored: len(m.dailyStats)}
	}

	recentAvg := m.avgOfDayMeans(recentDays)
	baselineAvg := m.avgOfDayMeans(baselineDays)

	ratio := 1.0
	if baselineAvg > 0 {
		ratio = recentAvg / baselineAvg
	}

	status := "normal"
	if math.Abs(ratio-1.0) > 0.3 {
		status = "drift_detected"
	}

	return DriftMetrics{
		Status:        status,
		RecentAvg:     recentAvg,
		BaselineAvg:   baselineAvg,
		DriftRatio:    ratio,
		DaysMonitored: len(m.dailyStats),
	}
}

func (m *Monitor) avgOfDayMeans(days []string) float64 {
	var sum float64
	for _, day := range days {
		preds := m.dailyStats[day]
		var daySum float64
		for _, p := range preds {
			daySum += p
		}
		if len(preds) > 0 {
			sum += daySum / float64(len(preds))
		}
	}
	return sum / float64(len(days))
}

// AccuracyMetrics matches the last 100 labels against the closest
// prediction within an hour and scores agreement. Needs at least 50
// labels and 10 matched pairs.
func (m *Monitor) AccuracyMetrics() AccuracyMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.labels) < 50 {
		return AccuracyMetrics{Status: "insufficient_labels", SampleSize: len(m.labels)}
	}

	labels := m.labels
	if len(labels) > 100 {
		labels = labels[len(labels)-100:]
	}

	type pair struct {
		prob  float64
		label int
	}
	var pairs []pair
	for _, lb := range labels {
		closest := -1
		minDiff := time.Hour
		for i, p := range m.preds {
			diff := p.at.Sub(lb.at)
			if diff < 0 {
				diff = -diff
			}
			if diff < minDiff {
				minDiff = diff
				closest = i
			}
		}
		if closest >= 0 {
			pairs = append(pairs, pair{prob: m.preds[closest].value, label: lb.label})
		}
	}

	if len(pairs) < 10 {
		return AccuracyMetrics{Status: "insufficient_matches", SampleSize: len(pairs)}
	}

	correct := 0
	var logLoss float64
	for _, p := range pairs {
		pred := 0
		if p.prob > 0.5 {
			pred = 1
		}
		if pred == p.label {
			correct++
		}
		logLoss += -logLossTerm(p.prob, p.label)
	}

	return AccuracyMetrics{
		Status:     "calculated",
		Accuracy:   float64(correct) / float64(len(pairs)),
		LogLoss:    logLoss / float64(len(pairs)),
		SampleSize: len(pairs),
	}
}

// logLossTerm computes log(p) for the true class with probabilities
// clipped away from 0 and 1.
func logLossTerm(prob float64, label int) float64 {
	const eps = 1e-15
	if prob < eps {
		prob = eps
	} else if prob > 1-eps {
		prob = 1 - eps
	}
	if label == 1 {
		return math.Log(prob)
	}
	return math.Log(1 - prob)
}
