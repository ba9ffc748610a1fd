package learning

import (
	"testing"
	"time"
)

func day(n int) time.Time {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, n)
}

func TestDriftMetrics_InsufficientData(t *testing.T) {
	m := NewMonitor(1000)

	for i := 0; i < 5; i++ {
		m.AddPrediction(0.4, day(i))
	}

	got := m.DriftMetrics()
	if got.Status != "insufficient_data" {
		t.Errorf("status = %q, want insufficient_data", got.Status)
	}
	if got.DaysMonitored != 5 {
		t.Errorf("DaysMonitored = %d, want 5", got.DaysMonitored)
	}
}

func TestDriftMetrics_StablePredictionsAreNormal(t *testing.T) {
	m := NewMonitor(1000)

	for i := 0; i < 10; i++ {
		m.AddPrediction(0.4, day(i))
		m.AddPrediction(0.42, day(i))
	}

	got := m.DriftMetrics()
	if got.Status != "normal" {
		t.Errorf("status = %q, want normal (ratio %v)", got.Status, got.DriftRatio)
	}
}

func TestDriftMetrics_DetectsRiskShift(t *testing.T) {
	m := NewMonitor(1000)

	// Seven baseline days around 0.3, then three days around 0.7.
	for i := 0; i < 7; i++ {
		m.AddPrediction(0.3, day(i))
	}
	for i := 7; i < 10; i++ {
		m.AddPrediction(0.7, day(i))
	}

	got := m.DriftMetrics()
	if got.Status != "drift_detected" {
		t.Errorf("status = %q, want drift_detected (ratio %v)", got.Status, got.DriftRatio)
	}
	if got.DriftRatio < 2.0 || got.DriftRatio > 2.5 {
		t.Errorf("DriftRatio = %v, want ~2.33", got.DriftRatio)
	}
}

func TestAccuracyMetrics_InsufficientLabels(t *testing.T) {
	m := NewMonitor(1000)

	at := day(0)
	for i := 0; i < 20; i++ {
		m.AddLabeled(0.9, 1, at)
	}

	got := m.AccuracyMetrics()
	if got.Status != "insufficient_labels" {
		t.Errorf("status = %q, want insufficient_labels", got.Status)
	}
	if got.SampleSize != 20 {
		t.Errorf("SampleSize = %d, want 20", got.SampleSize)
	}
}

func TestAccuracyMetrics_PerfectAgreement(t *testing.T) {
	m := NewMonitor(1000)

	at := day(0)
	for i := 0; i < 60; i++ {
		label := i % 2
		prob := 0.9
		if label == 0 {
			prob = 0.1
		}
		m.AddLabeled(prob, label, at.Add(time.Duration(i)*time.Minute))
	}

	got := m.AccuracyMetrics()
	if got.Status != "calculated" {
		t.Fatalf("status = %q, want calculated", got.Status)
	}
	if got.Accuracy != 1.0 {
		t.Errorf("Accuracy = %v, want 1.0", got.Accuracy)
	}
	if got.LogLoss <= 0 || got.LogLoss > 0.2 {
		t.Errorf("LogLoss = %v, want small positive", got.LogLoss)
	}
}

func TestMonitor_WindowEviction(t *testing.T) {
	m := NewMonitor(10)

	at := day(0)
	for i := 0; i < 25; i++ {
		m.AddPrediction(0.5, at)
	}

	m.mu.Lock()
	n := len(m.preds)
	m.mu.Unlock()
	if n != 10 {
		t.Errorf("retained %d predictions, want window of 10", n)
	}
}
