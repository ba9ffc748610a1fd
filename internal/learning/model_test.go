package learning

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// countingStore records persistence calls and can be told to fail.
type countingStore struct {
	latest  int
	backups int
	failOn  error
	loaded  *Checkpoint
}

func (s *countingStore) Load() (Checkpoint, bool, error) {
	if s.loaded != nil {
		return *s.loaded, true, nil
	}
	return Checkpoint{}, false, nil
}

func (s *countingStore) SaveLatest(Checkpoint) error {
	if s.failOn != nil {
		return s.failOn
	}
	s.latest++
	return nil
}

func (s *countingStore) SaveBackup(Checkpoint) error {
	if s.failOn != nil {
		return s.failOn
	}
	s.backups++
	return nil
}

func TestPredict_BaselineBias(t *testing.T) {
	m, err := NewModel(nil)
	if err != nil {
		t.Fatal(err)
	}

	// All-zero features leave only the bias: sigmoid(-1.0).
	got := m.Predict(Features{})
	want := 1.0 / (1.0 + math.Exp(1.0))
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Predict(zero) = %v, want %v", got, want)
	}
}

func TestPredict_RiskFeaturesRaiseProbability(t *testing.T) {
	m, _ := NewModel(nil)

	var clean Features
	risky := Features{
		FeatOffPlatformPayment: 1,
		FeatPriceAnomaly:       1,
		FeatStockImages:        1,
	}

	if m.Predict(risky) <= m.Predict(clean) {
		t.Error("risk flags should raise the fraud probability")
	}
}

func TestPredict_ClampsInputs(t *testing.T) {
	m, _ := NewModel(nil)

	extreme := Features{FeatPriceVsMarket: 9999, FeatSellerFeedback: -50}
	p := m.Predict(extreme)
	if p < 0 || p > 1 || math.IsNaN(p) {
		t.Errorf("probability out of range: %v", p)
	}
}

func TestOnlineUpdate_MovesTowardLabel(t *testing.T) {
	m, _ := NewModel(nil)

	f := Features{FeatOffPlatformPayment: 1, FeatPriceAnomaly: 1}
	before := m.Predict(f)

	for i := 0; i < 50; i++ {
		if err := m.OnlineUpdate(f, 1); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	after := m.Predict(f)
	if after <= before {
		t.Errorf("probability should rise toward label 1: before %v, after %v", before, after)
	}
}

func TestOnlineUpdate_RejectsBadLabel(t *testing.T) {
	m, _ := NewModel(nil)
	if err := m.OnlineUpdate(Features{}, 2); err == nil {
		t.Error("expected error for label outside {0, 1}")
	}
}

func TestOnlineUpdate_VersionAndBackupCadence(t *testing.T) {
	store := &countingStore{}
	m, err := NewModel(store)
	if err != nil {
		t.Fatal(err)
	}
	store.latest = 0 // ignore the initial checkpoint

	for i := 0; i < 100; i++ {
		if err := m.OnlineUpdate(Features{FeatPriceAnomaly: 1}, 1); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	st := m.Status()
	if st.UpdateCount != 100 {
		t.Errorf("UpdateCount = %d, want 100", st.UpdateCount)
	}
	if st.Version != 101 {
		t.Errorf("Version = %d, want 101 (1 + one per update)", st.Version)
	}
	if store.latest != 100 {
		t.Errorf("SaveLatest called %d times, want 100", store.latest)
	}
	if store.backups != 1 {
		t.Errorf("SaveBackup called %d times, want exactly 1 at update 100", store.backups)
	}
}

func TestOnlineUpdate_PersistFailureKeepsMemoryState(t *testing.T) {
	store := &countingStore{failOn: errors.New("disk full")}
	m, _ := NewModel(store)

	err := m.OnlineUpdate(Features{FeatPriceAnomaly: 1}, 1)
	if err == nil {
		t.Fatal("expected persistence error to surface")
	}

	// The in-memory update must have been applied regardless.
	if st := m.Status(); st.UpdateCount != 1 {
		t.Errorf("UpdateCount = %d, want 1 despite failed save", st.UpdateCount)
	}
}

// stallingStore holds the first post-init SaveLatest inside the store
// long enough for a concurrent update to race it to the latest slot.
type stallingStore struct {
	mu      sync.Mutex
	saved   []int
	stalled bool
}

func (s *stallingStore) Load() (Checkpoint, bool, error) { return Checkpoint{}, false, nil }

func (s *stallingStore) SaveLatest(cp Checkpoint) error {
	s.mu.Lock()
	stall := cp.Version == 2 && !s.stalled
	if stall {
		s.stalled = true
	}
	s.mu.Unlock()

	if stall {
		time.Sleep(50 * time.Millisecond)
	}

	s.mu.Lock()
	s.saved = append(s.saved, cp.Version)
	s.mu.Unlock()
	return nil
}

func (s *stallingStore) SaveBackup(Checkpoint) error { return nil }

func TestOnlineUpdate_ConcurrentSavesNeverRegressLatest(t *testing.T) {
	store := &stallingStore{}
	m, err := NewModel(store)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.OnlineUpdate(Features{FeatPriceAnomaly: 1}, 1); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	store.mu.Lock()
	saved := append([]int(nil), store.saved...)
	store.mu.Unlock()

	for i := 1; i < len(saved); i++ {
		if saved[i] <= saved[i-1] {
			t.Fatalf("latest checkpoint regressed, save order %v", saved)
		}
	}
	if got, want := saved[len(saved)-1], m.Status().Version; got != want {
		t.Errorf("last saved version = %d, want in-memory version %d", got, want)
	}
}

func TestNewModel_LoadsCheckpoint(t *testing.T) {
	weights := initialWeights
	weights[FeatOffPlatformPayment] = 3.5
	store := &countingStore{loaded: &Checkpoint{
		Weights:     weights,
		Bias:        -0.5,
		Version:     7,
		UpdateCount: 42,
		FeatureKeys: FeatureNames[:],
	}}

	m, err := NewModel(store)
	if err != nil {
		t.Fatal(err)
	}

	st := m.Status()
	if st.Version != 7 || st.UpdateCount != 42 {
		t.Errorf("loaded version/updates = %d/%d, want 7/42", st.Version, st.UpdateCount)
	}
	if st.Weights["off_platform_payment"] != 3.5 {
		t.Errorf("loaded weight = %v, want 3.5", st.Weights["off_platform_payment"])
	}
}

func TestExplainTop_RanksByAbsoluteContribution(t *testing.T) {
	m, _ := NewModel(nil)

	f := Features{
		FeatOffPlatformPayment: 1,   // |2.5|
		FeatSellerFeedback:     1,   // |-1.5|
		FeatDescLength:         0.5, // |0.3|
	}

	top := m.ExplainTop(f, 2)
	if len(top) != 2 {
		t.Fatalf("got %d contributions, want 2", len(top))
	}
	if top[0].Feature != "off_platform_payment" {
		t.Errorf("top contributor = %q, want off_platform_payment", top[0].Feature)
	}
	if top[1].Feature != "seller_feedback_pct" {
		t.Errorf("second contributor = %q, want seller_feedback_pct", top[1].Feature)
	}
}

func TestValidateHoldout(t *testing.T) {
	m, _ := NewModel(nil)

	if res := m.ValidateHoldout(); res.Status != "insufficient_data" {
		t.Errorf("status = %q, want insufficient_data with empty buffer", res.Status)
	}

	risky := Features{FeatOffPlatformPayment: 1, FeatPriceAnomaly: 1, FeatStockImages: 1}
	for i := 0; i < 15; i++ {
		if err := m.OnlineUpdate(risky, 1); err != nil {
			t.Fatal(err)
		}
	}

	res := m.ValidateHoldout()
	if res.Status != "calculated" {
		t.Fatalf("status = %q, want calculated", res.Status)
	}
	if res.SampleSize != 15 {
		t.Errorf("SampleSize = %d, want 15", res.SampleSize)
	}
	if res.Accuracy < 0 || res.Accuracy > 1 {
		t.Errorf("Accuracy = %v, out of range", res.Accuracy)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("empty store Load = ok %v, err %v; want miss", ok, err)
	}

	cp := Checkpoint{
		Weights:     initialWeights,
		Bias:        initialBias,
		Version:     3,
		UpdateCount: 12,
		FeatureKeys: FeatureNames[:],
	}
	if err := store.SaveLatest(cp); err != nil {
		t.Fatal(err)
	}

	loaded, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load after save = ok %v, err %v", ok, err)
	}
	if loaded.Version != 3 || loaded.UpdateCount != 12 {
		t.Errorf("loaded %d/%d, want 3/12", loaded.Version, loaded.UpdateCount)
	}
	if loaded.Weights != cp.Weights {
		t.Error("weights did not round-trip")
	}
}

func TestFileStore_BackupNaming(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SaveBackup(Checkpoint{Version: 5, FeatureKeys: FeatureNames[:]}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "model_backup_") && strings.HasSuffix(e.Name(), "_v5.json") {
			found = true
		}
	}
	if !found {
		t.Errorf("no timestamped backup in %v", names(entries))
	}
}

func TestFileStore_RejectsWrongFeatureCount(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)

	bad := []byte(`{"weights":[0,0,0,0,0,0,0,0,0],"feature_keys":["only_one"]}`)
	if err := os.WriteFile(filepath.Join(dir, "online_model.json"), bad, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := store.Load(); err == nil {
		t.Error("expected error for checkpoint with wrong feature count")
	}
}

func names(entries []os.DirEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name()
	}
	return out
}
