package learning

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is the serialized model state. FeatureKeys are stored so
// a checkpoint written by an older layout is detected on load.
type Checkpoint struct {
	Weights     Features  `json:"weights"`
	Bias        float64   `json:"bias"`
	Version     int       `json:"version"`
	UpdateCount int       `json:"update_count"`
	FeatureKeys []string  `json:"feature_keys"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CheckpointStore persists model state.
type CheckpointStore interface {
	// Load returns the latest checkpoint, or ok=false when none exists.
	Load() (cp Checkpoint, ok bool, err error)
	// SaveLatest overwrites the latest checkpoint.
	SaveLatest(cp Checkpoint) error
	// SaveBackup writes a timestamped copy that SaveLatest never touches.
	SaveBackup(cp Checkpoint) error
}

// FileStore keeps checkpoints as JSON files in a directory: a single
// latest file plus timestamped backups.
type FileStore struct {
	dir string
}

const latestFilename = "online_model.json"

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Load() (Checkpoint, bool, error) {
	var cp Checkpoint

	data, err := os.ReadFile(filepath.Join(s.dir, latestFilename))
	if os.IsNotExist(err) {
		return cp, false, nil
	}
	if err != nil {
		return cp, false, fmt.Errorf("read checkpoint: %w", err)
	}

	if err := json.Unmarshal(data, &cp); err != nil {
		return cp, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	if len(cp.FeatureKeys) != NumFeatures {
		return cp, false, fmt.Errorf("checkpoint has %d features, want %d", len(cp.FeatureKeys), NumFeatures)
	}
	return cp, true, nil
}

func (s *FileStore) SaveLatest(cp Checkpoint) error {
	return s.write(latestFilename, cp)
}

func (s *FileStore) SaveBackup(cp Checkpoint) error {
	name := fmt.Sprintf("model_backup_%s_v%d.json",
		time.Now().Format("20060102_150405"), cp.Version)
	return s.write(name, cp)
}

// write lands the checkpoint atomically via a temp file rename so a
// crash mid-write never corrupts the latest checkpoint.
func (s *FileStore) write(name string, cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}
