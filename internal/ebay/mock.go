package ebay

import (
	"context"
	"sync"

	"github.com/guarzo/trustguard/internal/model"
)

// Mock is an in-memory Provider for tests and offline runs.
type Mock struct {
	mu     sync.Mutex
	Sold   []model.ComparableItem
	Active []model.ComparableItem
	Err    error
	calls  int
}

// NewMock returns a Mock with no canned data.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Available() bool { return true }

func (m *Mock) FetchComparables(_ context.Context, _, _ string) ([]model.ComparableItem, []model.ComparableItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, nil, m.Err
	}
	return m.Sold, m.Active, nil
}

// Calls reports how many fetches were made.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Provider = (*Mock)(nil)
