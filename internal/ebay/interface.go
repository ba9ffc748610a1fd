package ebay

import (
	"context"

	"github.com/guarzo/trustguard/internal/model"
)

// Provider abstracts comparable item retrieval for testing and for
// alternative marketplace backends.
type Provider interface {
	Available() bool
	// FetchComparables retrieves sold and active comparables for a
	// listing title. The two legs fail independently; err is non-nil
	// only when both legs failed terminally.
	FetchComparables(ctx context.Context, title, categoryID string) (sold, active []model.ComparableItem, err error)
}

// Ensure the real client satisfies the interface.
var _ Provider = (*Client)(nil)
