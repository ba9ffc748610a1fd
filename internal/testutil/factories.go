package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/guarzo/trustguard/internal/model"
)

// TestDataFactory provides methods for generating dynamic test data
type TestDataFactory struct {
	rand *rand.Rand
}

// NewTestDataFactory creates a new test data factory with a seeded random generator
func NewTestDataFactory(seed int64) *TestDataFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestDataFactory{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// GenerateListingTitle generates a random marketplace listing title
func (f *TestDataFactory) GenerateListingTitle() string {
	brands := []string{"Apple iPhone 13", "Samsung Galaxy S23", "Sony WH-1000XM5", "Nintendo Switch OLED", "Dell XPS 15"}
	suffixes := []string{"128GB Unlocked", "256GB", "Black", "Bundle", "Open Box"}
	return fmt.Sprintf("%s %s", brands[f.rand.Intn(len(brands))], suffixes[f.rand.Intn(len(suffixes))])
}

// GenerateTestPrice generates a random price between $5 and $500
func (f *TestDataFactory) GenerateTestPrice() float64 {
	return float64(f.rand.Intn(49500)+500) / 100
}

// GenerateListing generates a complete listing with plausible fields
func (f *TestDataFactory) GenerateListing() model.Listing {
	price := f.GenerateTestPrice()
	return model.Listing{
		Title:          f.GenerateListingTitle(),
		Price:          price,
		Description:    "Lightly used, works perfectly. Ships same day from a smoke-free home.",
		Category:       fmt.Sprintf("%d", f.rand.Intn(9000)+1000),
		Condition:      "used",
		Photos:         make([]string, f.rand.Intn(8)),
		HasReturns:     f.rand.Intn(2) == 0,
		FreeShipping:   f.rand.Intn(2) == 0,
		BuyItNow:       true,
		MarketEstimate: price * (0.9 + f.rand.Float64()*0.3),
		Seller: model.SellerInfo{
			FeedbackPct:    90 + f.rand.Float64()*10,
			AccountAgeDays: f.rand.Intn(3000),
		},
	}
}

// GenerateComparable generates one sold or active comparable item
func (f *TestDataFactory) GenerateComparable(sold bool) model.ComparableItem {
	return model.ComparableItem{
		ID:                  fmt.Sprintf("%012d", f.rand.Int63n(1e12)),
		Title:               f.GenerateListingTitle(),
		Price:               f.GenerateTestPrice(),
		Currency:            "USD",
		Condition:           "Used",
		CategoryID:          fmt.Sprintf("%d", f.rand.Intn(9000)+1000),
		ListingType:         "FixedPrice",
		Sold:                sold,
		SellerFeedbackScore: f.rand.Intn(5000),
		SellerFeedbackPct:   90 + f.rand.Float64()*10,
		EndTime:             f.GenerateTestDate(),
	}
}

// GenerateComparables generates n comparable items
func (f *TestDataFactory) GenerateComparables(n int, sold bool) []model.ComparableItem {
	items := make([]model.ComparableItem, n)
	for i := range items {
		items[i] = f.GenerateComparable(sold)
	}
	return items
}

// GenerateTestDate generates a random date within the last year
func (f *TestDataFactory) GenerateTestDate() time.Time {
	days := f.rand.Intn(365)
	return time.Now().AddDate(0, 0, -days)
}
