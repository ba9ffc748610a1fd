package testutil

import "testing"

func TestFactoryDeterministicWithSeed(t *testing.T) {
	a := NewTestDataFactory(42)
	b := NewTestDataFactory(42)

	if a.GenerateListingTitle() != b.GenerateListingTitle() {
		t.Error("same seed should generate identical titles")
	}
	if a.GenerateTestPrice() != b.GenerateTestPrice() {
		t.Error("same seed should generate identical prices")
	}
}

func TestGenerateListing(t *testing.T) {
	f := NewTestDataFactory(1)
	l := f.GenerateListing()

	if l.Title == "" {
		t.Error("listing should have a title")
	}
	if l.Price < 5 || l.Price > 500 {
		t.Errorf("price %v outside expected range", l.Price)
	}
	if l.Seller.FeedbackPct < 90 || l.Seller.FeedbackPct > 100 {
		t.Errorf("feedback %v outside expected range", l.Seller.FeedbackPct)
	}
}

func TestGenerateComparables(t *testing.T) {
	f := NewTestDataFactory(7)
	items := f.GenerateComparables(5, true)

	if len(items) != 5 {
		t.Fatalf("got %d items, want 5", len(items))
	}
	for _, item := range items {
		if !item.Sold {
			t.Error("items should be marked sold")
		}
		if item.ID == "" || item.Title == "" {
			t.Error("items need id and title")
		}
	}
}
