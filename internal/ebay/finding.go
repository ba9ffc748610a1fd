package ebay

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/guarzo/trustguard/internal/model"
)

// Finding API wraps every scalar in a single-element array, so the
// response structs mirror that shape and parseItem unwraps it.
type searchResponse struct {
	Ack          []string `json:"ack"`
	ErrorMessage []struct {
		Error []struct {
			Message []string `json:"message"`
		} `json:"error"`
	} `json:"errorMessage"`
	SearchResult []struct {
		Count []string      `json:"@count"`
		Item  []findingItem `json:"item"`
	} `json:"searchResult"`
}

type findingItem struct {
	ItemID          []string `json:"itemId"`
	Title           []string `json:"title"`
	PrimaryCategory []struct {
		CategoryID   []string `json:"categoryId"`
		CategoryName []string `json:"categoryName"`
	} `json:"primaryCategory"`
	SellerInfo []struct {
		FeedbackScore       []string `json:"feedbackScore"`
		PositiveFeedbackPct []string `json:"positiveFeedbackPercent"`
		TopRatedSeller      []string `json:"topRatedSeller"`
	} `json:"sellerInfo"`
	SellingStatus []struct {
		CurrentPrice []struct {
			Value      []string `json:"__value__"`
			CurrencyID []string `json:"@currencyId"`
		} `json:"currentPrice"`
		SellingState []string `json:"sellingState"`
	} `json:"sellingStatus"`
	Condition []struct {
		ConditionDisplayName []string `json:"conditionDisplayName"`
	} `json:"condition"`
	ListingInfo []struct {
		ListingType []string `json:"listingType"`
		StartTime   []string `json:"startTime"`
		EndTime     []string `json:"endTime"`
	} `json:"listingInfo"`
}

func (sr *searchResponse) errorText() string {
	if len(sr.ErrorMessage) > 0 && len(sr.ErrorMessage[0].Error) > 0 &&
		len(sr.ErrorMessage[0].Error[0].Message) > 0 {
		return sr.ErrorMessage[0].Error[0].Message[0]
	}
	return "no error detail"
}

// FindCompletedItems fetches recently sold comparables for the keywords.
func (c *Client) FindCompletedItems(ctx context.Context, keywords, categoryID string, maxEntries int) ([]model.ComparableItem, error) {
	params := url.Values{}
	params.Set("keywords", keywords)
	params.Set("itemFilter(0).name", "SoldItemsOnly")
	params.Set("itemFilter(0).value", "true")
	params.Set("sortOrder", "EndTimeSoonest")
	params.Set("paginationInput.entriesPerPage", strconv.Itoa(maxEntries))
	if categoryID != "" {
		params.Set("categoryId", categoryID)
	}

	resp, err := c.makeRequest(ctx, "findCompletedItems", params)
	if err != nil {
		return nil, err
	}
	return collectItems(resp, true), nil
}

// FindActiveItems fetches live comparables for the keywords.
func (c *Client) FindActiveItems(ctx context.Context, keywords, categoryID string, maxEntries int) ([]model.ComparableItem, error) {
	params := url.Values{}
	params.Set("keywords", keywords)
	params.Set("sortOrder", "BestMatch")
	params.Set("paginationInput.entriesPerPage", strconv.Itoa(maxEntries))
	if categoryID != "" {
		params.Set("categoryId", categoryID)
	}

	resp, err := c.makeRequest(ctx, "findItemsAdvanced", params)
	if err != nil {
		return nil, err
	}
	return collectItems(resp, false), nil
}

// FetchComparables runs the sold and active queries concurrently. Each
// leg fails independently; an error is returned only when both legs
// produced nothing.
func (c *Client) FetchComparables(ctx context.Context, title, categoryID string) ([]model.ComparableItem, []model.ComparableItem, error) {
	keywords := OptimizeSearchTerms(title)
	if keywords == "" {
		return nil, nil, fmt.Errorf("no searchable terms in title %q", title)
	}

	var (
		wg        sync.WaitGroup
		sold      []model.ComparableItem
		active    []model.ComparableItem
		soldErr   error
		activeErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		sold, soldErr = c.FindCompletedItems(ctx, keywords, categoryID, c.config.MaxEntries)
	}()
	go func() {
		defer wg.Done()
		active, activeErr = c.FindActiveItems(ctx, keywords, categoryID, c.config.MaxEntries)
	}()
	wg.Wait()

	if soldErr != nil {
		log.Printf("ebay: sold comparables query failed: %v", soldErr)
	}
	if activeErr != nil {
		log.Printf("ebay: active comparables query failed: %v", activeErr)
	}
	if soldErr != nil && activeErr != nil {
		return nil, nil, fmt.Errorf("both comparable queries failed: %w", soldErr)
	}

	return sold, active, nil
}

// collectItems flattens the search result, skipping items that cannot
// be parsed rather than failing the whole response.
func collectItems(resp *searchResponse, sold bool) []model.ComparableItem {
	if len(resp.SearchResult) == 0 {
		return nil
	}

	var items []model.ComparableItem
	for _, raw := range resp.SearchResult[0].Item {
		item, err := parseItem(raw, sold)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

func parseItem(raw findingItem, sold bool) (model.ComparableItem, error) {
	var item model.ComparableItem

	if len(raw.ItemID) == 0 || len(raw.Title) == 0 {
		return item, fmt.Errorf("item missing id or title")
	}
	item.ID = raw.ItemID[0]
	item.Title = raw.Title[0]
	item.Sold = sold

	if len(raw.SellingStatus) > 0 {
		ss := raw.SellingStatus[0]
		if len(ss.CurrentPrice) > 0 {
			cp := ss.CurrentPrice[0]
			if len(cp.Value) > 0 {
				if price, err := strconv.ParseFloat(cp.Value[0], 64); err == nil {
					item.Price = price
				}
			}
			if len(cp.CurrencyID) > 0 {
				item.Currency = cp.CurrencyID[0]
			}
		}
	}

	if len(raw.PrimaryCategory) > 0 {
		pc := raw.PrimaryCategory[0]
		if len(pc.CategoryID) > 0 {
			item.CategoryID = pc.CategoryID[0]
		}
		if len(pc.CategoryName) > 0 {
			item.CategoryName = pc.CategoryName[0]
		}
	}

	if len(raw.SellerInfo) > 0 {
		si := raw.SellerInfo[0]
		if len(si.FeedbackScore) > 0 {
			if score, err := strconv.Atoi(si.FeedbackScore[0]); err == nil {
				item.SellerFeedbackScore = score
			}
		}
		if len(si.PositiveFeedbackPct) > 0 {
			if pct, err := strconv.ParseFloat(si.PositiveFeedbackPct[0], 64); err == nil {
				item.SellerFeedbackPct = pct
			}
		}
	}

	if len(raw.Condition) > 0 && len(raw.Condition[0].ConditionDisplayName) > 0 {
		item.Condition = raw.Condition[0].ConditionDisplayName[0]
	}

	if len(raw.ListingInfo) > 0 {
		li := raw.ListingInfo[0]
		if len(li.ListingType) > 0 {
			item.ListingType = li.ListingType[0]
		}
		if len(li.StartTime) > 0 {
			if t, err := time.Parse(time.RFC3339, li.StartTime[0]); err == nil {
				item.StartTime = t
			}
		}
		if len(li.EndTime) > 0 {
			if t, err := time.Parse(time.RFC3339, li.EndTime[0]); err == nil {
				item.EndTime = t
			}
		}
	}

	if strings.TrimSpace(item.Title) == "" {
		return item, fmt.Errorf("item %s has empty title", item.ID)
	}

	return item, nil
}
