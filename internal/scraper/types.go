package scraper

import (
	"context"
	"io"
)

// Sentinel values used when a field's strategies all miss.
const (
	UnknownItem = "Unknown Item"
	NoValue     = "N/A"

	// errorItemName marks records whose fetch failed terminally.
	errorItemName = "Error: Could not fetch"
)

// DefaultTargets is the built-in target list used when no URLs are configured.
var DefaultTargets = []string{
	"https://www.k-bid.com/auction/62603/item/8",
	"https://www.k-bid.com/auction/62603/item/14",
	"https://www.k-bid.com/auction/62603/item/18",
	"https://www.k-bid.com/auction/62481/item/4",
	"https://www.k-bid.com/auction/62483/item/4",
}

// ExtractedItem is the per-URL output record. The JSON field names are the
// wire contract with every downstream consumer and must not change.
type ExtractedItem struct {
	URL             string  `json:"url"`
	ItemName        string  `json:"itemName"`
	CurrentPrice    string  `json:"currentPrice"`
	NextRequiredBid string  `json:"nextRequiredBid"`
	LotFees         float64 `json:"lotFees"`
	BuyersPremium   float64 `json:"buyersPremium"`
	ClosingTime     *string `json:"closingTime"`
	Timestamp       string  `json:"timestamp"`
	Error           string  `json:"error,omitempty"`
}

// Failed reports whether the record is an error record.
func (it *ExtractedItem) Failed() bool {
	return it.Error != ""
}

// Dataset is one batch run's aggregated output.
type Dataset struct {
	LastUpdated string          `json:"lastUpdated"`
	Items       []ExtractedItem `json:"items"`
}

// FetchFunc fetches a single page and returns its UTF-8 body.
type FetchFunc func(ctx context.Context, url string) (io.Reader, error)
