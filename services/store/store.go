package store

import (
	"context"

	"imdiekejordan/auctionworker/internal/scraper"
)

// Store is the persistence collaborator: a blob store keyed by a fixed
// resource name. Merge semantics against previously persisted data belong to
// the implementation, not to the scraping core.
type Store interface {
	// Get loads the previously persisted dataset. A missing dataset is
	// (nil, nil), not an error.
	Get(ctx context.Context) (*scraper.Dataset, error)

	// Put persists the dataset.
	Put(ctx context.Context, dataset *scraper.Dataset) error
}
