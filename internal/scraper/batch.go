package scraper

import (
	"context"
	"sync"
	"time"

	"imdiekejordan/auctionworker/logger"
)

// BatchConfig is the pure configuration for one batch runner. Targets may be
// empty; DefaultTargets is substituted at construction.
type BatchConfig struct {
	Targets     []string
	GroupSize   int
	PacingDelay time.Duration
}

// BatchRunner runs the item scraper over the target list in fixed-size
// concurrent groups with a pacing delay between groups. Group N+1 does not
// start until every member of group N has resolved.
type BatchRunner struct {
	scraper   *ItemScraper
	targets   []string
	groupSize int
	pacing    time.Duration
}

// NewBatchRunner creates a batch runner.
func NewBatchRunner(scraper *ItemScraper, cfg BatchConfig) *BatchRunner {
	targets := cfg.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	groupSize := cfg.GroupSize
	if groupSize < 1 {
		groupSize = 1
	}
	return &BatchRunner{
		scraper:   scraper,
		targets:   targets,
		groupSize: groupSize,
		pacing:    cfg.PacingDelay,
	}
}

// Targets returns the resolved target list.
func (b *BatchRunner) Targets() []string {
	return b.targets
}

// Run scrapes every target and aggregates the results into a dataset with a
// fresh lastUpdated timestamp. A per-URL failure is captured in that URL's
// record and never aborts the batch: the dataset always holds exactly one
// record per target.
func (b *BatchRunner) Run(ctx context.Context) Dataset {
	log := logger.ForBatch()
	start := time.Now()

	items := make([]ExtractedItem, 0, len(b.targets))
	for begin := 0; begin < len(b.targets); begin += b.groupSize {
		end := begin + b.groupSize
		if end > len(b.targets) {
			end = len(b.targets)
		}
		group := b.targets[begin:end]

		// Each goroutine owns its slot; the slice is appended to only
		// after the whole group resolves.
		results := make([]ExtractedItem, len(group))
		var wg sync.WaitGroup
		for i, url := range group {
			wg.Add(1)
			go func(i int, url string) {
				defer wg.Done()
				results[i] = b.scraper.ScrapeItem(ctx, url)
			}(i, url)
		}
		wg.Wait()
		items = append(items, results...)

		if end < len(b.targets) && b.pacing > 0 {
			time.Sleep(b.pacing)
		}
	}

	failed := 0
	for i := range items {
		if items[i].Failed() {
			failed++
		}
	}
	log.Info().
		Int("targets", len(b.targets)).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("batch complete")

	return Dataset{
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Items:       items,
	}
}
