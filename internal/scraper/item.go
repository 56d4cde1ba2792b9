package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"

	"imdiekejordan/auctionworker/helpers"
	"imdiekejordan/auctionworker/logger"
	apperr "imdiekejordan/auctionworker/pkg/errors"
	"imdiekejordan/auctionworker/services/cache"
)

// ItemScraperConfig holds the per-URL fetch policy.
type ItemScraperConfig struct {
	FetchTimeout time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	BlockTime    time.Duration
}

// ItemScraper fetches one auction listing page and runs every field
// extractor against it. The fetch function is injectable for tests.
type ItemScraper struct {
	fetchFunc  FetchFunc
	cacheSvc   cache.CacheService
	blockTime  time.Duration
	maxRetries int
	retryDelay time.Duration
	resolver   *TimeResolver
	metrics    *Metrics
	now        func() time.Time
}

// NewItemScraper creates an item scraper. cacheSvc may be nil; it is only
// used to back off from rate-limited hosts between runs.
func NewItemScraper(cfg ItemScraperConfig, cacheSvc cache.CacheService, metrics *Metrics) *ItemScraper {
	client := helpers.NewHTTPClient(cfg.FetchTimeout)
	return &ItemScraper{
		fetchFunc: func(ctx context.Context, url string) (io.Reader, error) {
			return helpers.FetchPage(ctx, client, url)
		},
		cacheSvc:   cacheSvc,
		blockTime:  cfg.BlockTime,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		resolver:   NewTimeResolver(),
		metrics:    metrics,
		now:        time.Now,
	}
}

// ScrapeItem produces exactly one record for the URL. A terminal fetch or
// parse failure yields an error record with every content field defaulted;
// it is never silently dropped.
func (s *ItemScraper) ScrapeItem(ctx context.Context, url string) ExtractedItem {
	log := logger.ForScraper(url)

	body, err := s.fetchWithRetry(ctx, url)
	if err != nil {
		log.Warn().Err(err).Msg("scrape failed")
		s.metrics.IncError(string(errorType(err)))
		return s.errorRecord(url, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		parseErr := apperr.NewParse(url, "failed to parse HTML", err)
		log.Warn().Err(parseErr).Msg("scrape failed")
		s.metrics.IncError(string(apperr.ErrorTypeParse))
		return s.errorRecord(url, parseErr)
	}

	item := s.extract(url, doc)
	s.metrics.IncItems()
	log.Debug().
		Str("item_name", item.ItemName).
		Str("current_price", item.CurrentPrice).
		Msg("scraped item")
	return item
}

// extract runs every field extractor. A failure inside one extractor resolves
// to that field's default and never aborts the others.
func (s *ItemScraper) extract(url string, doc *goquery.Document) ExtractedItem {
	name := safeString(UnknownItem, func() string { return ExtractItemName(doc) })
	price := safeString(NoValue, func() string { return ExtractCurrentPrice(doc) })
	nextBid := safeString(NoValue, func() string { return ExtractNextRequiredBid(doc) })

	bidAmount, _ := ParseAmount(price)
	lotFees := safeFloat(func() float64 { return ExtractLotFees(doc, bidAmount) })
	premium := safeFloat(func() float64 { return ExtractBuyersPremium(doc, bidAmount) })

	var closingTime *string
	if closing, ok := safeTime(func() (time.Time, bool) { return s.resolver.Resolve(doc) }); ok {
		stamp := closing.UTC().Format(time.RFC3339)
		closingTime = &stamp
	}

	return ExtractedItem{
		URL:             url,
		ItemName:        name,
		CurrentPrice:    price,
		NextRequiredBid: nextBid,
		LotFees:         lotFees,
		BuyersPremium:   premium,
		ClosingTime:     closingTime,
		Timestamp:       s.now().UTC().Format(time.RFC3339),
	}
}

// fetchWithRetry applies the retry policy: up to maxRetries attempts with
// linearly increasing backoff. Rate-limited hosts are blocked in the cache
// and not retried until the block expires.
func (s *ItemScraper) fetchWithRetry(ctx context.Context, url string) (io.Reader, error) {
	blockKey := "block:" + url
	if s.cacheSvc != nil {
		if _, err := s.cacheSvc.Get(blockKey); err == nil {
			return nil, apperr.NewRateLimit(url, s.blockTime)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		fetchStart := time.Now()
		body, err := s.fetchFunc(ctx, url)
		s.metrics.ObserveFetch(time.Since(fetchStart))
		if err == nil {
			return body, nil
		}
		lastErr = err

		if helpers.IsRateLimited(err) {
			if s.cacheSvc != nil {
				s.cacheSvc.Set(blockKey, []byte(fmt.Sprintf("%d", s.blockTime/time.Second)), s.blockTime)
			}
			return nil, apperr.NewRateLimit(url, s.blockTime)
		}

		if attempt < s.maxRetries {
			s.metrics.IncRetries()
			logger.ForScraper(url).Debug().
				Int("attempt", attempt).
				Err(err).
				Msg("fetch failed, retrying")
			select {
			case <-time.After(time.Duration(attempt) * s.retryDelay):
			case <-ctx.Done():
				return nil, apperr.NewFetch(url, "fetch cancelled", ctx.Err())
			}
		}
	}

	return nil, apperr.NewFetch(url, fmt.Sprintf("failed after %d attempts", s.maxRetries), lastErr)
}

// errorType resolves the metrics label for a scrape failure from the typed
// error, so rate limits are not lumped in with transport failures.
func errorType(err error) apperr.ErrorType {
	var serr *apperr.ScrapeError
	if errors.As(err, &serr) {
		return serr.Type
	}
	return apperr.ErrorTypeFetch
}

// errorRecord builds the record for a terminally failed URL: error populated,
// every content field holding its error-path default.
func (s *ItemScraper) errorRecord(url string, err error) ExtractedItem {
	return ExtractedItem{
		URL:             url,
		ItemName:        errorItemName,
		CurrentPrice:    NoValue,
		NextRequiredBid: NoValue,
		Timestamp:       s.now().UTC().Format(time.RFC3339),
		Error:           err.Error(),
	}
}

func safeString(fallback string, fn func() string) (out string) {
	out = fallback
	defer func() {
		if r := recover(); r != nil {
			out = fallback
		}
	}()
	if v := fn(); v != "" {
		out = v
	}
	return
}

func safeFloat(fn func() float64) (out float64) {
	defer func() {
		if r := recover(); r != nil {
			out = 0
		}
	}()
	out = fn()
	return
}

func safeTime(fn func() (time.Time, bool)) (t time.Time, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()
	t, ok = fn()
	return
}
