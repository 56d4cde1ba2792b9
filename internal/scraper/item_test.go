package scraper

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imdiekejordan/auctionworker/services/cache"
)

type mockCache struct {
	values map[string][]byte
	sets   int
}

func newMockCache() *mockCache {
	return &mockCache{values: map[string][]byte{}}
}

func (m *mockCache) Get(key string) ([]byte, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (m *mockCache) Set(key string, value []byte, _ time.Duration) error {
	m.values[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func newTestScraper(t *testing.T, cacheSvc cache.CacheService, fetch FetchFunc) *ItemScraper {
	t.Helper()
	s := NewItemScraper(ItemScraperConfig{
		FetchTimeout: time.Second,
		MaxRetries:   3,
		RetryDelay:   0,
		BlockTime:    5 * time.Minute,
	}, cacheSvc, nil)
	s.fetchFunc = fetch
	return s
}

const listingHTML = `<html><head>
	<meta property="og:title" content="Vintage Tractor">
	<title>Vintage Tractor | k-bid</title>
</head><body>
	<div class="current-price">Current Bid: $1,250.00</div>
	<h4>Next Required Bid: $1,300</h4>
	<div class="countdown">12:00:00</div>
	<p>A lot fee: $50 applies. Buyer's Premium: 10% charged on all lots.</p>
</body></html>`

func TestScrapeItemSuccess(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s := newTestScraper(t, nil, func(_ context.Context, _ string) (io.Reader, error) {
		return strings.NewReader(listingHTML), nil
	})
	s.now = func() time.Time { return now }
	s.resolver = fixedResolver(now)

	item := s.ScrapeItem(context.Background(), "https://www.k-bid.com/auction/1/item/1")

	assert.Equal(t, "https://www.k-bid.com/auction/1/item/1", item.URL)
	assert.Equal(t, "Vintage Tractor", item.ItemName)
	assert.Equal(t, "$1,250.00", item.CurrentPrice)
	assert.Equal(t, "$1,300.00", item.NextRequiredBid)
	assert.Equal(t, 50.0, item.LotFees)
	assert.Equal(t, 125.0, item.BuyersPremium)
	require.NotNil(t, item.ClosingTime)
	assert.Equal(t, "2024-03-15T22:00:00Z", *item.ClosingTime)
	assert.Equal(t, "2024-03-15T10:00:00Z", item.Timestamp)
	assert.Empty(t, item.Error)
	assert.False(t, item.Failed())
}

func TestScrapeItemDeterministic(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s := newTestScraper(t, nil, func(_ context.Context, _ string) (io.Reader, error) {
		return strings.NewReader(listingHTML), nil
	})
	s.now = func() time.Time { return now }
	s.resolver = fixedResolver(now)

	first := s.ScrapeItem(context.Background(), "https://www.k-bid.com/auction/1/item/1")
	second := s.ScrapeItem(context.Background(), "https://www.k-bid.com/auction/1/item/1")

	assert.Equal(t, first, second)
}

func TestScrapeItemRetriesThenFails(t *testing.T) {
	calls := 0
	s := newTestScraper(t, nil, func(_ context.Context, _ string) (io.Reader, error) {
		calls++
		return nil, errors.New("connection refused")
	})

	item := s.ScrapeItem(context.Background(), "https://www.k-bid.com/auction/1/item/2")

	assert.Equal(t, 3, calls)
	assert.True(t, item.Failed())
	assert.Equal(t, "Error: Could not fetch", item.ItemName)
	assert.Equal(t, NoValue, item.CurrentPrice)
	assert.Equal(t, NoValue, item.NextRequiredBid)
	assert.Nil(t, item.ClosingTime)
	assert.Contains(t, item.Error, "failed after 3 attempts")
}

func TestScrapeItemRateLimitBlocksHost(t *testing.T) {
	cacheSvc := newMockCache()
	calls := 0
	s := newTestScraper(t, cacheSvc, func(_ context.Context, _ string) (io.Reader, error) {
		calls++
		return nil, errors.New("rate limited; retry after 5m0s")
	})

	url := "https://www.k-bid.com/auction/1/item/3"
	item := s.ScrapeItem(context.Background(), url)

	// Rate limiting is terminal within the run, never retried.
	assert.Equal(t, 1, calls)
	assert.True(t, item.Failed())
	assert.Contains(t, item.Error, "rate limit")
	assert.Equal(t, 1, cacheSvc.sets)
	_, err := cacheSvc.Get("block:" + url)
	assert.NoError(t, err)

	// While the block holds, the host is not contacted at all.
	item = s.ScrapeItem(context.Background(), url)
	assert.Equal(t, 1, calls)
	assert.True(t, item.Failed())
}

func TestScrapeItemWithoutCache(t *testing.T) {
	s := newTestScraper(t, nil, func(_ context.Context, _ string) (io.Reader, error) {
		return strings.NewReader(listingHTML), nil
	})

	item := s.ScrapeItem(context.Background(), "https://www.k-bid.com/auction/1/item/5")
	assert.False(t, item.Failed())

	// Rate limiting without a cache still fails the URL, it just cannot
	// persist the block.
	s = newTestScraper(t, nil, func(_ context.Context, _ string) (io.Reader, error) {
		return nil, errors.New("rate limited; retry after 5m0s")
	})

	item = s.ScrapeItem(context.Background(), "https://www.k-bid.com/auction/1/item/5")
	assert.True(t, item.Failed())
	assert.Contains(t, item.Error, "rate limit")
}

func TestScrapeItemErrorMetricLabels(t *testing.T) {
	metrics := NewMetrics()
	s := NewItemScraper(ItemScraperConfig{
		FetchTimeout: time.Second,
		MaxRetries:   1,
		BlockTime:    5 * time.Minute,
	}, nil, metrics)

	s.fetchFunc = func(_ context.Context, _ string) (io.Reader, error) {
		return nil, errors.New("rate limited; retry after 5m0s")
	}
	s.ScrapeItem(context.Background(), "https://www.k-bid.com/auction/1/item/6")

	s.fetchFunc = func(_ context.Context, _ string) (io.Reader, error) {
		return nil, errors.New("connection refused")
	}
	s.ScrapeItem(context.Background(), "https://www.k-bid.com/auction/1/item/6")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("rate_limit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("fetch")))
}

func TestScrapeItemCancelledDuringBackoff(t *testing.T) {
	s := newTestScraper(t, nil, func(_ context.Context, _ string) (io.Reader, error) {
		return nil, errors.New("connection refused")
	})
	s.retryDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	item := s.ScrapeItem(ctx, "https://www.k-bid.com/auction/1/item/4")

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, item.Failed())
	assert.Contains(t, item.Error, "fetch cancelled")
}
