package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRunProducesOneRecordPerTarget(t *testing.T) {
	targets := []string{
		"https://www.k-bid.com/auction/1/item/1",
		"https://www.k-bid.com/auction/1/item/2",
		"https://www.k-bid.com/auction/1/item/3",
		"https://www.k-bid.com/auction/1/item/4",
		"https://www.k-bid.com/auction/1/item/5",
	}

	s := newTestScraper(t, nil, func(_ context.Context, url string) (io.Reader, error) {
		if strings.HasSuffix(url, "/3") {
			return nil, errors.New("connection refused")
		}
		return strings.NewReader(listingHTML), nil
	})
	s.maxRetries = 1

	runner := NewBatchRunner(s, BatchConfig{Targets: targets, GroupSize: 3})
	dataset := runner.Run(context.Background())

	require.Len(t, dataset.Items, len(targets))
	for i, item := range dataset.Items {
		assert.Equal(t, targets[i], item.URL)
	}

	assert.False(t, dataset.Items[0].Failed())
	assert.True(t, dataset.Items[2].Failed())
	assert.Equal(t, "Error: Could not fetch", dataset.Items[2].ItemName)
	assert.Equal(t, NoValue, dataset.Items[2].CurrentPrice)

	_, err := time.Parse(time.RFC3339, dataset.LastUpdated)
	assert.NoError(t, err)
}

func TestBatchRunGroupsAreSequential(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	s := newTestScraper(t, nil, func(_ context.Context, _ string) (io.Reader, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return strings.NewReader(listingHTML), nil
	})

	targets := make([]string, 7)
	for i := range targets {
		targets[i] = fmt.Sprintf("https://www.k-bid.com/auction/1/item/%d", i+1)
	}

	runner := NewBatchRunner(s, BatchConfig{Targets: targets, GroupSize: 3})
	dataset := runner.Run(context.Background())

	require.Len(t, dataset.Items, 7)
	assert.LessOrEqual(t, peak, 3)
}

func TestBatchRunDefaultTargets(t *testing.T) {
	s := newTestScraper(t, nil, func(_ context.Context, _ string) (io.Reader, error) {
		return strings.NewReader(listingHTML), nil
	})

	runner := NewBatchRunner(s, BatchConfig{GroupSize: 0})
	assert.Equal(t, DefaultTargets, runner.Targets())

	dataset := runner.Run(context.Background())
	assert.Len(t, dataset.Items, len(DefaultTargets))
}
