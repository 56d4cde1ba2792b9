package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry          *prometheus.Registry
	ItemsScrapedTotal prometheus.Counter
	RetriesTotal      prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	itemsScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auctionworker_items_scraped_total",
			Help: "Total number of item records produced.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auctionworker_fetch_retries_total",
			Help: "Total number of fetch retry attempts.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auctionworker_errors_total",
			Help: "Total number of scrape errors by type.",
		},
		[]string{"error_type"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auctionworker_fetch_duration_seconds",
			Help:    "HTTP fetch latency per target page.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(itemsScraped, retries, errorsTotal, fetchDuration)

	return &Metrics{
		Registry:          registry,
		ItemsScrapedTotal: itemsScraped,
		RetriesTotal:      retries,
		ErrorsTotal:       errorsTotal,
		FetchDuration:     fetchDuration,
	}
}

// IncItems increments the items scraped counter.
func (m *Metrics) IncItems() {
	if m == nil {
		return
	}
	m.ItemsScrapedTotal.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// ObserveFetch records a fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}
