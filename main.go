package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"imdiekejordan/auctionworker/config"
	"imdiekejordan/auctionworker/internal/scraper"
	"imdiekejordan/auctionworker/logger"
	"imdiekejordan/auctionworker/services/cache"
	"imdiekejordan/auctionworker/services/dispatch"
	"imdiekejordan/auctionworker/services/publisher"
	"imdiekejordan/auctionworker/services/store"
	"imdiekejordan/auctionworker/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("run_mode", cfg.RunMode).
		Int("group_size", cfg.GroupSize).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if cfg.RunMode == config.ModeTrigger {
		runTrigger(ctx, &cfg)
		return
	}

	// Assemble the scraping core
	cacheSvc := cache.NewMemcacheService(cfg.MemcacheAddr)
	metrics := scraper.NewMetrics()
	itemScraper := scraper.NewItemScraper(scraper.ItemScraperConfig{
		FetchTimeout: cfg.FetchTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.RetryDelay,
		BlockTime:    cfg.BlockTime,
	}, cacheSvc, metrics)
	runner := scraper.NewBatchRunner(itemScraper, scraper.BatchConfig{
		Targets:     cfg.TargetURLs,
		GroupSize:   cfg.GroupSize,
		PacingDelay: cfg.PacingDelay,
	})

	log.Info().
		Int("target_count", len(runner.Targets())).
		Msg("Resolved scrape targets")

	// Persistence collaborator
	var st store.Store
	switch cfg.StoreBackend {
	case config.StoreGitHub:
		st = store.NewGitHubStore(cfg.GitHubToken, cfg.GitHubRepo)
		log.Info().Str("repo", cfg.GitHubRepo).Msg("Using GitHub store")
	default:
		st = store.NewFileStore(cfg.DataFile)
		log.Info().Str("path", cfg.DataFile).Msg("Using file store")
	}

	// Publisher for live item updates
	var pub publisher.Publisher
	if !cfg.PublishDisabled {
		pub = publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMax)
		defer pub.Close()
		log.Info().
			Str("addr", cfg.RedisAddr).
			Str("stream", cfg.RedisStream).
			Msg("Connected to Redis")
	}

	w := worker.NewWorker(runner, st, pub, cfg.ScrapeInterval)

	if cfg.RunMode == config.ModeOnce {
		if err := w.RunOnce(ctx); err != nil {
			log.Fatal().Err(err).Msg("Run failed")
		}
		return
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, metrics)
	}

	log.Info().Dur("interval", cfg.ScrapeInterval).Msg("Starting auction worker")
	if err := w.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Worker exited with error")
	}
	log.Info().Msg("Shutting down gracefully...")
}

// serveMetrics exposes the Prometheus registry. Only the long-running worker
// mode serves it; one-shot runs exit before a scrape would be visible.
func serveMetrics(addr string, metrics *scraper.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Default.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
	}
}

// runTrigger asks the remote executor for a run instead of scraping locally.
func runTrigger(ctx context.Context, cfg *config.Config) {
	log := logger.Default
	dispatcher := dispatch.NewGitHubDispatcher(cfg.GitHubToken, cfg.GitHubRepo, cfg.GitHubWorkflow)

	if err := dispatcher.TriggerRun(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to trigger scrape run")
	}
	log.Info().
		Str("repo", cfg.GitHubRepo).
		Str("workflow", cfg.GitHubWorkflow).
		Msg("Scrape run triggered")
}
