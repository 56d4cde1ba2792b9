package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	apperr "imdiekejordan/auctionworker/pkg/errors"
)

// Run modes accepted by RUN_MODE.
const (
	ModeWorker  = "worker"
	ModeOnce    = "once"
	ModeTrigger = "trigger"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreFile   = "file"
	StoreGitHub = "github"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration
	RedisAddr       string
	RedisDB         int
	RedisStream     string
	RedisStreamMax  int
	PublishDisabled bool

	// Memcache configuration
	MemcacheAddr string

	// Metrics endpoint, empty disables it
	MetricsAddr string

	// Scrape configuration
	ScrapeInterval time.Duration
	GroupSize      int
	PacingDelay    time.Duration
	FetchTimeout   time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	BlockTime      time.Duration
	TargetURLs     []string

	// Persistence configuration
	StoreBackend string
	DataFile     string

	// GitHub collaborators (contents store + workflow dispatcher)
	GitHubToken    string
	GitHubRepo     string
	GitHubWorkflow string

	// Environment
	RunMode     string
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamMax, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	scrapeInterval, _ := strconv.Atoi(getEnv("SCRAPE_INTERVAL_SECONDS", "900"))
	groupSize, _ := strconv.Atoi(getEnv("SCRAPE_GROUP_SIZE", "3"))
	pacing, _ := strconv.Atoi(getEnv("SCRAPE_PACING_SECONDS", "1"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "30"))
	maxRetries, _ := strconv.Atoi(getEnv("FETCH_MAX_RETRIES", "3"))
	retryDelay, _ := strconv.Atoi(getEnv("FETCH_RETRY_DELAY_SECONDS", "2"))
	blockTime, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "300"))

	return Config{
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         redisDB,
		RedisStream:     getEnv("REDIS_STREAM", "auction_items"),
		RedisStreamMax:  redisStreamMax,
		PublishDisabled: getEnv("PUBLISH_DISABLED", "") == "true",
		MemcacheAddr:    getEnv("MEMCACHE_ADDR", "localhost:11211"),
		MetricsAddr:     getEnv("METRICS_ADDR", ":9090"),
		ScrapeInterval:  time.Duration(scrapeInterval) * time.Second,
		GroupSize:       groupSize,
		PacingDelay:     time.Duration(pacing) * time.Second,
		FetchTimeout:    time.Duration(fetchTimeout) * time.Second,
		MaxRetries:      maxRetries,
		RetryDelay:      time.Duration(retryDelay) * time.Second,
		BlockTime:       time.Duration(blockTime) * time.Second,
		TargetURLs:      loadTargetURLs(),
		StoreBackend:    getEnv("STORE_BACKEND", StoreFile),
		DataFile:        getEnv("DATA_FILE", "data.json"),
		GitHubToken:     getEnv("GITHUB_TOKEN", ""),
		GitHubRepo:      getEnv("GITHUB_REPO", ""),
		GitHubWorkflow:  getEnv("GITHUB_WORKFLOW", "scrape.yml"),
		RunMode:         getEnv("RUN_MODE", ModeWorker),
		Environment:     getEnv("AUCTIONWORKER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the worker cannot run with.
func (c *Config) Validate() error {
	if c.GroupSize < 1 {
		return apperr.NewConfiguration("SCRAPE_GROUP_SIZE must be at least 1", nil)
	}
	if c.MaxRetries < 1 {
		return apperr.NewConfiguration("FETCH_MAX_RETRIES must be at least 1", nil)
	}
	if c.FetchTimeout < time.Second {
		return apperr.NewConfiguration("FETCH_TIMEOUT_SECONDS must be at least 1", nil)
	}
	switch c.StoreBackend {
	case StoreFile:
	case StoreGitHub:
		if c.GitHubToken == "" || c.GitHubRepo == "" {
			return apperr.NewConfiguration("github store requires GITHUB_TOKEN and GITHUB_REPO", nil)
		}
	default:
		return apperr.NewConfiguration("STORE_BACKEND must be file or github", nil)
	}
	switch c.RunMode {
	case ModeWorker, ModeOnce:
	case ModeTrigger:
		if c.GitHubToken == "" || c.GitHubRepo == "" {
			return apperr.NewConfiguration("trigger mode requires GITHUB_TOKEN and GITHUB_REPO", nil)
		}
	default:
		return apperr.NewConfiguration("RUN_MODE must be worker, once or trigger", nil)
	}
	return nil
}

// loadTargetURLs reads the target list from TARGET_URLS (comma separated) or,
// failing that, from the JSON array file named by URLS_FILE. An empty result
// is fine; the batch runner substitutes its built-in default list.
func loadTargetURLs() []string {
	if raw := os.Getenv("TARGET_URLS"); raw != "" {
		var urls []string
		for _, u := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(u); trimmed != "" {
				urls = append(urls, trimmed)
			}
		}
		return urls
	}

	path := getEnv("URLS_FILE", "urls.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil
	}
	return urls
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
