package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFetch represents network/timeout/HTTP-status failures
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeParse represents HTML parsing errors
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypePersistence represents store read/write failures
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeDispatch represents job dispatch failures
	ErrorTypeDispatch ErrorType = "dispatch"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a scraper-specific error
type ScrapeError struct {
	Type    ErrorType
	URL     string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.URL, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth another fetch attempt.
// Only transport failures are; rate limits back off through the cache block
// and everything else is deterministic.
func (e *ScrapeError) IsRetryable() bool {
	return e.Type == ErrorTypeFetch
}

// New creates a new ScrapeError
func New(errType ErrorType, url, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFetch creates a new fetch error
func NewFetch(url, message string, err error) *ScrapeError {
	return New(ErrorTypeFetch, url, message, err)
}

// NewParse creates a new parse error
func NewParse(url, message string, err error) *ScrapeError {
	return New(ErrorTypeParse, url, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(url string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, url, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(message string, err error) *ScrapeError {
	return New(ErrorTypePersistence, "", message, err)
}

// NewDispatch creates a new dispatch error
func NewDispatch(message string, err error) *ScrapeError {
	return New(ErrorTypeDispatch, "", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}
