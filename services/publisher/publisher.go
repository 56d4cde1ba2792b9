package publisher

// Publisher notifies downstream consumers about freshly scraped items.
type Publisher interface {
	// Publish sends one message keyed by the item URL
	Publish(key string, message []byte) error

	// Trim caps the backlog retained for slow consumers
	Trim() error

	// Close closes the publisher
	Close() error
}
