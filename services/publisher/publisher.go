package publisher

import "context"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message under key to the record stream
	Publish(ctx context.Context, key string, message []byte) error

	// Close closes the publisher connection
	Close() error
}

// NopPublisher drops every message, used when no stream is configured
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(ctx context.Context, key string, message []byte) error { return nil }

// Close implements Publisher
func (NopPublisher) Close() error { return nil }
