package core

import (
	"context"
)

// Analyzer scores and classifies a message
type Analyzer interface {
	// Analyze returns the raw scores and the verdict for a message
	Analyze(msg *Message) (Scores, DetectionResult)
}

// Handler receives messages pushed by a monitoring source and returns the
// enriched message once it has been analyzed
type Handler func(ctx context.Context, raw RawMessage) (*Message, error)

// MonitoringSource supplies raw messages, either on demand or as they arrive
type MonitoringSource interface {
	// Name identifies the source in logs
	Name() string

	// Fetch returns at most limit pending messages
	Fetch(ctx context.Context, limit int) ([]RawMessage, error)

	// Subscribe registers a handler for newly arrived messages and returns
	// a function that cancels the subscription
	Subscribe(ctx context.Context, handler Handler) (func(), error)
}

// MessageStore persists enriched messages, newest first
type MessageStore interface {
	// Append stores an enriched message
	Append(ctx context.Context, msg *Message) error

	// List returns all stored messages, newest first
	List(ctx context.Context) ([]*Message, error)

	// Clear removes every stored message
	Clear(ctx context.Context) error
}

// Notifier alerts the user about a flagged message
type Notifier interface {
	Notify(ctx context.Context, summary Summary) error
}

// Reviewer asks an external model for a second opinion on a message
type Reviewer interface {
	Review(ctx context.Context, msg *Message) (*Review, error)
}
