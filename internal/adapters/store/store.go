// Package store persists enriched messages for the history view.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// ErrCorruptRecord is returned when a stored record cannot be decoded
var ErrCorruptRecord = errors.New("corrupt message record")

// Store is a core.MessageStore that owns background resources
type Store interface {
	core.MessageStore

	// Stop ends background work and releases connections
	Stop()
}

// Retention controls how long messages are kept and how often old ones are purged.
// A zero Age or Frequency disables purging.
type Retention struct {
	Age       time.Duration
	Frequency time.Duration
}

func (r Retention) enabled() bool {
	return r.Age > 0 && r.Frequency > 0
}

// cleanupTask runs purge every frequency until stopCh is closed
func cleanupTask(frequency time.Duration, stopCh <-chan struct{}, logger *zap.Logger, purge func(ctx context.Context) error) {
	ticker := time.NewTicker(frequency)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := purge(context.Background()); err != nil {
				logger.Error("Failed to purge expired messages", zap.Error(err))
			}
		case <-stopCh:
			return
		}
	}
}

func encodeRecord(msg *core.Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*core.Message, error) {
	var msg core.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return &msg, nil
}

// cloneMessage copies a message so callers cannot mutate stored state
func cloneMessage(msg *core.Message) *core.Message {
	c := *msg
	if msg.Result != nil {
		r := *msg.Result
		c.Result = &r
	}
	if msg.Review != nil {
		r := *msg.Review
		c.Review = &r
	}
	return &c
}
