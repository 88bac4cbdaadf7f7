package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// MemoryStore keeps messages in process memory, newest first
type MemoryStore struct {
	msgs       []*core.Message
	maxEntries int
	retention  Retention
	mu         sync.RWMutex
	logger     *zap.Logger
	now        func() time.Time
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewMemoryStore creates a new in-memory store. maxEntries <= 0 keeps everything.
func NewMemoryStore(logger *zap.Logger, maxEntries int, retention Retention) *MemoryStore {
	s := &MemoryStore{
		maxEntries: maxEntries,
		retention:  retention,
		logger:     logger,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}

	if retention.enabled() {
		go cleanupTask(retention.Frequency, s.stopCh, logger, s.Cleanup)
	}

	return s
}

// Append stores a copy of msg at the head of the history
func (s *MemoryStore) Append(ctx context.Context, msg *core.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = append([]*core.Message{cloneMessage(msg)}, s.msgs...)
	if s.maxEntries > 0 && len(s.msgs) > s.maxEntries {
		s.msgs = s.msgs[:s.maxEntries]
	}

	return nil
}

// List returns copies of the stored messages, newest first
func (s *MemoryStore) List(ctx context.Context) ([]*core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.Message, len(s.msgs))
	for i, msg := range s.msgs {
		out[i] = cloneMessage(msg)
	}
	return out, nil
}

// Clear removes every stored message
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = nil
	return nil
}

// Cleanup removes messages received before the retention window
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	if s.retention.Age <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.retention.Age)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.msgs[:0]
	for _, msg := range s.msgs {
		if msg.ReceivedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, msg)
	}
	expired := len(s.msgs) - len(kept)
	for i := len(kept); i < len(s.msgs); i++ {
		s.msgs[i] = nil
	}
	s.msgs = kept

	s.logger.Debug("Purged expired messages", zap.Int("expired_count", expired))
	return nil
}

// Stop stops the background cleanup task
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}
