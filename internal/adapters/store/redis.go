package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// RedisStore keeps the history in a Redis list. LPUSH puts the newest record
// at index 0 so LRANGE returns newest first.
type RedisStore struct {
	client     *redis.Client
	key        string
	maxEntries int
	logger     *zap.Logger
	stopOnce   sync.Once
}

// NewRedisStore creates a new store backed by Redis
func NewRedisStore(addr, password string, db int, key string, maxEntries int, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(client, key, maxEntries, logger), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, key string, maxEntries int, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client:     client,
		key:        key,
		maxEntries: maxEntries,
		logger:     logger,
	}
}

// Append pushes msg onto the head of the list and trims the tail
func (s *RedisStore) Append(ctx context.Context, msg *core.Message) error {
	payload, err := encodeRecord(msg)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, payload)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, s.key, 0, int64(s.maxEntries-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push message: %w", err)
	}

	return nil
}

// List returns every stored message, newest first
func (s *RedisStore) List(ctx context.Context) ([]*core.Message, error) {
	records, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	msgs := make([]*core.Message, 0, len(records))
	for _, record := range records {
		msg, err := decodeRecord([]byte(record))
		if err != nil {
			s.logger.Warn("Skipping unreadable message record", zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// Clear deletes the list key
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

// Stop closes the client. Later calls do nothing.
func (s *RedisStore) Stop() {
	s.stopOnce.Do(func() {
		if err := s.client.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	})
}
