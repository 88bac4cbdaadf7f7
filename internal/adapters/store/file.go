package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// FileStore keeps the history as a JSON array on disk, newest first.
// Every write replaces the file atomically.
type FileStore struct {
	path       string
	maxEntries int
	mu         sync.Mutex
	logger     *zap.Logger
}

// NewFileStore creates a store backed by the JSON file at path
func NewFileStore(path string, maxEntries int, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FileStore{
		path:       path,
		maxEntries: maxEntries,
		logger:     logger,
	}, nil
}

// Append adds msg to the head of the history file
func (s *FileStore) Append(ctx context.Context, msg *core.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.read()
	if err != nil {
		return err
	}

	msgs = append([]*core.Message{msg}, msgs...)
	if s.maxEntries > 0 && len(msgs) > s.maxEntries {
		msgs = msgs[:s.maxEntries]
	}

	return s.write(msgs)
}

// List returns the stored messages, newest first
func (s *FileStore) List(ctx context.Context) ([]*core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

// Clear empties the history file
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write([]*core.Message{})
}

// Stop is a no-op; the file store holds no open handles
func (s *FileStore) Stop() {}

func (s *FileStore) read() ([]*core.Message, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*core.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) == 0 {
		return []*core.Message{}, nil
	}

	var msgs []*core.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, s.path, err)
	}
	return msgs, nil
}

func (s *FileStore) write(msgs []*core.Message) error {
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".messages-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	s.logger.Debug("Store file written", zap.String("path", s.path), zap.Int("messages", len(msgs)))
	return nil
}
