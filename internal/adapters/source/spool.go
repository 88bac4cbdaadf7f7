package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

const (
	processedDir = "processed"
	rejectedDir  = "rejected"
)

// Spool reads RawMessage JSON files dropped into a directory. Writers should
// create files under another name and rename them to *.json when complete.
// Consumed files move to processed/, invalid ones to rejected/.
type Spool struct {
	dir    string
	logger *zap.Logger

	// claims one file at a time between Fetch and the watcher
	mu sync.Mutex
}

// NewSpool creates a spool source over dir, creating its subdirectories
func NewSpool(dir string, logger *zap.Logger) (*Spool, error) {
	for _, sub := range []string{"", processedDir, rejectedDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create spool directory: %w", err)
		}
	}

	return &Spool{dir: dir, logger: logger}, nil
}

// Name identifies the source in logs
func (s *Spool) Name() string { return "spool" }

// Fetch drains up to limit pending files, oldest first
func (s *Spool) Fetch(ctx context.Context, limit int) ([]core.RawMessage, error) {
	if limit <= 0 {
		return []core.RawMessage{}, nil
	}

	pending, err := s.pending()
	if err != nil {
		return nil, err
	}

	out := make([]core.RawMessage, 0, limit)
	for _, path := range pending {
		if len(out) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		raw, ok := s.claim(path)
		if !ok {
			continue
		}
		out = append(out, raw)
	}

	return out, nil
}

// Subscribe watches the directory and hands every new file to handler.
// Files already waiting when the watch starts are delivered first.
func (s *Spool) Subscribe(ctx context.Context, handler core.Handler) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	s.logger.Info("Watching spool directory", zap.String("dir", s.dir))

	stop := runLoop(ctx, func(ctx context.Context) {
		if backlog, err := s.pending(); err == nil {
			for _, path := range backlog {
				s.deliver(ctx, path, handler)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Only creates, renames into the directory and writes matter
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if !isSpoolFile(event.Name) {
					continue
				}
				s.deliver(ctx, event.Name, handler)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("Spool watcher error", zap.Error(err))
			}
		}
	})

	return func() {
		stop()
		if err := watcher.Close(); err != nil {
			s.logger.Warn("Failed to close spool watcher", zap.Error(err))
		}
	}, nil
}

func (s *Spool) deliver(ctx context.Context, path string, handler core.Handler) {
	raw, ok := s.claim(path)
	if !ok {
		return
	}
	if _, err := handler(ctx, raw); err != nil {
		s.logger.Warn("Spooled message not ingested",
			zap.String("file", filepath.Base(path)),
			zap.Error(err))
	}
}

// claim reads and validates path, then moves it out of the spool
func (s *Spool) claim(path string) (core.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		// already claimed
		return core.RawMessage{}, false
	}
	if err != nil {
		s.logger.Error("Failed to read spool file", zap.String("file", path), zap.Error(err))
		return core.RawMessage{}, false
	}

	raw, err := DecodeRawMessage(data)
	if err != nil {
		s.logger.Warn("Rejecting spool file", zap.String("file", filepath.Base(path)), zap.Error(err))
		s.move(path, rejectedDir)
		return core.RawMessage{}, false
	}

	s.move(path, processedDir)
	return raw, true
}

func (s *Spool) move(path, sub string) {
	target := filepath.Join(s.dir, sub, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		s.logger.Error("Failed to move spool file",
			zap.String("file", path),
			zap.String("target", target),
			zap.Error(err))
	}
}

// pending lists spool files oldest first
func (s *Spool) pending() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list spool directory: %w", err)
	}

	type spooled struct {
		path    string
		modTime int64
	}
	files := make([]spooled, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isSpoolFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, spooled{
			path:    filepath.Join(s.dir, entry.Name()),
			modTime: info.ModTime().UnixNano(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].modTime != files[j].modTime {
			return files[i].modTime < files[j].modTime
		}
		return files[i].path < files[j].path
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

func isSpoolFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(strings.ToLower(base), ".json") && !strings.HasPrefix(base, ".")
}
