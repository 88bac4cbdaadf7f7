package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// dropFile writes content under a temp name and renames it into the spool
func dropFile(t *testing.T, dir, name, content string, modTime time.Time) {
	t.Helper()
	tmp := filepath.Join(dir, "."+name+".part")
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o600))
	require.NoError(t, os.Chtimes(tmp, modTime, modTime))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, name)))
}

func rawJSON(address, body string) string {
	return fmt.Sprintf(`{"address":%q,"body":%q}`, address, body)
}

func TestSpool_FetchOldestFirst(t *testing.T) {
	dir := t.TempDir()
	spool, err := NewSpool(dir, zap.NewNop())
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	dropFile(t, dir, "c.json", rawJSON("c", "third"), base.Add(3*time.Minute))
	dropFile(t, dir, "a.json", rawJSON("a", "first"), base.Add(1*time.Minute))
	dropFile(t, dir, "b.json", rawJSON("b", "second"), base.Add(2*time.Minute))
	dropFile(t, dir, "notes.txt", "ignored", base)

	raws, err := spool.Fetch(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Equal(t, "first", raws[0].Body)
	assert.Equal(t, "second", raws[1].Body)

	assert.FileExists(t, filepath.Join(dir, processedDir, "a.json"))
	assert.FileExists(t, filepath.Join(dir, processedDir, "b.json"))
	assert.FileExists(t, filepath.Join(dir, "c.json"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))

	rest, err := spool.Fetch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "third", rest[0].Body)
}

func TestSpool_RejectsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	spool, err := NewSpool(dir, zap.NewNop())
	require.NoError(t, err)

	now := time.Now()
	dropFile(t, dir, "bad.json", `{"body":"no address"}`, now.Add(-time.Minute))
	dropFile(t, dir, "good.json", rawJSON("x", "ok"), now)

	raws, err := spool.Fetch(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "ok", raws[0].Body)
	assert.FileExists(t, filepath.Join(dir, rejectedDir, "bad.json"))
}

func TestSpool_Subscribe(t *testing.T) {
	dir := t.TempDir()
	spool, err := NewSpool(dir, zap.NewNop())
	require.NoError(t, err)

	// waiting before the watch starts
	dropFile(t, dir, "backlog.json", rawJSON("early", "backlog"), time.Now())

	c := newCollector()
	stop, err := spool.Subscribe(context.Background(), c.handle)
	require.NoError(t, err)
	defer stop()

	waitFor := func(body string) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case raw := <-c.got:
				if raw.Body == body {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %q", body)
			}
		}
	}

	waitFor("backlog")

	dropFile(t, dir, "live.json", rawJSON("late", "live"), time.Now())
	waitFor("live")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, processedDir, "live.json"))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSpool_FetchLimitZero(t *testing.T) {
	spool, err := NewSpool(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	raws, err := spool.Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, raws)
}
