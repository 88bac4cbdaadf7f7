package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	pipeline, err := cfg.GetPipeline()
	require.NoError(t, err)
	assert.Equal(t, 20, pipeline.BatchLimit)
	assert.Equal(t, 15*time.Second, pipeline.ReviewTimeout)

	store, err := cfg.GetStore()
	require.NoError(t, err)
	assert.Equal(t, "memory", store.Type)
	assert.Equal(t, 1000, store.MaxEntries)
	assert.Equal(t, 720*time.Hour, store.Retention)
	assert.Equal(t, time.Hour, store.CleanupFrequency)

	notify, err := cfg.GetNotify()
	require.NoError(t, err)
	assert.Equal(t, []string{"log"}, notify.Types)
	assert.Zero(t, notify.RatePerMinute)

	monitor, err := cfg.GetMonitor()
	require.NoError(t, err)
	assert.Equal(t, "simulated", monitor.Source)
	assert.True(t, monitor.Autostart)
	assert.Equal(t, 30*time.Second, monitor.SimulatedInterval)

	assert.Equal(t, "none", cfg.GetLLM().Provider)
	assert.Equal(t, []string{"localhost:9092"}, cfg.GetKafka().Brokers)
}

func TestGetScoring_OnlySetKeys(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scoring.email.flag_threshold", 0.8)
	v.Set("scoring.email.weights.urgency", 0.5)
	cfg := NewFromViper(v)

	email := cfg.GetScoring("email")
	assert.Equal(t, map[string]float64{"flag_threshold": 0.8}, email.Thresholds)
	assert.Equal(t, map[string]float64{"urgency": 0.5}, email.Weights)
	assert.Equal(t, `^\+?233`, email.TrustedPhonePattern)

	sms := cfg.GetScoring("sms")
	assert.Empty(t, sms.Thresholds)
	assert.Empty(t, sms.Weights)
}

func TestGetNotify_MultipleTypes(t *testing.T) {
	v := NewEmptyViper()
	v.Set("notify.type", " Log , smtp,,")
	cfg := NewFromViper(v)

	notify, err := cfg.GetNotify()
	require.NoError(t, err)
	assert.Equal(t, []string{"log", "smtp"}, notify.Types)
}

func TestGetStore_InvalidDuration(t *testing.T) {
	v := NewEmptyViper()
	v.Set("store.retention", "forever")
	cfg := NewFromViper(v)

	_, err := cfg.GetStore()
	assert.ErrorContains(t, err, "store.retention")
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  type: sqlite
  sqlite_path: /tmp/messages.db
scoring:
  sms:
    suspicious_threshold: 0.35
spam:
  trusted_senders:
    - MyBank
`), 0o600))

	cfg, err := NewWithFile(path)
	require.NoError(t, err)

	store, err := cfg.GetStore()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", store.Type)
	assert.Equal(t, "/tmp/messages.db", store.SQLitePath)
	assert.Equal(t, map[string]float64{"suspicious_threshold": 0.35}, cfg.GetScoring("sms").Thresholds)
	assert.Equal(t, []string{"MyBank"}, cfg.GetTrustedSenders())
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("MSG_FILTER_STORE_TYPE", "redis")
	t.Setenv("MSG_FILTER_PIPELINE_BATCH_LIMIT", "7")
	t.Setenv("MSG_FILTER_SCORING_SMS_FLAG_THRESHOLD", "0.65")

	cfg := NewFromViper(NewEmptyViper())

	store, err := cfg.GetStore()
	require.NoError(t, err)
	assert.Equal(t, "redis", store.Type)

	pipeline, err := cfg.GetPipeline()
	require.NoError(t, err)
	assert.Equal(t, 7, pipeline.BatchLimit)

	assert.Equal(t, map[string]float64{"flag_threshold": 0.65}, cfg.GetScoring("sms").Thresholds)
}

func TestNewWithFile_Missing(t *testing.T) {
	_, err := NewWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
