package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Less(t, PriorityLow.Rank(), PriorityNone.Rank())
	assert.Equal(t, PriorityNone.Rank(), Priority("urgent").Rank())
}

func TestAgreementStatusHelpers(t *testing.T) {
	for _, s := range AgreementStatuses {
		parsed, err := ParseAgreementStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseAgreementStatus("done")
	assert.Error(t, err)

	assert.True(t, FieldSJStatus.Valid())
	assert.False(t, StatusField("isSJStatus").Valid())

	a := Agreement{Status: StatusStuck, SJStatus: StatusNotStarted}
	b := a.WithStatus(FieldSJStatus, StatusSJReview)
	assert.Equal(t, StatusStuck, b.StatusOf(FieldStatus))
	assert.Equal(t, StatusSJReview, b.StatusOf(FieldSJStatus))
	assert.Equal(t, StatusNotStarted, a.SJStatus, "WithStatus must not modify the receiver")
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Remote.BaseURL)
	assert.Equal(t, 30, cfg.Remote.TimeoutSec)
	assert.Equal(t, 0, cfg.Remote.MaxRetries)
	assert.Equal(t, 120, cfg.Sync.IntervalSec)
	assert.Equal(t, 30, cfg.Sync.FetchTimeoutSec)
	assert.Equal(t, "api-token", cfg.Credential.Key)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Cache.Path)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "remote:\n  base_url: https://dash.example.com/api\n  max_retries: 2\nsync:\n  interval_sec: -5\n  fetch_timeout_sec: 10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("BIZDASH_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://dash.example.com/api", cfg.Remote.BaseURL)
	assert.Equal(t, 2, cfg.Remote.MaxRetries)
	assert.Equal(t, 120, cfg.Sync.IntervalSec, "non-positive interval falls back to the default")
	assert.Equal(t, 10, cfg.Sync.FetchTimeoutSec)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("remote: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.Remote.BaseURL = "http://localhost:8080"
	cfg.Log.File = "/tmp/bizdash.log"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
