package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.HeaderScanRows)
	assert.Equal(t, 50, cfg.PreviewRows)
	assert.Equal(t, 30*time.Second, cfg.ProxyPollInterval)
	assert.Equal(t, 10*time.Second, cfg.ProxyCheckTimeout)
	assert.Equal(t, 2*time.Second, cfg.ProxyRefreshDebounce)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HEADER_SCAN_ROWS", "20")
	t.Setenv("PROXY_POLL_INTERVAL", "1m")
	t.Setenv("PROXY_CHECK_CONCURRENCY", "0")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.HeaderScanRows)
	assert.Equal(t, time.Minute, cfg.ProxyPollInterval)
	assert.Equal(t, 1, cfg.ProxyCheckConcurrency)
	assert.Contains(t, cfg.GetDSN(), "@tcp(db.internal:3306)/")
}

func TestLoadRejectsPreviewSmallerThanScanWindow(t *testing.T) {
	t.Setenv("HEADER_SCAN_ROWS", "60")
	t.Setenv("PREVIEW_ROWS", "50")

	_, err := Load()
	assert.Error(t, err)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("PREVIEW_ROWS", "lots")
	t.Setenv("SUBMIT_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.PreviewRows)
	assert.Equal(t, 2*time.Minute, cfg.SubmitTimeout)
}
