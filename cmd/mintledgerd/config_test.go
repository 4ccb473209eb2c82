package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newViper(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Ledger.Store)
	assert.Equal(t, "10", cfg.Ledger.MaxDailyMintPerAccount)
	assert.Equal(t, 5*time.Second, cfg.Ledger.PluginTimeout)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mintledgerd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":7000"
ledger:
  owner: "0x00000000000000000000000000000000000000a1"
  total_supply: "250"
  plugin_timeout: 2s
  api:
    rate_limit:
      burst: 3
`), 0o600))

	t.Setenv("MINTLEDGER_LEDGER_ETH_TO_TOKEN_RATIO", "4")
	t.Setenv("MINTLEDGER_LOG_LEVEL", "debug")

	cfg, err := loadConfig(newViper(), path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "0x00000000000000000000000000000000000000a1", cfg.Ledger.Owner)
	assert.Equal(t, "250", cfg.Ledger.TotalSupply)
	assert.Equal(t, "4", cfg.Ledger.EthToTokenRatio)
	assert.Equal(t, 2*time.Second, cfg.Ledger.PluginTimeout)
	assert.Equal(t, 3, cfg.Ledger.API.RateLimit.Burst)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(newViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mintledgerd.log")
	logger, closer, err := newLogger(logConfig{Level: "warn", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	logger.Warn("written")
	logger.Info("dropped")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written"`)
	assert.NotContains(t, string(data), "dropped")

	_, _, err = newLogger(logConfig{Level: "loud"})
	assert.Error(t, err)
}
