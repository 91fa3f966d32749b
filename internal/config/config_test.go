package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validTOML = `
mode = "scan"
log_level = "debug"

[wallet]
private_key = "0xabc"

[kalshi]
api_key_id = "kid"
rsa_private_key_path = "/tmp/key.pem"

[feed]
base_url = "http://groups.internal"

[scan]
interval = "30s"
min_profit = 0.02
`

func TestLoadMergesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	// Explicit values win.
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Scan.Interval.Duration)
	assert.InDelta(t, 0.02, cfg.Scan.MinProfit, 1e-9)

	// Unset values keep their defaults.
	assert.Equal(t, "https://clob.polymarket.com", cfg.Polymarket.ClobHost)
	assert.Equal(t, 137, cfg.Polymarket.ChainID)
	assert.Equal(t, "https://api.elections.kalshi.com", cfg.Kalshi.ApiHost)
	assert.Equal(t, 4, cfg.Scan.Concurrency)
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("CROSSARB_MODE", "trade")
	t.Setenv("CROSSARB_SCAN_MIN_PROFIT", "0.05")
	t.Setenv("CROSSARB_SCAN_INTERVAL", "2m")
	t.Setenv("CROSSARB_REDIS_ENABLED", "true")

	cfg, err := Load(writeConfig(t, validTOML))
	require.NoError(t, err)

	assert.Equal(t, "trade", cfg.Mode)
	assert.InDelta(t, 0.05, cfg.Scan.MinProfit, 1e-9)
	assert.Equal(t, 2*time.Minute, cfg.Scan.Interval.Duration)
	assert.True(t, cfg.Redis.Enabled)
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "yolo"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateRequiresKalshiCredentialsForScan(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "0xabc"
	cfg.Feed.BaseURL = "http://groups.internal"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key_id")
	assert.Contains(t, err.Error(), "rsa_private_key_path")
}

func TestValidateRequiresWalletSource(t *testing.T) {
	cfg := Defaults()
	cfg.Kalshi.ApiKeyID = "kid"
	cfg.Kalshi.RsaPrivateKeyPath = "/tmp/key.pem"
	cfg.Feed.BaseURL = "http://groups.internal"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet")

	cfg.Wallet.EncryptedKeyPath = "/tmp/wallet.enc"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_password")

	cfg.Wallet.KeyPassword = "hunter2"
	assert.NoError(t, cfg.Validate())
}

func TestValidateTelegramPairing(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "0xabc"
	cfg.Kalshi.ApiKeyID = "kid"
	cfg.Kalshi.RsaPrivateKeyPath = "/tmp/key.pem"
	cfg.Feed.BaseURL = "http://groups.internal"
	cfg.Notify.TelegramToken = "token-only"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "0xsecret"
	cfg.Notify.TelegramToken = "bot-token"
	cfg.Postgres.Password = "pgpass"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Wallet.PrivateKey)
	assert.Equal(t, "***", red.Notify.TelegramToken)
	assert.Equal(t, "***", red.Postgres.Password)

	// The original is untouched.
	assert.Equal(t, "0xsecret", cfg.Wallet.PrivateKey)
}
