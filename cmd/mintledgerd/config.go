package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xraph/mintledger/extension"
)

// envPrefix namespaces environment overrides, e.g. MINTLEDGER_LEDGER_OWNER.
const envPrefix = "MINTLEDGER"

// daemonConfig is the full daemon configuration.
type daemonConfig struct {
	Listen        string           `mapstructure:"listen"`
	MetricsListen string           `mapstructure:"metrics_listen"`
	Log           logConfig        `mapstructure:"log"`
	Ledger        extension.Config `mapstructure:"ledger"`
}

type logConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func defaultDaemonConfig() daemonConfig {
	return daemonConfig{
		Listen:        ":8080",
		MetricsListen: ":9090",
		Log: logConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Ledger: extension.DefaultConfig(),
	}
}

// newViper returns a viper instance with defaults registered so that every
// key can be overridden from the environment.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	d := defaultDaemonConfig()
	v.SetDefault("listen", d.Listen)
	v.SetDefault("metrics_listen", d.MetricsListen)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)

	l := d.Ledger
	v.SetDefault("ledger.owner", l.Owner)
	v.SetDefault("ledger.base_path", l.BasePath)
	v.SetDefault("ledger.total_supply", l.TotalSupply)
	v.SetDefault("ledger.max_daily_mint_per_account", l.MaxDailyMintPerAccount)
	v.SetDefault("ledger.eth_to_token_ratio", l.EthToTokenRatio)
	v.SetDefault("ledger.store", l.Store)
	v.SetDefault("ledger.leveldb_path", l.LevelDBPath)
	v.SetDefault("ledger.dsn", l.DSN)
	v.SetDefault("ledger.replay_page_size", l.ReplayPageSize)
	v.SetDefault("ledger.plugin_timeout", l.PluginTimeout)
	v.SetDefault("ledger.payout.endpoint", l.Payout.Endpoint)
	v.SetDefault("ledger.payout.token", l.Payout.Token)
	v.SetDefault("ledger.payout.max_retries", l.Payout.MaxRetries)
	v.SetDefault("ledger.payout.retry_delay", l.Payout.RetryDelay)
	v.SetDefault("ledger.api.auth.hmac_secret", l.API.Auth.HMACSecret)
	v.SetDefault("ledger.api.auth.issuer", l.API.Auth.Issuer)
	v.SetDefault("ledger.api.auth.audience", l.API.Auth.Audience)
	v.SetDefault("ledger.api.auth.clock_skew", l.API.Auth.ClockSkew)
	v.SetDefault("ledger.api.rate_limit.requests_per_minute", l.API.RateLimit.RequestsPerMinute)
	v.SetDefault("ledger.api.rate_limit.burst", l.API.RateLimit.Burst)
	v.SetDefault("ledger.api.max_events_page", l.API.MaxEventsPage)
	return v
}

// loadConfig reads path (if set) and applies environment overrides.
func loadConfig(v *viper.Viper, path string) (daemonConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return daemonConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg := defaultDaemonConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return daemonConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a JSON slog logger writing to a rotated file when
// cfg.File is set, stderr otherwise.
func newLogger(cfg logConfig) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out, closer = lj, lj
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", "mintledgerd"), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
