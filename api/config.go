package api

import "time"

// Config configures the HTTP API.
type Config struct {
	Auth      AuthConfig      `json:"auth" mapstructure:"auth" yaml:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit" mapstructure:"rate_limit" yaml:"rate_limit"`

	// MaxEventsPage caps the limit accepted by GET /v1/events (default: 500).
	MaxEventsPage int `json:"max_events_page" mapstructure:"max_events_page" yaml:"max_events_page"`
}

// AuthConfig configures bearer token verification. Tokens are HMAC signed
// JWTs whose subject is the caller address.
type AuthConfig struct {
	HMACSecret string        `json:"hmac_secret" mapstructure:"hmac_secret" yaml:"hmac_secret"`
	Issuer     string        `json:"issuer" mapstructure:"issuer" yaml:"issuer"`
	Audience   string        `json:"audience" mapstructure:"audience" yaml:"audience"`
	ClockSkew  time.Duration `json:"clock_skew" mapstructure:"clock_skew" yaml:"clock_skew"`
}

// RateLimitConfig bounds mutating requests per caller.
type RateLimitConfig struct {
	RequestsPerMinute float64 `json:"requests_per_minute" mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Burst             int     `json:"burst" mapstructure:"burst" yaml:"burst"`
}

// DefaultConfig returns a Config with sensible defaults. The HMAC secret
// has no default and must be supplied.
func DefaultConfig() Config {
	return Config{
		Auth: AuthConfig{
			ClockSkew: 2 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Burst:             10,
		},
		MaxEventsPage: 500,
	}
}
