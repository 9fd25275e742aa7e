package runner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidConfig = errors.New("invalid test config")
	ErrAlreadyRun    = errors.New("runner already started")
)

const (
	AuthSchemeAPIKey = "apikey"
	AuthSchemeBearer = "bearer"

	DefaultDrainGrace = 2 * time.Second
)

// Config is the immutable configuration of one test run.
type Config struct {
	BaseURL         string        `json:"base_url"`
	APIKey          string        `json:"-"`
	AuthScheme      string        `json:"auth_scheme"`
	ConcurrentUsers int           `json:"concurrent_users"`
	DurationSeconds int           `json:"duration_seconds"`
	RampUpSeconds   int           `json:"ramp_up_seconds"`
	TimeoutSec      int           `json:"timeout_seconds"`
	HTTP2           bool          `json:"http2"`
	Insecure        bool          `json:"insecure"`
	DrainGrace      time.Duration `json:"drain_grace"`
}

// Validate checks the config before any engine work starts.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if c.ConcurrentUsers < 1 {
		return fmt.Errorf("%w: concurrent users must be >= 1, got %d", ErrInvalidConfig, c.ConcurrentUsers)
	}
	if c.DurationSeconds < 1 {
		return fmt.Errorf("%w: duration must be >= 1s, got %d", ErrInvalidConfig, c.DurationSeconds)
	}
	if c.RampUpSeconds < 0 {
		return fmt.Errorf("%w: ramp-up must be >= 0, got %d", ErrInvalidConfig, c.RampUpSeconds)
	}
	if c.TimeoutSec < 0 {
		return fmt.Errorf("%w: timeout must be >= 0, got %d", ErrInvalidConfig, c.TimeoutSec)
	}
	switch strings.ToLower(c.AuthScheme) {
	case "", AuthSchemeAPIKey, AuthSchemeBearer:
	default:
		return fmt.Errorf("%w: unknown auth scheme %q", ErrInvalidConfig, c.AuthScheme)
	}
	return nil
}

// AuthHeader returns the Authorization value for the configured key, or "".
func (c Config) AuthHeader() string {
	if c.APIKey == "" {
		return ""
	}
	if strings.EqualFold(c.AuthScheme, AuthSchemeBearer) {
		return "Bearer " + c.APIKey
	}
	return "APIKEY " + c.APIKey
}

func (c Config) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

func (c Config) drainGrace() time.Duration {
	if c.DrainGrace <= 0 {
		return DefaultDrainGrace
	}
	return c.DrainGrace
}
