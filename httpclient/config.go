package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/rxhttp/resilience"
	"github.com/kbukum/rxhttp/security"
	"github.com/kbukum/rxhttp/validation"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "rxhttp"
)

// Config configures a Session.
type Config struct {
	// Name identifies the session in logs, metrics and health reports.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is prepended to relative request URLs.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Timeout bounds a whole transfer, including reading the body. Defaults to 60s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// UserAgent is sent when a request does not set one.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// DeferStart leaves new requests suspended until Resume is called.
	DeferStart bool `yaml:"defer_start" mapstructure:"defer_start"`

	// MaxConcurrent caps the number of transfers in flight. 0 means unlimited.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`

	// Auth configures default authentication applied to all requests.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// TLS configures the transport. Ignored when the session wraps a caller's client.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// CircuitBreaker configures circuit breaker behavior. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`

	// RateLimiter configures rate limiting. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultCircuitBreakerConfig returns a default circuit breaker config.
func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	return &cfg
}

// DefaultRateLimiterConfig returns a default rate limiter config.
func DefaultRateLimiterConfig(name string) *resilience.RateLimiterConfig {
	cfg := resilience.DefaultRateLimiterConfig(name)
	return &cfg
}
