package security

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// TLSConfig describes client-side TLS settings. The zero value leaves the
// transport defaults untouched.
type TLSConfig struct {
	// SkipVerify disables server certificate verification.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile is a PEM bundle of extra roots for verifying the server.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// CAPEM is an inline PEM bundle, appended to CAFile when both are set.
	CAPEM string `yaml:"ca_pem" mapstructure:"ca_pem"`

	// CertFile and KeyFile are the client certificate for mutual TLS.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`

	// ServerName overrides the name used for certificate verification.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// MinVersion is "1.2" or "1.3". Defaults to 1.2.
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

var tlsVersions = map[string]uint16{
	"":    tls.VersionTLS12,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// Build creates a *tls.Config, or returns nil when nothing is configured.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in
		ServerName:         c.ServerName,
		MinVersion:         tlsVersions[c.MinVersion],
	}

	pool, err := c.rootCAs()
	if err != nil {
		return nil, err
	}
	cfg.RootCAs = pool

	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("security/tls: loading client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// Validate checks that the settings are consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return errors.New("security/tls: cert_file and key_file must be set together")
	}
	if _, ok := tlsVersions[c.MinVersion]; !ok {
		return fmt.Errorf("security/tls: unsupported min_version %q", c.MinVersion)
	}
	return nil
}

// IsEnabled reports whether any setting is configured.
func (c *TLSConfig) IsEnabled() bool {
	if c == nil {
		return false
	}
	return *c != TLSConfig{}
}

// rootCAs returns nil when no extra roots are configured so the system pool is used.
func (c *TLSConfig) rootCAs() (*x509.CertPool, error) {
	if c.CAFile == "" && c.CAPEM == "" {
		return nil, nil
	}
	pool := x509.NewCertPool()
	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("security/tls: reading CA file: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("security/tls: no certificates in %s", c.CAFile)
		}
	}
	if c.CAPEM != "" && !pool.AppendCertsFromPEM([]byte(c.CAPEM)) {
		return nil, errors.New("security/tls: no certificates in ca_pem")
	}
	return pool, nil
}
