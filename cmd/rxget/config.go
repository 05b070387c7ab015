package main

import (
	"fmt"

	"github.com/kbukum/rxhttp/config"
	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/observability"
	"github.com/kbukum/rxhttp/version"
)

const serviceName = "rxget"

// appConfig is read from config.yml and RXGET_* environment variables.
type appConfig struct {
	config.ServiceConfig `mapstructure:",squash"`

	Session       httpclient.Config    `yaml:"session" mapstructure:"session"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`

	// Token is sent as a bearer token when set.
	Token string `yaml:"token" mapstructure:"token"`
}

func (c *appConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.Logging.Level == "" && !c.Debug {
		c.Logging.Level = "warn"
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Session.Name == "" {
		c.Session.Name = c.Name
	}
	if c.Session.UserAgent == "" {
		c.Session.UserAgent = c.Name + "/" + c.Version
	}
	if c.Token != "" && c.Session.Auth == nil {
		c.Session.Auth = httpclient.BearerAuth(c.Token)
	}
	c.Session.ApplyDefaults()

	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	c.Observability.ApplyDefaults()
}

func (c *appConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("config.session: %w", err)
	}
	return nil
}
