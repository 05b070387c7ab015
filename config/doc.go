// Package config loads configuration from config.yml, .env files and the
// environment using Viper.
//
// # Usage
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Session httpclient.Config `yaml:"session" mapstructure:"session"`
//	}
//
//	var cfg Config
//	err := config.LoadConfig("rxget", &cfg, config.WithEnvPrefix("RXGET"))
//
// With a prefix, RXGET_SESSION_TIMEOUT=5s overrides session.timeout. When the
// target implements ApplyDefaults or Validate they run after unmarshalling.
package config
