// Package security holds the TLS settings shared by the session transport
// and the rxget command.
//
//	cfg := security.TLSConfig{
//	    CAFile:     "/etc/ssl/internal-ca.pem",
//	    MinVersion: "1.3",
//	}
//	tlsConfig, err := cfg.Build()
package security
