package security

import (
	"crypto/tls"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func serverCAPEM(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}))
}

func TestTLSConfig_BuildDisabled(t *testing.T) {
	var nilCfg *TLSConfig
	for _, c := range []*TLSConfig{nilCfg, {}} {
		cfg, err := c.Build()
		if err != nil || cfg != nil {
			t.Errorf("Build() = %v, %v; want nil, nil", cfg, err)
		}
		if c.IsEnabled() {
			t.Error("IsEnabled() should be false")
		}
	}
}

func TestTLSConfig_BuildSettings(t *testing.T) {
	c := &TLSConfig{SkipVerify: true, ServerName: "api.internal", MinVersion: "1.3"}
	cfg, err := c.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.InsecureSkipVerify || cfg.ServerName != "api.internal" || cfg.MinVersion != tls.VersionTLS13 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.RootCAs != nil {
		t.Error("RootCAs should stay nil without CA settings")
	}

	cfg, err = (&TLSConfig{ServerName: "x"}).Build()
	if err != nil || cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("expected TLS 1.2 default, got %v (%v)", cfg, err)
	}
}

func TestTLSConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TLSConfig
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", &TLSConfig{}, false},
		{"cert and key", &TLSConfig{CertFile: "c", KeyFile: "k"}, false},
		{"cert only", &TLSConfig{CertFile: "c"}, true},
		{"key only", &TLSConfig{KeyFile: "k"}, true},
		{"bad version", &TLSConfig{MinVersion: "1.0"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTLSConfig_BuildErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		cfg  *TLSConfig
	}{
		{"missing CA file", &TLSConfig{CAFile: filepath.Join(dir, "missing.pem")}},
		{"invalid CA file", &TLSConfig{CAFile: garbage}},
		{"invalid CA PEM", &TLSConfig{CAPEM: "nope"}},
		{"missing client cert", &TLSConfig{CertFile: filepath.Join(dir, "c.pem"), KeyFile: filepath.Join(dir, "k.pem")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTLSConfig_TrustsConfiguredCA(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caFile, []byte(serverCAPEM(t, srv)), 0o600); err != nil {
		t.Fatal(err)
	}

	for name, c := range map[string]*TLSConfig{
		"file":   {CAFile: caFile},
		"inline": {CAPEM: serverCAPEM(t, srv)},
	} {
		t.Run(name, func(t *testing.T) {
			cfg, err := c.Build()
			if err != nil {
				t.Fatal(err)
			}
			client := &http.Client{Transport: &http.Transport{TLSClientConfig: cfg}}
			resp, err := client.Get(srv.URL)
			if err != nil {
				t.Fatalf("request with configured CA failed: %v", err)
			}
			resp.Body.Close()
		})
	}

	resp, err := (&http.Client{Transport: &http.Transport{}}).Get(srv.URL)
	if err == nil {
		resp.Body.Close()
		t.Error("expected verification failure without the CA")
	}
}
