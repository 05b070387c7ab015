package httpclient

import (
	"encoding/base64"
	"net/http"
)

// AuthType identifies the authentication method.
type AuthType int

const (
	// AuthNone disables authentication.
	AuthNone AuthType = iota
	// AuthBearer uses Bearer token authentication.
	AuthBearer
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic
	// AuthAPIKey uses API key authentication (header or query parameter).
	AuthAPIKey
	// AuthCustom uses a custom authentication function.
	AuthCustom
)

// AuthConfig configures request authentication. It is applied to the
// request descriptor when a request is created, so the credentials are
// visible in Request() and to validations. Credentials already present on
// the request are left alone.
type AuthConfig struct {
	Type AuthType
	// Token is the bearer token (AuthBearer).
	Token string
	// Username and Password are the basic auth credentials (AuthBasic).
	Username string
	Password string
	// Key is the API key value (AuthAPIKey).
	Key string
	// In is "header" (default) or "query" (AuthAPIKey).
	In string
	// Name is the header or query parameter name. Defaults to "X-API-Key".
	Name string
	// Apply modifies the outgoing *http.Request just before it is sent (AuthCustom).
	Apply func(*http.Request)
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuth creates an API key auth config sent in the X-API-Key header.
func APIKeyAuth(key string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "header", Name: "X-API-Key"}
}

// APIKeyAuthQuery creates an API key auth config sent as a query parameter.
func APIKeyAuthQuery(key, paramName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "query", Name: paramName}
}

// CustomAuth creates an auth config that modifies each outgoing request.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// applyTo writes credentials into a request descriptor.
func (a *AuthConfig) applyTo(req *URLRequest) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		setIfAbsent(req.Header, "Authorization", "Bearer "+a.Token)
	case AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		setIfAbsent(req.Header, "Authorization", "Basic "+creds)
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = "X-API-Key"
		}
		if a.In == "query" {
			q := req.URL.Query()
			if q.Get(name) == "" {
				q.Set(name, a.Key)
				req.URL.RawQuery = q.Encode()
			}
			return
		}
		setIfAbsent(req.Header, name, a.Key)
	}
}

// applyToHTTP runs the custom hook on the outgoing request.
func (a *AuthConfig) applyToHTTP(req *http.Request) {
	if a == nil || a.Type != AuthCustom || a.Apply == nil {
		return
	}
	a.Apply(req)
}

func setIfAbsent(h http.Header, key, value string) {
	if h.Get(key) == "" {
		h.Set(key, value)
	}
}
