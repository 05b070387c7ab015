package rx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/logger"
	"github.com/kbukum/rxhttp/stream"
	"github.com/kbukum/rxhttp/testutil"
)

const waitTimeout = 5 * time.Second

func deferred(c *httpclient.Config) { c.DeferStart = true }

func newSession(t *testing.T, baseURL string, mutate ...func(*httpclient.Config)) *httpclient.Session {
	t.Helper()
	cfg := httpclient.Config{Name: "rx-test", BaseURL: baseURL, Timeout: waitTimeout}
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := httpclient.New(cfg, httpclient.WithLogger(logger.Nop()), httpclient.WithTempDir(t.TempDir()))
	if err != nil {
		t.Fatalf("httpclient.New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func newClient(t *testing.T, srv *testutil.Server, mutate ...func(*httpclient.Config)) *Client {
	t.Helper()
	return NewClient(newSession(t, srv.BaseURL(), mutate...), WithLogger(logger.Nop()))
}

// closedURL returns the address of a server that no longer accepts
// connections.
func closedURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	t.Cleanup(cancel)
	return ctx
}

func collect[T any](t *testing.T, s *stream.Stream[T]) ([]T, error) {
	t.Helper()
	return stream.Collect(testContext(t), s)
}
