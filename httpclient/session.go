package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/rxhttp/logger"
	"github.com/kbukum/rxhttp/observability"
	"github.com/kbukum/rxhttp/resilience"
)

const tracerName = "github.com/kbukum/rxhttp/httpclient"

// Session creates live requests and runs them over a shared net/http
// transport with optional circuit breaking, rate limiting and a cap on
// concurrent transfers.
type Session struct {
	httpClient *http.Client
	config     Config
	cb         *resilience.CircuitBreaker
	rl         *resilience.RateLimiter
	bh         *resilience.Bulkhead
	log        *logger.Logger
	metrics    *observability.Metrics
	tracer     trace.Tracer
	tempDir    string

	mu     sync.Mutex
	active map[string]*task
	closed bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Defaults to logger.Get("httpclient").
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithMetrics records transfer metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithTracerProvider traces requests with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Session) { s.tracer = tp.Tracer(tracerName) }
}

// WithHTTPClient replaces the underlying *http.Client. The session timeout
// and TLS settings are not applied to a supplied client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.httpClient = c }
}

// WithTempDir sets the directory for in-progress downloads. Defaults to
// os.TempDir().
func WithTempDir(dir string) Option {
	return func(s *Session) { s.tempDir = dir }
}

// New creates a Session with the given configuration.
func New(cfg Config, opts ...Option) (*Session, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
	}

	s := &Session{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		tracer: otel.Tracer(tracerName),
		active: make(map[string]*task),
	}

	if cfg.CircuitBreaker != nil {
		s.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		s.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	if cfg.MaxConcurrent > 0 {
		s.bh = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          cfg.Name,
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       cfg.Timeout,
		})
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get("httpclient")
	}
	if s.tempDir == "" {
		s.tempDir = os.TempDir()
	}
	return s, nil
}

// StartsImmediately reports whether new requests run as soon as they are
// created. When false, callers must Resume them.
func (s *Session) StartsImmediately() bool {
	return !s.config.DeferStart
}

// Request creates a data request. Construction errors are returned before
// anything is sent.
func (s *Session) Request(conv URLRequestConvertible) (*DataRequest, error) {
	req, err := s.prepare(conv)
	if err != nil {
		return nil, err
	}
	r := newDataRequest(s, KindData, req, nil)
	s.autoStart(r.task)
	return r, nil
}

// Upload creates a request that sends src as the body.
func (s *Session) Upload(src UploadSource, conv URLRequestConvertible) (*UploadRequest, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	req, err := s.prepare(conv)
	if err != nil {
		return nil, err
	}
	r := newUploadRequest(s, req, src)
	s.autoStart(r.task)
	return r, nil
}

// Download creates a request whose body is written to a temporary file and
// then moved to the path chosen by dest. A nil dest keeps the temporary file.
func (s *Session) Download(conv URLRequestConvertible, dest Destination) (*DownloadRequest, error) {
	req, err := s.prepare(conv)
	if err != nil {
		return nil, err
	}
	r := newDownloadRequest(s, req, dest, nil)
	s.autoStart(r.task)
	return r, nil
}

// DownloadResuming continues a download from data produced by
// DownloadRequest.ResumeData.
func (s *Session) DownloadResuming(resumeData []byte, dest Destination) (*DownloadRequest, error) {
	rd, err := decodeResumeData(resumeData)
	if err != nil {
		return nil, err
	}
	req, err := s.prepare(rd.urlRequest())
	if err != nil {
		return nil, err
	}
	r := newDownloadRequest(s, req, dest, rd)
	s.autoStart(r.task)
	return r, nil
}

// Close cancels all running requests and releases idle connections.
func (s *Session) Close(_ context.Context) error {
	s.mu.Lock()
	s.closed = true
	tasks := make([]*task, 0, len(s.active))
	for _, t := range s.active {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
	s.httpClient.CloseIdleConnections()
	return nil
}

// IsAvailable reports whether the session accepts requests.
func (s *Session) IsAvailable(_ context.Context) bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false
	}
	if s.cb != nil {
		return s.cb.State() != resilience.StateOpen
	}
	return true
}

// ActiveCount returns the number of running requests.
func (s *Session) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// GetConfig returns the session configuration.
func (s *Session) GetConfig() Config {
	return s.config
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (s *Session) Unwrap() *http.Client {
	return s.httpClient
}

func (s *Session) autoStart(t *task) {
	if s.StartsImmediately() {
		t.Resume()
	}
}

func (s *Session) track(t *task) {
	s.mu.Lock()
	s.active[t.id] = t
	s.mu.Unlock()
}

func (s *Session) untrack(t *task) {
	s.mu.Lock()
	delete(s.active, t.id)
	s.mu.Unlock()
}

// prepare builds the request descriptor and applies session defaults:
// base URL, default headers and user agent. Request headers win.
func (s *Session) prepare(conv URLRequestConvertible) (*URLRequest, error) {
	if conv == nil {
		return nil, NewInvalidURLError("", errors.New("nil request"))
	}
	req, err := conv.AsURLRequest()
	if err != nil {
		return nil, err
	}
	if req.URL == nil {
		return nil, NewInvalidURLError("", errors.New("request has no URL"))
	}

	if !req.URL.IsAbs() {
		if s.config.BaseURL == "" {
			return nil, NewInvalidURLError(req.URL.String(), errors.New("relative URL without base URL"))
		}
		base, err := url.Parse(strings.TrimRight(s.config.BaseURL, "/") + "/")
		if err != nil {
			return nil, NewInvalidURLError(s.config.BaseURL, err)
		}
		rel := *req.URL
		rel.Path = strings.TrimLeft(rel.Path, "/")
		req.URL = base.ResolveReference(&rel)
	}

	if req.Header == nil {
		req.Header = http.Header{}
	}
	for k, v := range s.config.Headers {
		setIfAbsent(req.Header, k, v)
	}
	setIfAbsent(req.Header, "User-Agent", s.config.UserAgent)
	s.config.Auth.applyTo(req)
	return req, nil
}

// execute runs t.perform while holding a concurrency slot.
func (s *Session) execute(ctx context.Context, t *task) (*Response, []byte, error) {
	if s.bh != nil {
		release, err := s.bh.Acquire(ctx)
		if err != nil {
			return nil, nil, t.busyError(err)
		}
		defer release()
	}
	return t.perform(ctx)
}

func (t *task) busyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return t.transportError(err)
	}
	return NewBusyError(err)
}

// roundTrip sends req through the rate limiter and circuit breaker. The
// response body is left open for the caller. Transport errors and 5xx
// responses count as circuit breaker failures.
func (s *Session) roundTrip(ctx context.Context, t *task, req *http.Request) (*http.Response, error) {
	s.config.Auth.applyToHTTP(req)

	if s.rl != nil {
		if err := s.rl.Wait(ctx); err != nil {
			if errors.Is(err, resilience.ErrRateLimited) {
				return nil, &Error{Code: ErrCodeRateLimit, Message: err.Error(), Retryable: true, Err: err}
			}
			return nil, t.transportError(err)
		}
	}

	var report func(success bool)
	if s.cb != nil {
		done, err := s.cb.Allow()
		if err != nil {
			return nil, NewCircuitOpenError(err)
		}
		report = done
	}

	resp, err := s.httpClient.Do(req)
	if report != nil {
		switch {
		case err != nil:
			report(t.IsCancelled())
		default:
			report(resp.StatusCode < 500)
		}
	}
	if err != nil {
		return nil, t.transportError(err)
	}
	return resp, nil
}

// readBody reads resp.Body into memory, reporting download progress.
func (t *task) readBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	t.download.reset(0, resp.ContentLength)
	data, err := io.ReadAll(&countingReader{r: resp.Body, p: t.download})
	if err != nil {
		return data, t.transportError(err)
	}
	return data, nil
}
