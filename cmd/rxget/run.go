package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding"

	"github.com/kbukum/rxhttp/component"
	"github.com/kbukum/rxhttp/config"
	apperrors "github.com/kbukum/rxhttp/errors"
	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/logger"
	"github.com/kbukum/rxhttp/observability"
	"github.com/kbukum/rxhttp/rx"
	"github.com/kbukum/rxhttp/serializer"
	"github.com/kbukum/rxhttp/stream"
	"github.com/kbukum/rxhttp/version"
)

const (
	progressInterval = 200 * time.Millisecond
	// progressGrace is how long a finished command waits for progress
	// watchers to print their final sample.
	progressGrace = time.Second
)

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		return fail(stderr, err)
	}
	if opts.Version {
		fmt.Fprintf(stdout, "%s %s\n", serviceName, version.Get())
		return 0
	}

	loadOpts := []config.LoaderOption{config.WithEnvPrefix("RXGET")}
	if opts.ConfigFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(opts.ConfigFile))
	}
	var cfg appConfig
	if err := config.LoadConfig(serviceName, &cfg, loadOpts...); err != nil {
		return fail(stderr, err)
	}
	if opts.Token != "" {
		cfg.Session.Auth = httpclient.BearerAuth(opts.Token)
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	if strings.HasPrefix(opts.URL, "/") && cfg.Session.BaseURL == "" {
		return fail(stderr, apperrors.InvalidInput("url", "relative URLs need session.base_url"))
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return fail(stderr, apperrors.Internal(err))
	}

	session := httpclient.NewComponent(cfg.Session,
		httpclient.WithLogger(log.WithComponent("httpclient")),
		httpclient.WithMetrics(metrics),
	)
	registry := component.NewRegistry(log)
	for _, comp := range []component.Component{observability.NewComponent(cfg.Observability), session} {
		if err := registry.Register(comp); err != nil {
			return fail(stderr, apperrors.Internal(err))
		}
	}
	if err := registry.StartAll(ctx); err != nil {
		return fail(stderr, apperrors.InvalidConfig(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := registry.StopAll(stopCtx); err != nil {
			log.Warn("shutdown failed", logger.ErrorFields("stop", err))
		}
	}()
	for _, h := range registry.HealthAll(ctx) {
		log.Debug("component ready", logger.Fields("component", h.Name, "status", string(h.Status), "message", h.Message))
	}

	cmd := &command{
		opts:   opts,
		client: rx.NewClient(session.Session(), rx.WithLogger(log), rx.WithMetrics(metrics)),
		stdout: stdout,
		stderr: stderr,
	}
	err = cmd.execute(ctx)
	cmd.wait()
	if err != nil {
		log.Debug("request failed", logger.ErrorFields("execute", err))
		return fail(stderr, classify(opts.URL, err))
	}
	return 0
}

// command runs the request described by opts.
type command struct {
	opts   *options
	client *rx.Client
	stdout io.Writer
	stderr io.Writer

	mu       sync.Mutex
	watchers sync.WaitGroup
	cancels  []context.CancelFunc
}

func (c *command) execute(ctx context.Context) error {
	req := c.opts.request()
	switch {
	case c.opts.Output != "":
		return c.download(ctx, req)
	case c.opts.File != "":
		return c.fetch(ctx, c.uploads(ctx, c.client.UploadFile(c.opts.File, req)))
	case c.opts.Data != "":
		return c.fetch(ctx, c.uploads(ctx, c.client.UploadData([]byte(c.opts.Data), req)))
	}
	requests := c.client.RequestURL(req)
	if c.opts.Progress {
		requests = stream.Tap(requests, func(ctx context.Context, r *httpclient.DataRequest) error {
			c.watch(ctx, rx.ObserveProgress(r))
			return nil
		})
	}
	return c.fetch(ctx, requests)
}

// uploads watches upload progress and exposes the uploads as data requests.
func (c *command) uploads(ctx context.Context, s *stream.Stream[*httpclient.UploadRequest]) *stream.Stream[*httpclient.DataRequest] {
	return stream.Map(s, func(_ context.Context, u *httpclient.UploadRequest) (*httpclient.DataRequest, error) {
		if c.opts.Progress {
			c.watch(ctx, rx.ObserveProgress(u))
		}
		return &u.DataRequest, nil
	})
}

// fetch decodes the request emitted by requests and prints the result. With
// -i any status is printed; otherwise non-2xx responses fail.
func (c *command) fetch(ctx context.Context, requests *stream.Stream[*httpclient.DataRequest]) error {
	rs := c.client.Requests(requests)
	switch c.opts.Decode {
	case "text":
		var enc encoding.Encoding
		if c.opts.Charset != "" {
			e, err := serializer.Encoding(c.opts.Charset)
			if err != nil {
				return apperrors.InvalidInput("charset", err.Error())
			}
			enc = e
		}
		return decodeWith(ctx, c, rs, serializer.String(enc))
	case "json":
		return decodeWith(ctx, c, rs, serializer.JSON(serializer.JSONOptions{}))
	case "plist":
		return decodeWith(ctx, c, rs, serializer.PropertyList(serializer.PropertyListOptions{}))
	default:
		return decodeWith(ctx, c, rs, serializer.Data())
	}
}

func decodeWith[T any](ctx context.Context, c *command, rs rx.RequestStream, s serializer.DataSerializer[T]) error {
	if !c.opts.Include {
		v, err := stream.First(ctx, rx.StreamSerialized(rs, s))
		if err != nil {
			return err
		}
		return c.print(v)
	}
	res, err := stream.First(ctx, rx.StreamResponseSerialized(rs, s))
	if err != nil {
		return err
	}
	c.printHeaders(res.Response)
	return c.print(res.Value)
}

func (c *command) download(ctx context.Context, req httpclient.RequestSpec) error {
	dest := httpclient.ToPath(c.opts.Output, httpclient.DownloadOptions{
		CreateIntermediateDirectories: true,
		RemovePreviousFile:            true,
	})
	responses := stream.Then(c.client.Download(req, dest), func(r *httpclient.DownloadRequest) *stream.Stream[httpclient.DownloadResponse] {
		dl := c.client.OfDownload(r.ValidateSuccess())
		if c.opts.Progress {
			c.watch(ctx, dl.Progress())
		}
		return dl.Response()
	})
	out, err := stream.First(ctx, responses)
	if err != nil {
		return err
	}
	if c.opts.Include {
		c.printHeaders(out.Response)
	}
	fmt.Fprintln(c.stdout, out.DestinationPath)
	return nil
}

func (c *command) print(v any) error {
	switch v := v.(type) {
	case []byte:
		_, err := c.stdout.Write(v)
		return err
	case string:
		_, err := io.WriteString(c.stdout, v)
		if err == nil && !strings.HasSuffix(v, "\n") {
			_, err = io.WriteString(c.stdout, "\n")
		}
		return err
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return apperrors.Internal(err)
		}
		_, err = fmt.Fprintf(c.stdout, "%s\n", out)
		return err
	}
}

func (c *command) printHeaders(resp *httpclient.Response) {
	if resp == nil {
		return
	}
	fmt.Fprintf(c.stdout, "HTTP %d\n", resp.StatusCode)
	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range resp.Header[name] {
			fmt.Fprintf(c.stdout, "%s: %s\n", name, v)
		}
	}
	fmt.Fprintln(c.stdout)
}

// watch reports progress samples on stderr until s completes or the
// command finishes.
func (c *command) watch(ctx context.Context, s *stream.Stream[rx.Progress]) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancels = append(c.cancels, cancel)
	c.mu.Unlock()

	c.watchers.Add(1)
	go func() {
		defer c.watchers.Done()
		_ = stream.ForEach(ctx, stream.Throttle(s, progressInterval, true), func(_ context.Context, p rx.Progress) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			if p.TotalBytes > 0 {
				fmt.Fprintf(c.stderr, "%d/%d bytes (%.0f%%)\n", p.BytesTransferred, p.TotalBytes, 100*p.CompletionRatio())
			} else {
				fmt.Fprintf(c.stderr, "%d bytes\n", p.BytesTransferred)
			}
			return nil
		})
	}()
}

// wait lets watchers report their final sample, then stops them.
func (c *command) wait() {
	done := make(chan struct{})
	go func() {
		c.watchers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(progressGrace):
	}
	c.mu.Lock()
	for _, cancel := range c.cancels {
		cancel()
	}
	c.mu.Unlock()
	<-done
}

// classify maps a request failure to an AppError with a stable exit code.
func classify(target string, err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	var httpErr *httpclient.Error
	switch {
	case httpclient.IsConstruction(err):
		return apperrors.InvalidInput("url", err.Error()).WithCause(err)
	case httpclient.IsTimeout(err):
		return apperrors.Timeout("request").WithCause(err)
	case httpclient.IsConnection(err):
		return apperrors.Unavailable(target, err)
	case errors.As(err, &httpErr) && (httpErr.Code == httpclient.ErrCodeCircuitOpen || httpErr.Code == httpclient.ErrCodeBusy):
		return apperrors.Unavailable(target, err)
	case errors.As(err, &httpErr) && httpErr.StatusCode > 0:
		return apperrors.New(apperrors.ErrCodeInternal, fmt.Sprintf("Server responded with status %d.", httpErr.StatusCode)).
			WithDetail("status", httpErr.StatusCode).
			WithCause(err)
	}
	var respErr *rx.ResponseError
	if errors.As(err, &respErr) || serializer.IsParseFailure(err) {
		return apperrors.New(apperrors.ErrCodeInternal, "The response body could not be decoded.").WithCause(err)
	}
	return apperrors.Internal(err)
}

// fail prints err as a JSON error document and returns its exit code.
func fail(w io.Writer, err error) int {
	appErr := classify("", err)
	out, _ := json.MarshalIndent(appErr.ToResponse(), "", "  ")
	fmt.Fprintf(w, "%s\n", out)
	return appErr.ExitCode()
}
