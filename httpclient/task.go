package httpclient

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/rxhttp/logger"
)

type taskState int

const (
	stateSuspended taskState = iota
	stateRunning
	stateFinished
)

// task is the lifecycle shared by every live request: it is created
// suspended, runs on its own goroutine once resumed and finishes exactly
// once. Handlers run in registration order after the finish; handlers
// registered later run immediately with the stored outcome.
type task struct {
	id      string
	kind    Kind
	session *Session
	request *URLRequest

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	upload   *progress
	download *progress

	perform func(ctx context.Context) (*Response, []byte, error)

	mu         sync.Mutex
	state      taskState
	cancelled  bool
	validators []Validation
	handlers   []func()
	dispatched bool
	response   *Response
	data       []byte
	err        error
	duration   time.Duration
}

func newTask(s *Session, kind Kind, req *URLRequest) *task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		id:       uuid.NewString(),
		kind:     kind,
		session:  s,
		request:  req,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		download: newProgress(),
	}
	if kind == KindUpload {
		t.upload = newProgress()
	}
	return t
}

// ID returns the unique request identifier.
func (t *task) ID() string { return t.id }

// Kind returns the request variant.
func (t *task) Kind() Kind { return t.kind }

// Request returns a copy of the request descriptor being sent.
func (t *task) Request() *URLRequest { return t.request.Clone() }

// Done is closed once the request has finished.
func (t *task) Done() <-chan struct{} { return t.done }

// IsCancelled reports whether Cancel was called before the request finished.
func (t *task) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Resume starts a suspended request. Calls after the first are no-ops.
func (t *task) Resume() {
	t.mu.Lock()
	if t.state != stateSuspended {
		t.mu.Unlock()
		return
	}
	t.state = stateRunning
	t.mu.Unlock()

	t.session.track(t)
	go t.run()
}

// Cancel stops the request. A suspended request finishes immediately with a
// cancellation error; a finished request is left untouched. Safe to call
// any number of times.
func (t *task) Cancel() {
	t.mu.Lock()
	switch t.state {
	case stateFinished:
		t.mu.Unlock()
		return
	case stateSuspended:
		t.cancelled = true
		t.state = stateRunning
		t.mu.Unlock()
		t.cancel()
		t.finish(nil, nil, NewCancelledError(context.Canceled), 0)
		return
	}
	already := t.cancelled
	t.cancelled = true
	t.mu.Unlock()
	if !already {
		t.cancel()
	}
}

// OnFinish registers fn to receive the terminal error, nil on success.
// Registered validations are applied first.
func (t *task) OnFinish(fn func(error)) {
	t.addHandler(func() {
		_, _, err := t.outcome()
		fn(err)
	})
}

// ProgressCapability returns the progress callbacks supported by the request.
func (t *task) ProgressCapability() ProgressCapability {
	pc := ProgressCapability{Kind: t.kind, Download: t.download.register}
	if t.upload != nil {
		pc.Upload = t.upload.register
	}
	return pc
}

func (t *task) addValidation(v Validation) {
	t.mu.Lock()
	t.validators = append(t.validators, v)
	t.mu.Unlock()
}

func (t *task) addHandler(h func()) {
	t.mu.Lock()
	if t.dispatched {
		t.mu.Unlock()
		h()
		return
	}
	t.handlers = append(t.handlers, h)
	t.mu.Unlock()
}

// outcome returns the stored result with the validations registered so far
// applied in order.
func (t *task) outcome() (*Response, []byte, error) {
	t.mu.Lock()
	resp, data, err := t.response, t.data, t.err
	validators := append([]Validation(nil), t.validators...)
	t.mu.Unlock()

	if err != nil {
		return resp, data, err
	}
	for _, v := range validators {
		if verr := v(t.request, resp, data); verr != nil {
			return resp, data, verr
		}
	}
	return resp, data, nil
}

func (t *task) run() {
	s := t.session
	start := time.Now()

	ctx, span := s.tracer.Start(t.ctx, "httpclient."+t.kind.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", t.request.Method),
			attribute.String("url.full", t.request.URL.String()),
			attribute.String("rxhttp.request.id", t.id),
		),
	)
	if s.metrics != nil {
		s.metrics.RecordTransferStart(ctx, t.kind.String())
	}
	log := s.log.WithFields(logger.Fields(
		logger.FieldRequestID, t.id,
		logger.FieldKind, t.kind.String(),
		logger.FieldMethod, t.request.Method,
		logger.FieldURL, t.request.URL.String(),
	))
	log.Debug("request started")

	resp, data, err := s.execute(ctx, t)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	outcome := "ok"
	fields := logger.MergeWithDuration(logger.Fields(logger.FieldStatus, status), duration)
	if err != nil {
		outcome = errorOutcome(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fields[logger.FieldError] = err.Error()
		if IsCancelled(err) {
			log.Debug("request cancelled", fields)
		} else {
			log.Warn("request failed", fields)
		}
	} else {
		log.Debug("request finished", fields)
	}
	span.End()
	if s.metrics != nil {
		s.metrics.RecordTransferEnd(ctx, s.config.Name, t.kind.String(), t.request.Method, outcome, duration)
		up, down := t.transferred()
		s.metrics.RecordBytes(ctx, t.kind.String(), up, down)
	}

	s.untrack(t)
	t.finish(resp, data, err, duration)
}

func (t *task) transferred() (up, down int64) {
	if t.upload != nil {
		up, _ = t.upload.snapshot()
	}
	down, _ = t.download.snapshot()
	return up, down
}

func (t *task) finish(resp *Response, data []byte, err error, duration time.Duration) {
	t.mu.Lock()
	if t.state == stateFinished {
		t.mu.Unlock()
		return
	}
	t.state = stateFinished
	t.response, t.data, t.err, t.duration = resp, data, err, duration
	t.mu.Unlock()

	t.cancel()
	close(t.done)
	t.dispatch()
}

func (t *task) dispatch() {
	for {
		t.mu.Lock()
		if len(t.handlers) == 0 {
			t.dispatched = true
			t.mu.Unlock()
			return
		}
		h := t.handlers[0]
		t.handlers = t.handlers[1:]
		t.mu.Unlock()
		h()
	}
}

// transportError classifies an error returned while sending or reading.
func (t *task) transportError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if t.IsCancelled() {
		return NewCancelledError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

func errorOutcome(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code.String()
	}
	return "error"
}
