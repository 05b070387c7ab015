package rx

import (
	"context"

	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/logger"
	"github.com/kbukum/rxhttp/stream"
)

// LiveRequest is a request created by the transport.
type LiveRequest interface {
	ID() string
	Resume()
	Cancel()
	// OnFinish receives the terminal error, nil on success.
	OnFinish(func(error))
	ProgressCapability() httpclient.ProgressCapability
}

// fromTask turns a request factory into a stream. Each subscription calls
// factory once, emits the request, then completes or fails with the
// request's terminal outcome. Closing the subscription cancels the request.
func fromTask[R LiveRequest](s *httpclient.Session, log *logger.Logger, factory func(*httpclient.Session) (R, error)) *stream.Stream[R] {
	return stream.Create(func(_ context.Context, e stream.Emitter[R]) (func(), error) {
		req, err := factory(s)
		if err != nil {
			log.Debug("request construction failed", logger.ErrorFields("create", err))
			return nil, err
		}

		e.Next(req)
		req.OnFinish(func(err error) {
			if err != nil {
				e.Error(err)
				return
			}
			e.Complete()
		})
		if !s.StartsImmediately() {
			req.Resume()
		}
		return req.Cancel, nil
	})
}
