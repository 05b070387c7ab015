package rx

import (
	"context"

	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/serializer"
	"github.com/kbukum/rxhttp/stream"
)

// DownloadResult is a decoded download together with its outcome.
type DownloadResult[T any] struct {
	httpclient.DownloadResponse
	Value T
}

// DownloadRequest is a live download request with response streams.
type DownloadRequest struct {
	req *httpclient.DownloadRequest
	c   *Client
}

// Request returns the wrapped live request.
func (r DownloadRequest) Request() *httpclient.DownloadRequest {
	return r.req
}

// Progress streams bytes written to the temporary file.
func (r DownloadRequest) Progress() *stream.Stream[Progress] {
	return ObserveProgress(r.req)
}

// Response emits the download outcome, or fails with its error.
func (r DownloadRequest) Response() *stream.Stream[httpclient.DownloadResponse] {
	return stream.Create(func(_ context.Context, e stream.Emitter[httpclient.DownloadResponse]) (func(), error) {
		r.req.Response(func(out httpclient.DownloadResponse) {
			if out.Err != nil {
				e.Error(out.Err)
				return
			}
			e.Next(out)
			e.Complete()
		})
		return r.req.Cancel, nil
	})
}

// DownloadResponseSerialized decodes the downloaded file with s and emits
// it with the outcome. Transport and decode errors fail the stream.
func DownloadResponseSerialized[T any](r DownloadRequest, s serializer.DownloadSerializer[T]) *stream.Stream[DownloadResult[T]] {
	return stream.Create(func(ctx context.Context, e stream.Emitter[DownloadResult[T]]) (func(), error) {
		r.req.Response(func(out httpclient.DownloadResponse) {
			if out.Err != nil {
				e.Error(out.Err)
				return
			}
			v, err := s.SerializeDownload(out)
			r.c.recordDecode(ctx, s.Format(), err)
			if err != nil {
				e.Error(err)
				return
			}
			e.Next(DownloadResult[T]{DownloadResponse: out, Value: v})
			e.Complete()
		})
		return r.req.Cancel, nil
	})
}

// DownloadSerialized is DownloadResponseSerialized emitting only the value.
// It fails with ErrUnknown when the download produced no response.
func DownloadSerialized[T any](r DownloadRequest, s serializer.DownloadSerializer[T]) *stream.Stream[T] {
	return stream.Map(DownloadResponseSerialized(r, s), func(_ context.Context, res DownloadResult[T]) (T, error) {
		if res.Response == nil {
			var zero T
			return zero, ErrUnknown
		}
		return res.Value, nil
	})
}

// DownloadStream applies download operators to every request emitted by a
// stream.
type DownloadStream struct {
	s *stream.Stream[*httpclient.DownloadRequest]
	c *Client
}

// Stream returns the underlying request stream.
func (ds DownloadStream) Stream() *stream.Stream[*httpclient.DownloadRequest] {
	return ds.s
}

// Response emits the outcome of every download.
func (ds DownloadStream) Response() *stream.Stream[httpclient.DownloadResponse] {
	return stream.Then(ds.s, func(r *httpclient.DownloadRequest) *stream.Stream[httpclient.DownloadResponse] {
		return ds.c.OfDownload(r).Response()
	})
}

// Progress streams the progress of every download.
func (ds DownloadStream) Progress() *stream.Stream[Progress] {
	return progressOf(ds.s)
}

// DownloadsResponseSerialized is DownloadResponseSerialized applied to every
// download of ds.
func DownloadsResponseSerialized[T any](ds DownloadStream, s serializer.DownloadSerializer[T]) *stream.Stream[DownloadResult[T]] {
	return stream.Then(ds.s, func(r *httpclient.DownloadRequest) *stream.Stream[DownloadResult[T]] {
		return DownloadResponseSerialized(ds.c.OfDownload(r), s)
	})
}

// DownloadsSerialized is DownloadSerialized applied to every download of ds.
func DownloadsSerialized[T any](ds DownloadStream, s serializer.DownloadSerializer[T]) *stream.Stream[T] {
	return stream.Then(ds.s, func(r *httpclient.DownloadRequest) *stream.Stream[T] {
		return DownloadSerialized(ds.c.OfDownload(r), s)
	})
}
