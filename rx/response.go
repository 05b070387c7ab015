package rx

import (
	"context"
	"time"

	"golang.org/x/text/encoding"

	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/serializer"
	"github.com/kbukum/rxhttp/stream"
)

// DecodedResult is a decoded body together with the response it came from.
type DecodedResult[T any] struct {
	Request  *httpclient.URLRequest
	Response *httpclient.Response
	Data     []byte
	Duration time.Duration
	Value    T
}

// DataRequest is a live data request with decoding streams. Each stream
// registers a response handler on subscription and cancels the request when
// closed early.
type DataRequest struct {
	req *httpclient.DataRequest
	c   *Client
}

// Request returns the wrapped live request.
func (r DataRequest) Request() *httpclient.DataRequest {
	return r.req
}

// Progress streams download progress of the request, or upload progress
// for uploads.
func (r DataRequest) Progress() *stream.Stream[Progress] {
	return ObserveProgress(r.req)
}

// ResponseData emits the raw body of any response with its metadata.
func (r DataRequest) ResponseData() *stream.Stream[DecodedResult[[]byte]] {
	return ResponseSerialized(r, serializer.Data())
}

// Data emits the raw body of a 2xx response.
func (r DataRequest) Data() *stream.Stream[[]byte] {
	return Serialized(r, serializer.Data())
}

// ResponseString emits the body decoded as text with its metadata. A nil
// enc uses the response charset.
func (r DataRequest) ResponseString(enc encoding.Encoding) *stream.Stream[DecodedResult[string]] {
	return ResponseSerialized(r, serializer.String(enc))
}

// String emits the body of a 2xx response decoded as text.
func (r DataRequest) String(enc encoding.Encoding) *stream.Stream[string] {
	return Serialized(r, serializer.String(enc))
}

// ResponseJSON emits the decoded JSON body of any response with its metadata.
func (r DataRequest) ResponseJSON(opts serializer.JSONOptions) *stream.Stream[DecodedResult[any]] {
	return ResponseSerialized(r, serializer.JSON(opts))
}

// JSON emits the decoded JSON body of a 2xx response.
func (r DataRequest) JSON(opts serializer.JSONOptions) *stream.Stream[any] {
	return Serialized(r, serializer.JSON(opts))
}

// ResponsePropertyList emits the decoded property list with its metadata.
func (r DataRequest) ResponsePropertyList(opts serializer.PropertyListOptions) *stream.Stream[DecodedResult[any]] {
	return ResponseSerialized(r, serializer.PropertyList(opts))
}

// PropertyList emits the decoded property list of a 2xx response.
func (r DataRequest) PropertyList(opts serializer.PropertyListOptions) *stream.Stream[any] {
	return Serialized(r, serializer.PropertyList(opts))
}

// DecodeJSON decodes a 2xx JSON body into T.
func DecodeJSON[T any](r DataRequest, opts serializer.JSONOptions) *stream.Stream[T] {
	return Serialized(r, serializer.Decode[T](opts))
}

// ResponseSerialized decodes the body with s and emits it with the response
// metadata. The status code is not validated. Decode failures are wrapped
// in a *ResponseError carrying the status.
func ResponseSerialized[T any](r DataRequest, s serializer.DataSerializer[T]) *stream.Stream[DecodedResult[T]] {
	return stream.Create(func(ctx context.Context, e stream.Emitter[DecodedResult[T]]) (func(), error) {
		r.req.Response(func(out httpclient.DataResponse) {
			v, err := s.Serialize(out)
			if out.Err == nil {
				r.c.recordDecode(ctx, s.Format(), err)
			}
			if err != nil {
				e.Error(annotate(out, err))
				return
			}
			if out.Response == nil {
				e.Error(ErrUnknown)
				return
			}
			e.Next(DecodedResult[T]{
				Request:  out.Request,
				Response: out.Response,
				Data:     out.Data,
				Duration: out.Duration,
				Value:    v,
			})
			e.Complete()
		})
		return r.req.Cancel, nil
	})
}

// Serialized requires a 2xx status, then decodes the body with s and emits
// the value. Errors are returned as they are and s is not called when the
// request already failed.
func Serialized[T any](r DataRequest, s serializer.DataSerializer[T]) *stream.Stream[T] {
	return stream.Create(func(ctx context.Context, e stream.Emitter[T]) (func(), error) {
		r.req.ValidateStatusRange(200, 299)
		r.req.Response(func(out httpclient.DataResponse) {
			if out.Err != nil {
				e.Error(out.Err)
				return
			}
			if out.Response == nil {
				e.Error(ErrUnknown)
				return
			}
			v, err := s.Serialize(out)
			r.c.recordDecode(ctx, s.Format(), err)
			if err != nil {
				e.Error(err)
				return
			}
			e.Next(v)
			e.Complete()
		})
		return r.req.Cancel, nil
	})
}

// annotate attaches the response status to a decode failure.
func annotate(out httpclient.DataResponse, err error) error {
	if !serializer.IsParseFailure(err) {
		return err
	}
	status := 0
	if out.Response != nil {
		status = out.Response.StatusCode
	}
	if status == 200 {
		return unparsedBodyError(out.Data, err)
	}
	return &ResponseError{
		StatusCode: status,
		Message:    StatusMessage(status, err.Error()),
		Err:        err,
	}
}

func (c *Client) recordDecode(ctx context.Context, format string, err error) {
	if c.metrics != nil {
		c.metrics.RecordDecode(ctx, format, err)
	}
}
