package rx

import (
	"context"

	"golang.org/x/text/encoding"

	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/serializer"
	"github.com/kbukum/rxhttp/stream"
)

// RequestStream applies request operators to every data request emitted by
// a stream. Decoding operators run one request at a time, in emission order.
type RequestStream struct {
	s *stream.Stream[*httpclient.DataRequest]
	c *Client
}

// Stream returns the underlying request stream.
func (rs RequestStream) Stream() *stream.Stream[*httpclient.DataRequest] {
	return rs.s
}

// Validate adds v to every emitted request.
func (rs RequestStream) Validate(v httpclient.Validation) RequestStream {
	return rs.with(func(r *httpclient.DataRequest) *httpclient.DataRequest { return r.Validate(v) })
}

// ValidateStatus accepts only the listed status codes.
func (rs RequestStream) ValidateStatus(codes ...int) RequestStream {
	return rs.with(func(r *httpclient.DataRequest) *httpclient.DataRequest { return r.ValidateStatus(codes...) })
}

// ValidateContentType accepts only the listed MIME types.
func (rs RequestStream) ValidateContentType(types ...string) RequestStream {
	return rs.with(func(r *httpclient.DataRequest) *httpclient.DataRequest { return r.ValidateContentType(types...) })
}

// ValidateSuccess accepts 2xx responses whose content type matches the
// request's Accept header.
func (rs RequestStream) ValidateSuccess() RequestStream {
	return rs.with(func(r *httpclient.DataRequest) *httpclient.DataRequest { return r.ValidateSuccess() })
}

func (rs RequestStream) with(fn func(*httpclient.DataRequest) *httpclient.DataRequest) RequestStream {
	return RequestStream{
		s: stream.Map(rs.s, func(_ context.Context, r *httpclient.DataRequest) (*httpclient.DataRequest, error) {
			return fn(r), nil
		}),
		c: rs.c,
	}
}

// Progress streams the progress of every emitted request. A request whose
// size is unknown never completes its progress, so the stream runs until
// closed.
func (rs RequestStream) Progress() *stream.Stream[Progress] {
	return progressOf(rs.s)
}

// ResponseData emits, for every request, the raw body of any response with its metadata.
func (rs RequestStream) ResponseData() *stream.Stream[DecodedResult[[]byte]] {
	return StreamResponseSerialized(rs, serializer.Data())
}

// Data emits, for every request, the raw body of a 2xx response.
func (rs RequestStream) Data() *stream.Stream[[]byte] {
	return StreamSerialized(rs, serializer.Data())
}

// ResponseString emits the body decoded as text with its metadata. A nil
// enc uses the response charset.
func (rs RequestStream) ResponseString(enc encoding.Encoding) *stream.Stream[DecodedResult[string]] {
	return StreamResponseSerialized(rs, serializer.String(enc))
}

// String emits the body of a 2xx response decoded as text.
func (rs RequestStream) String(enc encoding.Encoding) *stream.Stream[string] {
	return StreamSerialized(rs, serializer.String(enc))
}

// ResponseJSON emits the decoded JSON body of any response with its metadata.
func (rs RequestStream) ResponseJSON(opts serializer.JSONOptions) *stream.Stream[DecodedResult[any]] {
	return StreamResponseSerialized(rs, serializer.JSON(opts))
}

// JSON emits the decoded JSON body of a 2xx response.
func (rs RequestStream) JSON(opts serializer.JSONOptions) *stream.Stream[any] {
	return StreamSerialized(rs, serializer.JSON(opts))
}

// ResponsePropertyList emits the decoded property list with its metadata.
func (rs RequestStream) ResponsePropertyList(opts serializer.PropertyListOptions) *stream.Stream[DecodedResult[any]] {
	return StreamResponseSerialized(rs, serializer.PropertyList(opts))
}

// PropertyList emits the decoded property list of a 2xx response.
func (rs RequestStream) PropertyList(opts serializer.PropertyListOptions) *stream.Stream[any] {
	return StreamSerialized(rs, serializer.PropertyList(opts))
}

// StreamResponseSerialized is ResponseSerialized applied to every request
// of rs.
func StreamResponseSerialized[T any](rs RequestStream, s serializer.DataSerializer[T]) *stream.Stream[DecodedResult[T]] {
	return stream.Then(rs.s, func(r *httpclient.DataRequest) *stream.Stream[DecodedResult[T]] {
		return ResponseSerialized(rs.c.Of(r), s)
	})
}

// StreamSerialized is Serialized applied to every request of rs.
func StreamSerialized[T any](rs RequestStream, s serializer.DataSerializer[T]) *stream.Stream[T] {
	return stream.Then(rs.s, func(r *httpclient.DataRequest) *stream.Stream[T] {
		return Serialized(rs.c.Of(r), s)
	})
}

// StreamDecodeJSON decodes the 2xx JSON body of every request of rs into T.
func StreamDecodeJSON[T any](rs RequestStream, opts serializer.JSONOptions) *stream.Stream[T] {
	return StreamSerialized(rs, serializer.Decode[T](opts))
}
