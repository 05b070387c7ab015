package serializer

import (
	"net/http"

	"github.com/kbukum/rxhttp/httpclient"
)

// DataSerializer decodes the outcome of a data or upload request.
type DataSerializer[T any] interface {
	// Format names the body format, e.g. "json". Used as a metric label.
	Format() string
	// Serialize returns the decoded body. A transport or validation error in
	// the outcome is returned unchanged.
	Serialize(out httpclient.DataResponse) (T, error)
}

// DownloadSerializer decodes the file written by a download request.
type DownloadSerializer[T any] interface {
	Format() string
	SerializeDownload(out httpclient.DownloadResponse) (T, error)
}

type dataFunc[T any] struct {
	format string
	fn     func(resp *httpclient.Response, data []byte) (T, error)
}

// New builds a DataSerializer from a decode function. fn is only called
// when the outcome carries no error.
func New[T any](format string, fn func(resp *httpclient.Response, data []byte) (T, error)) DataSerializer[T] {
	return dataFunc[T]{format: format, fn: fn}
}

func (d dataFunc[T]) Format() string { return d.format }

func (d dataFunc[T]) Serialize(out httpclient.DataResponse) (T, error) {
	if out.Err != nil {
		var zero T
		return zero, out.Err
	}
	return d.fn(out.Response, out.Data)
}

// emptyDataStatus holds the status codes for which an empty body is valid.
var emptyDataStatus = map[int]bool{
	http.StatusNoContent:    true,
	http.StatusResetContent: true,
}

// allowsEmpty reports whether data may be treated as an empty value.
func allowsEmpty(resp *httpclient.Response) bool {
	return resp != nil && emptyDataStatus[resp.StatusCode]
}

// Data returns the raw body. An empty body fails unless the status is 204 or 205.
func Data() DataSerializer[[]byte] {
	return New("data", func(resp *httpclient.Response, data []byte) ([]byte, error) {
		if allowsEmpty(resp) {
			return []byte{}, nil
		}
		if len(data) == 0 {
			return nil, &Error{Reason: ReasonEmptyData}
		}
		return data, nil
	})
}
