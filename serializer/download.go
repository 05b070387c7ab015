package serializer

import (
	"os"

	"golang.org/x/text/encoding"

	"github.com/kbukum/rxhttp/httpclient"
)

type downloadAdapter[T any] struct {
	data DataSerializer[T]
}

// ForDownload reads the downloaded file and decodes it with s.
func ForDownload[T any](s DataSerializer[T]) DownloadSerializer[T] {
	return downloadAdapter[T]{data: s}
}

func (d downloadAdapter[T]) Format() string { return d.data.Format() }

func (d downloadAdapter[T]) SerializeDownload(out httpclient.DownloadResponse) (T, error) {
	var zero T
	if out.Err != nil {
		return zero, out.Err
	}
	path := out.DestinationPath
	if path == "" {
		path = out.TemporaryPath
	}
	if path == "" {
		return zero, &Error{Reason: ReasonInputFileNil}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, &Error{Reason: ReasonInputFileReadFailed, Err: err}
	}
	return d.data.Serialize(httpclient.DataResponse{
		Request:  out.Request,
		Response: out.Response,
		Data:     data,
		Duration: out.Duration,
	})
}

// DownloadData returns the downloaded file's bytes.
func DownloadData() DownloadSerializer[[]byte] { return ForDownload(Data()) }

// DownloadString decodes the downloaded file as text.
func DownloadString(enc encoding.Encoding) DownloadSerializer[string] {
	return ForDownload(String(enc))
}

// DownloadJSON parses the downloaded file as JSON.
func DownloadJSON(opts JSONOptions) DownloadSerializer[any] { return ForDownload(JSON(opts)) }

// DownloadPropertyList parses the downloaded file as a property list.
func DownloadPropertyList(opts PropertyListOptions) DownloadSerializer[any] {
	return ForDownload(PropertyList(opts))
}
