package rx

import (
	"io"
	"sync"

	"golang.org/x/text/encoding"

	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/stream"
)

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the package-level client, creating it on a session with
// the zero httpclient.Config on first use. It panics if that session cannot
// be created.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		s, err := httpclient.New(httpclient.Config{})
		if err != nil {
			panic(err)
		}
		defaultClient = NewClient(s)
	}
	return defaultClient
}

// SetDefault replaces the package-level client.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
}

// Of wraps req using the default client.
func Of(req *httpclient.DataRequest) DataRequest { return Default().Of(req) }

// OfDownload wraps req using the default client.
func OfDownload(req *httpclient.DownloadRequest) DownloadRequest { return Default().OfDownload(req) }

// Requests wraps s using the default client.
func Requests(s *stream.Stream[*httpclient.DataRequest]) RequestStream { return Default().Requests(s) }

// Downloads wraps s using the default client.
func Downloads(s *stream.Stream[*httpclient.DownloadRequest]) DownloadStream {
	return Default().Downloads(s)
}

// Request creates a data request on the default client.
func Request(method, url string, opts ...RequestOption) *stream.Stream[*httpclient.DataRequest] {
	return Default().Request(method, url, opts...)
}

// RequestURL creates a data request from conv on the default client.
func RequestURL(conv httpclient.URLRequestConvertible) *stream.Stream[*httpclient.DataRequest] {
	return Default().RequestURL(conv)
}

// RequestData emits the body of any response with its metadata.
func RequestData(method, url string, opts ...RequestOption) *stream.Stream[DecodedResult[[]byte]] {
	return Default().ResponseData(method, url, opts...)
}

// Data emits the raw body of a 2xx response.
func Data(method, url string, opts ...RequestOption) *stream.Stream[[]byte] {
	return Default().Data(method, url, opts...)
}

// RequestString emits the decoded text of any response with its metadata.
func RequestString(enc encoding.Encoding, method, url string, opts ...RequestOption) *stream.Stream[DecodedResult[string]] {
	return Default().ResponseString(enc, method, url, opts...)
}

// String emits the body of a 2xx response decoded as text.
func String(enc encoding.Encoding, method, url string, opts ...RequestOption) *stream.Stream[string] {
	return Default().String(enc, method, url, opts...)
}

// RequestJSON emits the decoded JSON of any response with its metadata.
func RequestJSON(method, url string, opts ...RequestOption) *stream.Stream[DecodedResult[any]] {
	return Default().ResponseJSON(method, url, opts...)
}

// JSON emits the decoded JSON body of a 2xx response.
func JSON(method, url string, opts ...RequestOption) *stream.Stream[any] {
	return Default().JSON(method, url, opts...)
}

// UploadFile uploads the file at path on the default client.
func UploadFile(path string, conv httpclient.URLRequestConvertible) *stream.Stream[*httpclient.UploadRequest] {
	return Default().UploadFile(path, conv)
}

// UploadData uploads data on the default client.
func UploadData(data []byte, conv httpclient.URLRequestConvertible) *stream.Stream[*httpclient.UploadRequest] {
	return Default().UploadData(data, conv)
}

// UploadStream uploads size bytes read from r on the default client.
func UploadStream(r io.Reader, size int64, conv httpclient.URLRequestConvertible) *stream.Stream[*httpclient.UploadRequest] {
	return Default().UploadStream(r, size, conv)
}

// Download downloads conv to dest on the default client.
func Download(conv httpclient.URLRequestConvertible, dest httpclient.Destination) *stream.Stream[*httpclient.DownloadRequest] {
	return Default().Download(conv, dest)
}

// DownloadResuming continues a cancelled download from its resume data.
func DownloadResuming(resumeData []byte, dest httpclient.Destination) *stream.Stream[*httpclient.DownloadRequest] {
	return Default().DownloadResuming(resumeData, dest)
}
