package rx

import (
	"io"

	"golang.org/x/text/encoding"

	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/logger"
	"github.com/kbukum/rxhttp/observability"
	"github.com/kbukum/rxhttp/serializer"
	"github.com/kbukum/rxhttp/stream"
)

// Client creates request streams on a session.
type Client struct {
	session *httpclient.Session
	log     *logger.Logger
	metrics *observability.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for subscription failures.
func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) { c.log = l.WithComponent("rx") }
}

// WithMetrics records decode attempts.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Client on s.
func NewClient(s *httpclient.Session, opts ...ClientOption) *Client {
	c := &Client{session: s, log: logger.Get("rx")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the underlying session.
func (c *Client) Session() *httpclient.Session {
	return c.session
}

// RequestOption configures the tuple form of a request.
type RequestOption func(*httpclient.RequestSpec)

// WithParameters sets the request parameters.
func WithParameters(p httpclient.Parameters) RequestOption {
	return func(r *httpclient.RequestSpec) { r.Parameters = p }
}

// WithEncoding sets how parameters are encoded. The default is URL encoding.
func WithEncoding(enc httpclient.ParameterEncoding) RequestOption {
	return func(r *httpclient.RequestSpec) { r.Encoding = enc }
}

// WithHeaders sets additional request headers.
func WithHeaders(h map[string]string) RequestOption {
	return func(r *httpclient.RequestSpec) { r.Headers = h }
}

func newSpec(method, url string, opts []RequestOption) httpclient.RequestSpec {
	spec := httpclient.RequestSpec{Method: method, URL: url}
	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}

// Request streams a data request built from its parts.
func (c *Client) Request(method, url string, opts ...RequestOption) *stream.Stream[*httpclient.DataRequest] {
	return c.RequestURL(newSpec(method, url, opts))
}

// RequestURL streams a data request built from conv.
func (c *Client) RequestURL(conv httpclient.URLRequestConvertible) *stream.Stream[*httpclient.DataRequest] {
	return fromTask(c.session, c.log, func(s *httpclient.Session) (*httpclient.DataRequest, error) {
		return s.Request(conv)
	})
}

// UploadFile streams an upload of the file at path.
func (c *Client) UploadFile(path string, conv httpclient.URLRequestConvertible) *stream.Stream[*httpclient.UploadRequest] {
	return c.upload(httpclient.UploadFile(path), conv)
}

// UploadData streams an upload of data.
func (c *Client) UploadData(data []byte, conv httpclient.URLRequestConvertible) *stream.Stream[*httpclient.UploadRequest] {
	return c.upload(httpclient.UploadData(data), conv)
}

// UploadStream streams an upload read from r. size may be -1 when unknown.
// r is consumed by the first subscription.
func (c *Client) UploadStream(r io.Reader, size int64, conv httpclient.URLRequestConvertible) *stream.Stream[*httpclient.UploadRequest] {
	return c.upload(httpclient.UploadStream(r, size), conv)
}

// UploadMultipart streams an upload of a multipart form.
func (c *Client) UploadMultipart(form *httpclient.MultipartForm, conv httpclient.URLRequestConvertible) *stream.Stream[*httpclient.UploadRequest] {
	return fromTask(c.session, c.log, func(s *httpclient.Session) (*httpclient.UploadRequest, error) {
		return s.UploadMultipart(form, conv)
	})
}

func (c *Client) upload(src httpclient.UploadSource, conv httpclient.URLRequestConvertible) *stream.Stream[*httpclient.UploadRequest] {
	return fromTask(c.session, c.log, func(s *httpclient.Session) (*httpclient.UploadRequest, error) {
		return s.Upload(src, conv)
	})
}

// Download streams a download written to the location chosen by dest. A nil
// dest keeps the temporary file.
func (c *Client) Download(conv httpclient.URLRequestConvertible, dest httpclient.Destination) *stream.Stream[*httpclient.DownloadRequest] {
	return fromTask(c.session, c.log, func(s *httpclient.Session) (*httpclient.DownloadRequest, error) {
		return s.Download(conv, dest)
	})
}

// DownloadResuming streams a download continued from resume data.
func (c *Client) DownloadResuming(resumeData []byte, dest httpclient.Destination) *stream.Stream[*httpclient.DownloadRequest] {
	return fromTask(c.session, c.log, func(s *httpclient.Session) (*httpclient.DownloadRequest, error) {
		return s.DownloadResuming(resumeData, dest)
	})
}

// Of wraps a live data request with decoding streams. Upload requests are
// wrapped through their embedded DataRequest.
func (c *Client) Of(req *httpclient.DataRequest) DataRequest {
	return DataRequest{req: req, c: c}
}

// OfDownload wraps a live download request with decoding streams.
func (c *Client) OfDownload(req *httpclient.DownloadRequest) DownloadRequest {
	return DownloadRequest{req: req, c: c}
}

// Requests wraps a stream of data requests with stream-level operators.
func (c *Client) Requests(s *stream.Stream[*httpclient.DataRequest]) RequestStream {
	return RequestStream{s: s, c: c}
}

// Downloads wraps a stream of download requests.
func (c *Client) Downloads(s *stream.Stream[*httpclient.DownloadRequest]) DownloadStream {
	return DownloadStream{s: s, c: c}
}

// ResponseData requests and emits the body with its metadata.
func (c *Client) ResponseData(method, url string, opts ...RequestOption) *stream.Stream[DecodedResult[[]byte]] {
	return c.Requests(c.Request(method, url, opts...)).ResponseData()
}

// ResponseDataURL is ResponseData for a prepared request.
func (c *Client) ResponseDataURL(conv httpclient.URLRequestConvertible) *stream.Stream[DecodedResult[[]byte]] {
	return c.Requests(c.RequestURL(conv)).ResponseData()
}

// Data requests and emits the body of a 2xx response.
func (c *Client) Data(method, url string, opts ...RequestOption) *stream.Stream[[]byte] {
	return c.Requests(c.Request(method, url, opts...)).Data()
}

// ResponseString requests and emits the decoded text with its metadata. A
// nil enc uses the response charset.
func (c *Client) ResponseString(enc encoding.Encoding, method, url string, opts ...RequestOption) *stream.Stream[DecodedResult[string]] {
	return c.Requests(c.Request(method, url, opts...)).ResponseString(enc)
}

// ResponseStringURL is ResponseString for a prepared request.
func (c *Client) ResponseStringURL(enc encoding.Encoding, conv httpclient.URLRequestConvertible) *stream.Stream[DecodedResult[string]] {
	return c.Requests(c.RequestURL(conv)).ResponseString(enc)
}

// String requests and emits the decoded text of a 2xx response.
func (c *Client) String(enc encoding.Encoding, method, url string, opts ...RequestOption) *stream.Stream[string] {
	return c.Requests(c.Request(method, url, opts...)).String(enc)
}

// ResponseJSON requests and emits the decoded JSON document with its
// metadata.
func (c *Client) ResponseJSON(method, url string, opts ...RequestOption) *stream.Stream[DecodedResult[any]] {
	return c.Requests(c.Request(method, url, opts...)).ResponseJSON(serializer.JSONOptions{})
}

// ResponseJSONURL is ResponseJSON for a prepared request.
func (c *Client) ResponseJSONURL(conv httpclient.URLRequestConvertible) *stream.Stream[DecodedResult[any]] {
	return c.Requests(c.RequestURL(conv)).ResponseJSON(serializer.JSONOptions{})
}

// JSON requests and emits the decoded JSON document of a 2xx response.
func (c *Client) JSON(method, url string, opts ...RequestOption) *stream.Stream[any] {
	return c.Requests(c.Request(method, url, opts...)).JSON(serializer.JSONOptions{})
}

// ResponsePropertyList requests and emits the decoded property list with
// its metadata.
func (c *Client) ResponsePropertyList(method, url string, opts ...RequestOption) *stream.Stream[DecodedResult[any]] {
	return c.Requests(c.Request(method, url, opts...)).ResponsePropertyList(serializer.PropertyListOptions{})
}

// PropertyList requests and emits the decoded property list of a 2xx
// response.
func (c *Client) PropertyList(method, url string, opts ...RequestOption) *stream.Stream[any] {
	return c.Requests(c.Request(method, url, opts...)).PropertyList(serializer.PropertyListOptions{})
}
