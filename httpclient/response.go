package httpclient

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Response is the metadata of a received HTTP response.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers, first value per key.
	Headers map[string]string
	// Header is the full response header.
	Header http.Header
	// URL is the final URL after redirects.
	URL *url.URL
	// ContentLength is the reported body length, -1 when unknown.
	ContentLength int64
}

func newResponse(resp *http.Response) *Response {
	r := &Response{
		StatusCode:    resp.StatusCode,
		Headers:       flattenHeaders(resp.Header),
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
	}
	if resp.Request != nil {
		r.URL = resp.Request.URL
	}
	return r
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// MIMEType returns the media type of the Content-Type header, lowercased,
// or "" when absent or malformed.
func (r *Response) MIMEType() string {
	mt, _ := r.contentType()
	return mt
}

// Charset returns the charset parameter of the Content-Type header, or "".
func (r *Response) Charset() string {
	_, params := r.contentType()
	return params["charset"]
}

func (r *Response) contentType() (string, map[string]string) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return "", nil
	}
	mt, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", nil
	}
	return strings.ToLower(mt), params
}

// DataResponse is the terminal outcome of a data or upload request.
type DataResponse struct {
	// Request is the request that was sent, nil if it could not be built.
	Request *URLRequest
	// Response is nil when no response was received.
	Response *Response
	// Data is the response body.
	Data []byte
	// Duration is the time from start to the end of the body.
	Duration time.Duration
	// Err is the transport or validation error, if any.
	Err error
}

// DownloadResponse is the terminal outcome of a download request.
type DownloadResponse struct {
	Request  *URLRequest
	Response *Response
	// TemporaryPath is where the body was written while downloading.
	TemporaryPath string
	// DestinationPath is where the file was moved, empty on failure.
	DestinationPath string
	// ResumeData resumes the download after a failure or cancellation.
	ResumeData []byte
	Duration   time.Duration
	Err        error
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
