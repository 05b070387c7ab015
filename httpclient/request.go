package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Parameters are request parameters encoded by a ParameterEncoding.
// Values may be scalars, nested maps or slices.
type Parameters map[string]any

// URLRequestConvertible is anything that can produce a URLRequest.
type URLRequestConvertible interface {
	AsURLRequest() (*URLRequest, error)
}

// URLRequest is a fully encoded request descriptor, ready to be sent.
type URLRequest struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// AsURLRequest returns a copy of the request.
func (r *URLRequest) AsURLRequest() (*URLRequest, error) {
	return r.Clone(), nil
}

// Clone returns a deep copy of the request.
func (r *URLRequest) Clone() *URLRequest {
	c := &URLRequest{
		Method: r.Method,
		Header: r.Header.Clone(),
	}
	if c.Header == nil {
		c.Header = http.Header{}
	}
	if r.URL != nil {
		u := *r.URL
		c.URL = &u
	}
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return c
}

// HTTPRequest builds a *http.Request bound to ctx. Callers that stream an
// upload pass their own body; otherwise the encoded Body is used.
func (r *URLRequest) HTTPRequest(ctx context.Context, body io.Reader) (*http.Request, error) {
	if body == nil && len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL.String(), body)
	if err != nil {
		return nil, NewInvalidURLError(r.URL.String(), err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// RequestSpec describes a request by its parts. It is immutable once built
// and encodes itself on every AsURLRequest call.
type RequestSpec struct {
	Method     string
	URL        string
	Parameters Parameters
	Encoding   ParameterEncoding
	Headers    map[string]string
}

// AsURLRequest parses the URL, applies headers and encodes the parameters.
func (s RequestSpec) AsURLRequest() (*URLRequest, error) {
	method := strings.ToUpper(s.Method)
	if method == "" {
		method = http.MethodGet
	}
	if s.URL == "" {
		return nil, NewInvalidURLError(s.URL, nil)
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, NewInvalidURLError(s.URL, err)
	}
	switch {
	case u.Scheme == "" && !strings.HasPrefix(s.URL, "/"):
		return nil, NewInvalidURLError(s.URL, nil)
	case (u.Scheme == "http" || u.Scheme == "https") && u.Host == "":
		return nil, NewInvalidURLError(s.URL, nil)
	}

	req := &URLRequest{Method: method, URL: u, Header: http.Header{}}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	enc := s.Encoding
	if enc == nil {
		enc = URLEncoding{}
	}
	encoded, err := enc.Encode(req, s.Parameters)
	if err != nil {
		return nil, NewParameterEncodingError(err)
	}
	return encoded, nil
}

// NewURLRequest builds an encoded request descriptor from its parts.
func NewURLRequest(method, rawURL string, params Parameters, enc ParameterEncoding, headers map[string]string) (*URLRequest, error) {
	return RequestSpec{
		Method:     method,
		URL:        rawURL,
		Parameters: params,
		Encoding:   enc,
		Headers:    headers,
	}.AsURLRequest()
}
