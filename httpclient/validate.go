package httpclient

import (
	"fmt"
	"strings"
)

// Validation inspects a finished response and returns an error to fail the
// request. data is nil for downloads.
type Validation func(req *URLRequest, resp *Response, data []byte) error

// StatusRange accepts status codes in [min, max].
func StatusRange(min, max int) Validation {
	return func(_ *URLRequest, resp *Response, data []byte) error {
		if resp == nil || (resp.StatusCode >= min && resp.StatusCode <= max) {
			return nil
		}
		return unacceptableStatus(resp.StatusCode, data)
	}
}

// StatusCodes accepts only the listed status codes.
func StatusCodes(codes ...int) Validation {
	return func(_ *URLRequest, resp *Response, data []byte) error {
		if resp == nil {
			return nil
		}
		for _, c := range codes {
			if resp.StatusCode == c {
				return nil
			}
		}
		return unacceptableStatus(resp.StatusCode, data)
	}
}

// ContentTypes accepts responses whose MIME type matches one of the given
// types. Wildcards such as "text/*" and "*/*" are supported. Responses with
// an empty body always pass.
func ContentTypes(types ...string) Validation {
	return func(_ *URLRequest, resp *Response, data []byte) error {
		if resp == nil || (data != nil && len(data) == 0) {
			return nil
		}
		got := resp.MIMEType()
		for _, t := range types {
			if mimeMatches(t, got) {
				return nil
			}
		}
		return NewUnacceptableContentTypeError(got, types)
	}
}

// Success accepts 2xx status codes and, when the request carries an Accept
// header, a matching response content type.
func Success() Validation {
	status := StatusRange(200, 299)
	return func(req *URLRequest, resp *Response, data []byte) error {
		if err := status(req, resp, data); err != nil {
			return err
		}
		accept := acceptableTypes(req)
		if len(accept) == 0 {
			return nil
		}
		return ContentTypes(accept...)(req, resp, data)
	}
}

func unacceptableStatus(code int, body []byte) error {
	if err := ClassifyStatusCode(code, body); err != nil {
		return err
	}
	return &Error{
		StatusCode: code,
		Code:       ErrCodeValidation,
		Message:    fmt.Sprintf("unacceptable status code %d", code),
		Body:       body,
	}
}

func acceptableTypes(req *URLRequest) []string {
	if req == nil {
		return nil
	}
	accept := req.Header.Get("Accept")
	if accept == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(accept, ",") {
		mt := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if mt != "" {
			out = append(out, strings.ToLower(mt))
		}
	}
	return out
}

func mimeMatches(pattern, got string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "*/*" || pattern == "*" {
		return true
	}
	if got == "" {
		return false
	}
	pType, pSub, _ := strings.Cut(pattern, "/")
	gType, gSub, _ := strings.Cut(got, "/")
	return (pType == "*" || pType == gType) && (pSub == "*" || pSub == gSub)
}
