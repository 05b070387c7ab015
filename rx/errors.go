package rx

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrUnknown is returned when a request finished without error but also
// without a response.
var ErrUnknown = errors.New("rx: request finished without a response")

// ResponseError annotates a decode failure in a with-metadata stream with
// the HTTP status.
type ResponseError struct {
	// StatusCode is the response status, 0 when there was no response.
	StatusCode int
	Message    string
	// Err is the underlying serializer error.
	Err error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("rx: %s", e.Message)
}

func (e *ResponseError) Unwrap() error { return e.Err }

const (
	nullBody        = "[null]"
	unprintableBody = "[not representable as text]"
)

// unparsedBodyError describes a body that failed to decode on a 200 response.
func unparsedBodyError(data []byte, err error) *ResponseError {
	text := nullBody
	if data != nil {
		if utf8.Valid(data) {
			text = string(data)
		} else {
			text = unprintableBody
		}
	}
	return &ResponseError{
		StatusCode: 200,
		Message:    "response could not be parsed: " + text,
		Err:        err,
	}
}

var statusMessages = map[int]string{
	100: "The server has received the request headers and the client should proceed to send the request body.",
	101: "The server is switching protocols as requested by the client.",
	200: "The request succeeded.",
	300: "The request has more than one possible response.",
	301: "The resource has moved permanently to a new URL.",
	302: "The resource is temporarily served from a different URL; keep using the original URL for future requests.",
	303: "The response can be found at another URL using a separate GET request.",
	304: "The resource has not been modified since the last request.",
	305: "The resource must be accessed through a proxy.",
	307: "The resource is temporarily served from a different URL; keep using the original URL for future requests.",
	400: "The server could not understand the request syntax.",
	401: "The request requires authentication.",
	403: "The server refused the request.",
	404: "The server could not find the requested resource.",
	405: "The request method is not allowed for this resource.",
	406: "The resource cannot produce content matching the request's Accept headers.",
	407: "The request requires authentication with the proxy.",
	408: "The server timed out waiting for the request.",
	409: "The request conflicts with the current state of the resource.",
	410: "The resource has been permanently removed.",
	411: "The server requires a Content-Length header.",
	412: "A precondition in the request headers was not met.",
	413: "The request entity is larger than the server is willing to process.",
	414: "The request URI is longer than the server is willing to process.",
	415: "The request body format is not supported by the resource.",
	416: "The requested range cannot be satisfied.",
	417: "The server cannot meet the requirements of the Expect header.",
	500: "The server encountered an error and could not complete the request.",
	501: "The server does not support the functionality required by the request.",
	502: "The server, acting as a gateway, received an invalid response from upstream.",
	503: "The server is temporarily unavailable, usually due to overload or maintenance.",
	504: "The server, acting as a gateway, did not receive a timely response from upstream.",
	505: "The server does not support the HTTP version used in the request.",
}

// StatusMessage returns a description of status, or fallback for codes
// without one.
func StatusMessage(status int, fallback string) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return fallback
}
