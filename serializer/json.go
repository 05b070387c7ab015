package serializer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kbukum/rxhttp/httpclient"
)

// JSONOptions controls JSON decoding.
type JSONOptions struct {
	// RejectFragments fails on top-level values that are not objects or arrays.
	RejectFragments bool
	// UseNumber decodes numbers as json.Number instead of float64.
	UseNumber bool
	// DisallowUnknownFields fails when a typed target lacks a field in the body.
	DisallowUnknownFields bool
}

// JSON parses the body into map[string]any, []any or a scalar. A 204 or 205
// response yields nil.
func JSON(opts JSONOptions) DataSerializer[any] {
	return Decode[any](opts)
}

// Decode parses the body into a value of type T.
func Decode[T any](opts JSONOptions) DataSerializer[T] {
	return New("json", func(resp *httpclient.Response, data []byte) (T, error) {
		var v T
		if allowsEmpty(resp) {
			return v, nil
		}
		if len(data) == 0 {
			return v, &Error{Reason: ReasonEmptyData}
		}
		if err := decodeJSON(data, &v, opts); err != nil {
			return v, &Error{Reason: ReasonJSONSerialization, Err: err}
		}
		return v, nil
	})
}

func decodeJSON(data []byte, v any, opts JSONOptions) error {
	if opts.RejectFragments {
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
			return errors.New("top-level value is not an object or array")
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if opts.UseNumber {
		dec.UseNumber()
	}
	if opts.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}
