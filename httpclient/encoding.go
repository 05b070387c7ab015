package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// ParameterEncoding applies parameters to a request descriptor.
type ParameterEncoding interface {
	Encode(req *URLRequest, params Parameters) (*URLRequest, error)
}

// ParameterDestination selects where URLEncoding places the encoded parameters.
type ParameterDestination int

const (
	// MethodDependent uses the query string for GET, HEAD and DELETE and
	// the body otherwise.
	MethodDependent ParameterDestination = iota
	// QueryString always uses the query string.
	QueryString
	// HTTPBody always uses the body.
	HTTPBody
)

// ArrayEncoding selects how slice keys are written.
type ArrayEncoding int

const (
	// Brackets writes "key[]=v".
	Brackets ArrayEncoding = iota
	// NoBrackets writes "key=v".
	NoBrackets
)

// BoolEncoding selects how booleans are written.
type BoolEncoding int

const (
	// Numeric writes 1 and 0.
	Numeric BoolEncoding = iota
	// Literal writes true and false.
	Literal
)

const formContentType = "application/x-www-form-urlencoded; charset=utf-8"

// URLEncoding writes parameters as a percent-encoded query string. Nested
// maps become "key[sub]" and slices "key[]".
type URLEncoding struct {
	Destination   ParameterDestination
	ArrayEncoding ArrayEncoding
	BoolEncoding  BoolEncoding
}

// Encode implements ParameterEncoding.
func (e URLEncoding) Encode(req *URLRequest, params Parameters) (*URLRequest, error) {
	out := req.Clone()
	if len(params) == 0 {
		return out, nil
	}
	if out.URL == nil {
		return nil, fmt.Errorf("url encoding: request has no URL")
	}

	query, err := e.Query(params)
	if err != nil {
		return nil, err
	}

	if e.inURL(out.Method) {
		if out.URL.RawQuery != "" {
			out.URL.RawQuery += "&" + query
		} else {
			out.URL.RawQuery = query
		}
		return out, nil
	}

	if out.Header.Get("Content-Type") == "" {
		out.Header.Set("Content-Type", formContentType)
	}
	out.Body = []byte(query)
	return out, nil
}

// Query renders params as a query string with keys in sorted order.
func (e URLEncoding) Query(params Parameters) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		components, err := e.components(k, params[k])
		if err != nil {
			return "", err
		}
		parts = append(parts, components...)
	}
	return strings.Join(parts, "&"), nil
}

func (e URLEncoding) inURL(method string) bool {
	switch e.Destination {
	case QueryString:
		return true
	case HTTPBody:
		return false
	}
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	}
	return false
}

func (e URLEncoding) components(key string, value any) ([]string, error) {
	if value == nil {
		return []string{escape(key) + "="}, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("url encoding: %q has non-string map keys", key)
		}
		subKeys := make([]string, 0, rv.Len())
		for _, mk := range rv.MapKeys() {
			subKeys = append(subKeys, mk.String())
		}
		sort.Strings(subKeys)
		var out []string
		for _, sk := range subKeys {
			nested, err := e.components(key+"["+sk+"]", rv.MapIndex(reflect.ValueOf(sk).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return []string{escape(key) + "=" + escape(string(rv.Bytes()))}, nil
		}
		arrayKey := key + "[]"
		if e.ArrayEncoding == NoBrackets {
			arrayKey = key
		}
		var out []string
		for i := 0; i < rv.Len(); i++ {
			nested, err := e.components(arrayKey, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
		return out, nil
	case reflect.Bool:
		v := "0"
		if rv.Bool() {
			v = "1"
		}
		if e.BoolEncoding == Literal {
			v = fmt.Sprint(rv.Bool())
		}
		return []string{escape(key) + "=" + v}, nil
	case reflect.Func, reflect.Chan, reflect.Struct, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		if s, ok := value.(fmt.Stringer); ok {
			return []string{escape(key) + "=" + escape(s.String())}, nil
		}
		return nil, fmt.Errorf("url encoding: unsupported value for %q (%T)", key, value)
	default:
		return []string{escape(key) + "=" + escape(fmt.Sprint(value))}, nil
	}
}

// escape percent-encodes s, writing spaces as %20 rather than '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// JSONEncoding writes parameters as a JSON body.
type JSONEncoding struct {
	// Indent pretty-prints the body with the given indent when not empty.
	Indent string
}

// Encode implements ParameterEncoding.
func (e JSONEncoding) Encode(req *URLRequest, params Parameters) (*URLRequest, error) {
	out := req.Clone()
	if params == nil {
		return out, nil
	}

	var (
		data []byte
		err  error
	)
	if e.Indent != "" {
		data, err = json.MarshalIndent(params, "", e.Indent)
	} else {
		data, err = json.Marshal(params)
	}
	if err != nil {
		return nil, fmt.Errorf("json encoding: %w", err)
	}

	if out.Header.Get("Content-Type") == "" {
		out.Header.Set("Content-Type", "application/json")
	}
	out.Body = data
	return out, nil
}
