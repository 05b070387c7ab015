package serializer

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/kbukum/rxhttp/httpclient"
)

// DefaultEncoding is used when neither the caller nor the response names a charset.
var DefaultEncoding encoding.Encoding = charmap.ISO8859_1

// Encoding looks up a text encoding by its WHATWG label.
func Encoding(label string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("serializer: unknown encoding %q", label)
	}
	return enc, nil
}

// String decodes the body as text. A nil enc uses the response charset,
// falling back to DefaultEncoding.
func String(enc encoding.Encoding) DataSerializer[string] {
	return New("string", func(resp *httpclient.Response, data []byte) (string, error) {
		return decodeString(enc, resp, data)
	})
}

func decodeString(enc encoding.Encoding, resp *httpclient.Response, data []byte) (string, error) {
	if allowsEmpty(resp) {
		return "", nil
	}
	if len(data) == 0 {
		return "", &Error{Reason: ReasonEmptyData}
	}

	var name string
	if enc == nil {
		var label string
		if resp != nil {
			label = resp.Charset()
		}
		if label == "" {
			enc = DefaultEncoding
		} else if enc, name = charset.Lookup(label); enc == nil {
			return "", &Error{Reason: ReasonStringSerialization, Encoding: label}
		}
	}
	if name == "" {
		name = encodingName(enc)
	}
	if name == "utf-8" {
		if !utf8.Valid(data) {
			return "", &Error{Reason: ReasonStringSerialization, Encoding: name}
		}
		return string(data), nil
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", &Error{Reason: ReasonStringSerialization, Encoding: name, Err: err}
	}
	return string(decoded), nil
}

func encodingName(enc encoding.Encoding) string {
	if name, err := htmlindex.Name(enc); err == nil {
		return name
	}
	return fmt.Sprint(enc)
}
