package serializer

import (
	"fmt"
	"slices"

	"howett.net/plist"

	"github.com/kbukum/rxhttp/httpclient"
)

// Property list formats accepted by PropertyListOptions.Formats.
const (
	FormatXML      = plist.XMLFormat
	FormatBinary   = plist.BinaryFormat
	FormatOpenStep = plist.OpenStepFormat
	FormatGNUStep  = plist.GNUStepFormat
)

// PropertyListOptions controls property list decoding.
type PropertyListOptions struct {
	// Formats limits the accepted encodings. Empty accepts all of them.
	Formats []int
}

// PropertyList parses an XML, binary or OpenStep property list into
// map[string]any, []any or a scalar. A 204 or 205 response yields nil.
func PropertyList(opts PropertyListOptions) DataSerializer[any] {
	return New("plist", func(resp *httpclient.Response, data []byte) (any, error) {
		if allowsEmpty(resp) {
			return nil, nil
		}
		if len(data) == 0 {
			return nil, &Error{Reason: ReasonEmptyData}
		}
		var v any
		format, err := plist.Unmarshal(data, &v)
		if err != nil {
			return nil, &Error{Reason: ReasonPropertyListSerialization, Err: err}
		}
		if len(opts.Formats) > 0 && !slices.Contains(opts.Formats, format) {
			return nil, &Error{
				Reason: ReasonPropertyListSerialization,
				Err:    fmt.Errorf("format %s not accepted", plist.FormatNames[format]),
			}
		}
		return v, nil
	})
}
