package serializer

import (
	"errors"
	"fmt"
)

// Reason says why a body could not be serialized.
type Reason int

const (
	// ReasonEmptyData means the body was empty for a status that requires one.
	ReasonEmptyData Reason = iota
	// ReasonInputFileNil means a download finished without a file on disk.
	ReasonInputFileNil
	// ReasonInputFileReadFailed means the downloaded file could not be read.
	ReasonInputFileReadFailed
	// ReasonStringSerialization means the body is not valid in the text encoding.
	ReasonStringSerialization
	// ReasonJSONSerialization means the body is not valid JSON.
	ReasonJSONSerialization
	// ReasonPropertyListSerialization means the body is not a valid property list.
	ReasonPropertyListSerialization
)

func (r Reason) String() string {
	switch r {
	case ReasonEmptyData:
		return "empty_data"
	case ReasonInputFileNil:
		return "input_file_nil"
	case ReasonInputFileReadFailed:
		return "input_file_read_failed"
	case ReasonStringSerialization:
		return "string_serialization"
	case ReasonJSONSerialization:
		return "json_serialization"
	case ReasonPropertyListSerialization:
		return "property_list_serialization"
	default:
		return "unknown"
	}
}

// Error is a serialization failure.
type Error struct {
	Reason Reason
	// Encoding is the text encoding name for string failures.
	Encoding string
	Err      error
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonEmptyData:
		return "serializer: response data is nil or zero length"
	case ReasonInputFileNil:
		return "serializer: download produced no file"
	case ReasonInputFileReadFailed:
		return fmt.Sprintf("serializer: reading downloaded file: %v", e.Err)
	case ReasonStringSerialization:
		return fmt.Sprintf("serializer: string could not be decoded with encoding %s", e.Encoding)
	case ReasonJSONSerialization:
		return fmt.Sprintf("serializer: JSON could not be parsed: %v", e.Err)
	case ReasonPropertyListSerialization:
		return fmt.Sprintf("serializer: property list could not be parsed: %v", e.Err)
	default:
		return "serializer: serialization failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsParseFailure reports whether err is a serialization failure, as opposed
// to a transport or validation error carried through from the request.
func IsParseFailure(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// ReasonOf returns the reason of a serialization failure.
func ReasonOf(err error) (Reason, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason, true
	}
	return 0, false
}
