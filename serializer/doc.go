// Package serializer turns the terminal outcome of a live request into a
// typed value. Each serializer handles one body format:
//
//   - Data returns the raw bytes
//   - String decodes text with an explicit encoding or the response charset
//   - JSON and Decode parse JSON into any or a typed value
//   - PropertyList parses XML, binary and OpenStep property lists
//
// Download variants read the file a download wrote and then apply the same
// decoding. Every decode failure is a *Error; IsParseFailure reports whether
// an error came from decoding rather than from the transfer itself.
package serializer
