// Package errors provides the structured error type used for configuration
// and command-line failures. Transfer errors have their own types in
// httpclient, serializer and rx; AppError covers everything around them.
package errors
