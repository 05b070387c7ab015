package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Input errors
const (
	// ErrCodeInvalidInput indicates a value failed validation.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Configuration errors
const (
	// ErrCodeConfigLoad indicates a configuration source could not be read.
	ErrCodeConfigLoad ErrorCode = "CONFIG_LOAD"
	// ErrCodeInvalidConfig indicates the loaded configuration is inconsistent.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Runtime errors
const (
	// ErrCodeUnavailable indicates a remote endpoint could not be reached.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	// ErrCodeTimeout indicates an operation ran out of time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUnavailable: true,
	ErrCodeTimeout:     true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

var exitCodes = map[ErrorCode]int{
	ErrCodeInvalidInput:  2,
	ErrCodeMissingField:  2,
	ErrCodeInvalidFormat: 2,
	ErrCodeConfigLoad:    3,
	ErrCodeInvalidConfig: 3,
	ErrCodeUnavailable:   4,
	ErrCodeTimeout:       4,
}

// ExitCode maps an error code to a process exit status. Unknown codes map to 1.
func ExitCode(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return 1
}
