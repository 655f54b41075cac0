package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Lookup errors (recoverable by the caller of the failing stage)
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeTokenNotFound indicates a token or index is missing from a vocabulary.
	ErrCodeTokenNotFound ErrorCode = "TOKEN_NOT_FOUND"
)

// Pipeline errors
const (
	// ErrCodeStageFailed indicates a stage faulted while processing.
	ErrCodeStageFailed ErrorCode = "STAGE_FAILED"
	// ErrCodeLoaderPoisoned indicates a loader saw a fatal stage failure and
	// cannot be iterated any further.
	ErrCodeLoaderPoisoned ErrorCode = "LOADER_POISONED"
	// ErrCodeLoaderClosed indicates the loader has been closed.
	ErrCodeLoaderClosed ErrorCode = "LOADER_CLOSED"
	// ErrCodeIO indicates a filesystem failure inside a source.
	ErrCodeIO ErrorCode = "IO_ERROR"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeIO:             true,
	ErrCodeStageFailed:    false,
	ErrCodeLoaderPoisoned: false,
	ErrCodeInternal:       false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
