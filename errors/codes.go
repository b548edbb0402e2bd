package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline errors
const (
	// ErrCodeUnknownTemplate indicates a statement name absent from the catalog.
	ErrCodeUnknownTemplate ErrorCode = "UNKNOWN_TEMPLATE"
	// ErrCodeMissingPlaceholder indicates a template placeholder without a bound value.
	ErrCodeMissingPlaceholder ErrorCode = "MISSING_PLACEHOLDER"
	// ErrCodeExecution indicates the warehouse rejected a statement or the connection failed.
	ErrCodeExecution ErrorCode = "EXECUTION_ERROR"
	// ErrCodeQualityCheckFailed indicates a table failed the data quality gate.
	ErrCodeQualityCheckFailed ErrorCode = "QUALITY_CHECK_FAILED"
	// ErrCodeMalformedGraph indicates a structurally invalid pipeline graph.
	ErrCodeMalformedGraph ErrorCode = "MALFORMED_GRAPH"
	// ErrCodeCyclicGraph indicates a pipeline graph containing a cycle.
	ErrCodeCyclicGraph ErrorCode = "CYCLIC_GRAPH"
)

// Connection/Availability errors (retryable)
const (
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Configuration errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeExecution:        true,
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
	ErrCodeExternalService:  true,
	ErrCodeInternal:         false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
