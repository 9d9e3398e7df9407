package errors

const (
	HttpInternalError       = "internal_error"
	HttpInvalidJsonError    = "invalid_json"
	HttpValidationError     = "validation_failed"
	HttpConflictError       = "schedule_conflict"
	HttpNotFoundError       = "not_found"
	HttpDuplicateEventError = "duplicate_event"
)

// ErrorResponse is the error response body for API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
