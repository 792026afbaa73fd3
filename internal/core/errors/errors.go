package errors

const (
	HttpInternalError           = "internal_error"
	HttpInvalidJsonError        = "invalid_json"
	HttpValidationError         = "validation_failed"
	HttpUnauthorizedError       = "unauthorized"
	HttpForbiddenError          = "forbidden"
	HttpDuplicateDetectionError = "duplicate_detection"
	HttpRunInProgressError      = "aggregation_in_progress"
	HttpNotFoundError           = "not_found"
)

// ErrorResponse is the error response body for API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
