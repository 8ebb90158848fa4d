package errors

// Error codes for standardized error responses
const (
	// Resource errors
	ErrCodeNotFound = "not_found"

	// Quiz errors
	ErrCodePoolUnavailable = "pool_unavailable"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
