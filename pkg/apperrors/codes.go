package apperrors

// ErrorCode identifies a class of failure independent of HTTP status.
type ErrorCode string

const (
	// System-level and unknown failures
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Generic business-logic failures
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeAlreadyExists       ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	CodeConflict            ErrorCode = "CONFLICT"
	CodeLimitExceeded       ErrorCode = "LIMIT_EXCEEDED"
	CodeInvalidStatus       ErrorCode = "INVALID_STATUS"
	CodeInvalidOperation    ErrorCode = "INVALID_OPERATION"
	CodeInsufficientCredits ErrorCode = "INSUFFICIENT_CREDITS"
	CodePaymentRequired     ErrorCode = "PAYMENT_REQUIRED"

	// Authentication and authorization
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)
