package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingCredentials   ErrorCode = 102
	ErrCodeValidationFailed     ErrorCode = 103
	ErrCodeInvalidOrderRequest  ErrorCode = 104

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound ErrorCode = 200
	ErrCodeQueryFailed  ErrorCode = 201

	// Session errors (300-399)
	ErrCodeAuthRejected       ErrorCode = 300
	ErrCodeSessionUnavailable ErrorCode = 301

	// Broker errors (400-499)
	ErrCodeTransportFailed ErrorCode = 400
	ErrCodeBrokerRejected  ErrorCode = 401
)
