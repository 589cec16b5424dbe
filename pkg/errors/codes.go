package errors

// HTTP status codes used by the thin transport binding when translating
// an AppError (or a raw, unclassified error) into a response.
const (
	StatusValidationError     = 400
	StatusNotFoundError       = 404
	StatusConflictError       = 409
	StatusUnprocessableEntity = 422
	StatusInternalError       = 500
	StatusServiceUnavailable  = 503
	StatusRateLimitError      = 429
	StatusBadGatewayError     = 502
	StatusGoneError           = 410
)
