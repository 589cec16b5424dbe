package errors

import (
	"errors"
	"fmt"
)

// AppErrorType classifies an error into one of the kinds named by the
// Prompt Version Store error taxonomy. Component-level code should prefer
// the sentinel errors in the domain packages and classify them with
// errors.Is; AppError exists to carry that classification across the
// external-transport boundary as a protocol status code.
type AppErrorType string

const (
	ValidationError    AppErrorType = "VALIDATION_ERROR"
	NotFoundError      AppErrorType = "NOT_FOUND_ERROR"
	OptimisticLockType AppErrorType = "OPTIMISTIC_LOCK_ERROR"
	QueueFullType      AppErrorType = "QUEUE_FULL_ERROR"
	RenderErrorType    AppErrorType = "RENDER_ERROR"
	StoreConflictType  AppErrorType = "STORE_CONFLICT_ERROR"
	StoreTransientType AppErrorType = "STORE_TRANSIENT_ERROR"
	VectorIndexType    AppErrorType = "VECTOR_INDEX_ERROR"
	EmbeddingType      AppErrorType = "EMBEDDING_ERROR"
	CancelledType      AppErrorType = "CANCELLED_ERROR"
	InternalError      AppErrorType = "INTERNAL_ERROR"
)

type AppError struct {
	Err        error        `json:"-"`
	Type       AppErrorType `json:"type"`
	Message    string       `json:"message"`
	Details    string       `json:"details,omitempty"`
	StatusCode int          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError maps each error type to its HTTP status code
// (validation->400, missing entity->404, optimistic-lock->409,
// template validation->422, queue-full->429, internal->500).
func NewAppError(errorType AppErrorType, message, details string, err error) *AppError {
	appErr := &AppError{
		Type:    errorType,
		Message: message,
		Details: details,
		Err:     err,
	}

	switch errorType {
	case ValidationError:
		appErr.StatusCode = StatusValidationError
	case NotFoundError:
		appErr.StatusCode = StatusNotFoundError
	case OptimisticLockType, StoreConflictType:
		appErr.StatusCode = StatusConflictError
	case RenderErrorType:
		appErr.StatusCode = StatusUnprocessableEntity
	case QueueFullType:
		appErr.StatusCode = StatusRateLimitError
	case StoreTransientType:
		appErr.StatusCode = StatusServiceUnavailable
	case VectorIndexType, EmbeddingType:
		appErr.StatusCode = StatusBadGatewayError
	case CancelledType:
		appErr.StatusCode = StatusGoneError
	default:
		appErr.StatusCode = StatusInternalError
	}

	return appErr
}

func NewValidationError(message, details string) *AppError {
	return NewAppError(ValidationError, message, details, nil)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(NotFoundError, resource+" not found", "", nil)
}

func NewOptimisticLockError(message string) *AppError {
	return NewAppError(OptimisticLockType, message, "", nil)
}

func NewQueueFullError(message string) *AppError {
	return NewAppError(QueueFullType, message, "", nil)
}

func NewRenderError(message string, err error) *AppError {
	return NewAppError(RenderErrorType, message, "", err)
}

func NewStoreConflictError(message string, err error) *AppError {
	return NewAppError(StoreConflictType, message, "", err)
}

func NewStoreTransientError(message string, err error) *AppError {
	return NewAppError(StoreTransientType, message, "", err)
}

func NewVectorIndexError(message string, err error) *AppError {
	return NewAppError(VectorIndexType, message, "", err)
}

func NewEmbeddingError(message string, err error) *AppError {
	return NewAppError(EmbeddingType, message, "", err)
}

func NewCancelledError(message string) *AppError {
	return NewAppError(CancelledType, message, "", nil)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(InternalError, message, "", err)
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func GetStatusCode(err error) int {
	if appErr, ok := IsAppError(err); ok {
		return appErr.StatusCode
	}
	return StatusInternalError
}

func GetErrorType(err error) AppErrorType {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type
	}
	return InternalError
}

// IsNotFound returns true if the error is a NotFoundError
func IsNotFound(err error) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type == NotFoundError
	}
	return false
}

func WrapValidationError(err error, message string) *AppError {
	return NewAppError(ValidationError, message, err.Error(), err)
}

func WrapInternalError(err error, message string) *AppError {
	return NewAppError(InternalError, message, "", err)
}
