package prompt

import (
	"errors"
	"fmt"
)

// Sentinel errors for the prompt domain. These are the underlying
// causes components return; pkg/errors.AppError classifies them into the
// external-transport error taxonomy at the cmd/server boundary.
var (
	// NotFound
	ErrPromptNotFound    = errors.New("prompt not found")
	ErrVersionNotFound   = errors.New("prompt version not found")
	ErrPrincipleNotFound = errors.New("principle not found")

	// ValidationError
	ErrInvalidName          = errors.New("name must match ^[A-Za-z0-9_]+$ and be at most 200 characters")
	ErrInvalidVersionType   = errors.New("version_type must be 'major' or 'minor'")
	ErrPrincipleRefNotFound = errors.New("referenced principle version does not exist")
	ErrDeleteLastActive     = errors.New("cannot delete the last active version of a prompt")
	ErrMissingRequiredVar   = errors.New("required template variable missing")
	ErrUnsafeTemplate       = errors.New("template content contains unsafe constructs with no declared variables")
	ErrTemplateTooLarge     = errors.New("template exceeds maximum size limit")

	// OptimisticLock
	ErrOptimisticLock = errors.New("expected_version_number does not match current latest version")

	// QueueFull
	ErrQueueFull = errors.New("update queue is at capacity")

	// StoreError
	ErrStoreTransient = errors.New("store: transient failure")
	ErrStoreConflict  = errors.New("store: uniqueness or foreign-key conflict")
	ErrStoreIntegrity = errors.New("store: integrity violation")

	// VectorIndexError / EmbeddingError
	ErrVectorIndex = errors.New("vector index operation failed")
	ErrEmbedding   = errors.New("embedding providers exhausted")

	// Cancelled
	ErrCancelled = errors.New("operation cancelled")
)

func NewPromptNotFoundError(name string) error {
	return fmt.Errorf("%w: %s", ErrPromptNotFound, name)
}

func NewVersionNotFoundError(name, version string) error {
	return fmt.Errorf("%w: %s version %s", ErrVersionNotFound, name, version)
}

func NewPrincipleNotFoundError(name, version string) error {
	return fmt.Errorf("%w: %s version %s", ErrPrincipleNotFound, name, version)
}

func NewPrincipleRefNotFoundError(name, version string) error {
	return fmt.Errorf("%w: %s@%s", ErrPrincipleRefNotFound, name, version)
}

// OptimisticLockError carries the observed actual version number
// alongside the sentinel, so the UpdateQueue worker can rebase its retry
// against reality instead of the caller's stale expectation.
type OptimisticLockError struct {
	Name     string
	Expected int
	Actual   int
}

func (e *OptimisticLockError) Error() string {
	return fmt.Sprintf("%s: %s expected=%d actual=%d", ErrOptimisticLock, e.Name, e.Expected, e.Actual)
}

func (e *OptimisticLockError) Unwrap() error { return ErrOptimisticLock }

func NewOptimisticLockError(name string, expected, actual int) error {
	return &OptimisticLockError{Name: name, Expected: expected, Actual: actual}
}

func NewMissingRequiredVarError(varName string) error {
	return fmt.Errorf("%w: %s", ErrMissingRequiredVar, varName)
}

// IsNotFound reports whether err is any of the domain's not-found
// sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPromptNotFound) ||
		errors.Is(err, ErrVersionNotFound) ||
		errors.Is(err, ErrPrincipleNotFound)
}

// IsValidation reports whether err is any of the domain's validation
// sentinels.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidVersionType) ||
		errors.Is(err, ErrPrincipleRefNotFound) ||
		errors.Is(err, ErrDeleteLastActive) ||
		errors.Is(err, ErrMissingRequiredVar) ||
		errors.Is(err, ErrUnsafeTemplate)
}

// IsStoreConflict reports whether err is a store-level conflict (unique
// or foreign-key violation), which maps to the same protocol code as
// OptimisticLock.
func IsStoreConflict(err error) bool {
	return errors.Is(err, ErrStoreConflict)
}
