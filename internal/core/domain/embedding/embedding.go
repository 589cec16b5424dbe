// Package embedding defines the EmbeddingProvider contract: a
// vector-producing capability the core consumes without depending on a
// concrete model runtime.
package embedding

import (
	"context"
	"errors"
)

// ErrExhausted is the sentinel EmbeddingError wraps: both the remote and
// local providers failed. This is soft-handled on the write path
// (the caller substitutes a zero vector and logs) and degrades search to
// keyword-only.
var ErrExhausted = errors.New("embedding providers exhausted")

// DefaultDimension is the compile-time fallback width used when no other
// resolution step in Provider.Dimension's priority chain succeeds.
const DefaultDimension = 1536

// Provider produces fixed-width vectors for text, batched or single.
// Output vectors are dimension-aligned to Dimension() by truncation or
// zero-padding before being returned, so every caller can assume a
// uniform width regardless of which underlying provider answered.
type Provider interface {
	// Dimension resolves D via: (1) explicit config; (2) probing the
	// local model; (3) inference from the remote model name; (4) probing
	// with a short dummy input; (5) DefaultDimension.
	Dimension(ctx context.Context) (int, error)

	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
