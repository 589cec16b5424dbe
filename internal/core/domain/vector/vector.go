// Package vector defines the VectorIndex contract: one dense vector per
// prompt version, with k-NN search by distance. Every vector is stored at
// a fixed dimension D established once at startup by
// Index.EnsureIndex; this D is never allowed to vary per request.
package vector

import (
	"context"
	"errors"
)

// ErrIndex is the sentinel VectorIndexError wraps: upsert/search failed
// catastrophically. The search path degrades to empty on this
// error while the upsert path fails the whole write.
var ErrIndex = errors.New("vector index operation failed")

// Match is one result row of Index.Search, sorted by ascending Distance.
type Match struct {
	VersionID  string
	Distance   float64
	Similarity float64
}

// Index is the VectorIndex contract. The only realization in this
// repo is a client-side linear scan over persisted vectors using
// Euclidean distance — no ANN extension is available to either Store
// backend in-process, so the fallback is selected once at
// initialization and logged, exactly as the contract permits.
type Index interface {
	// EnsureIndex idempotently prepares the underlying structure for
	// dimension d. If the structure already exists at a different
	// dimension, it is destructively recreated; this only ever runs at
	// startup, never in response to a user request.
	EnsureIndex(ctx context.Context, d int) error

	Upsert(ctx context.Context, versionID string, v []float32) error
	Delete(ctx context.Context, versionID string) error

	// Search returns up to k matches sorted by ascending distance. A
	// dimension mismatch between query and the index is not an error:
	// Search simply returns an empty slice and the caller falls back to
	// keyword search.
	Search(ctx context.Context, query []float32, k int) ([]Match, error)

	// Dimension reports the dimension EnsureIndex last prepared, or 0 if
	// EnsureIndex has not run yet.
	Dimension() int
}
