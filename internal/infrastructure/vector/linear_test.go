package vector

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestIndex(t *testing.T) *LinearIndex {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS vector_records (
		version_id TEXT PRIMARY KEY,
		dimension INTEGER NOT NULL,
		vector TEXT NOT NULL
	)`).Error)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLinearIndex(db, logger)
}

func TestLinearIndex_EnsureIndexThenSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.EnsureIndex(ctx, 3))
	assert.Equal(t, 3, idx.Dimension())

	require.NoError(t, idx.Upsert(ctx, "v1", []float32{1, 0, 0}))
	require.NoError(t, idx.Upsert(ctx, "v2", []float32{0, 1, 0}))
	require.NoError(t, idx.Upsert(ctx, "v3", []float32{0.9, 0.1, 0}))

	matches, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "v1", matches[0].VersionID, "exact match sorts first by ascending distance")
	assert.Equal(t, "v3", matches[1].VersionID)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
}

func TestLinearIndex_Delete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.EnsureIndex(ctx, 2))
	require.NoError(t, idx.Upsert(ctx, "v1", []float32{1, 1}))

	require.NoError(t, idx.Delete(ctx, "v1"))

	matches, err := idx.Search(ctx, []float32{1, 1}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLinearIndex_DimensionMismatchDegradesToEmpty(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.EnsureIndex(ctx, 3))
	require.NoError(t, idx.Upsert(ctx, "v1", []float32{1, 0, 0}))

	matches, err := idx.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err, "dimension mismatch degrades to empty, not an error")
	assert.Empty(t, matches)
}

func TestLinearIndex_EnsureIndexDimensionChangeIsDestructive(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.EnsureIndex(ctx, 2))
	require.NoError(t, idx.Upsert(ctx, "v1", []float32{1, 1}))

	require.NoError(t, idx.EnsureIndex(ctx, 3))
	assert.Equal(t, 3, idx.Dimension())

	matches, err := idx.Search(ctx, []float32{1, 1, 1}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches, "recreating the index at a new dimension discards stale vectors")
}
