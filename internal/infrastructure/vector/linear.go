// Package vector implements vector.Index as a client-side linear scan
// over a persisted vector_records table. Follows a
// repository pattern (a GORM handle plus a context-scoped query), since
// no ANN extension is available in-process to either Store backend;
// the fallback is selected once at startup and logged, per the domain
// contract's contract comment.
package vector

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"sort"

	"gorm.io/gorm"

	"brokle/internal/core/domain/vector"
	"brokle/internal/infrastructure/shared"
)

type vectorRow struct {
	VersionID string `gorm:"primaryKey;column:version_id"`
	Dimension int    `gorm:"column:dimension"`
	Vector    string `gorm:"column:vector"`
}

func (vectorRow) TableName() string { return "vector_records" }

// LinearIndex is the only VectorIndex realization in this repo.
type LinearIndex struct {
	db        *gorm.DB
	logger    *slog.Logger
	dimension int
}

// NewLinearIndex builds a linear-scan Index over db. EnsureIndex must be
// called once before Upsert/Search are meaningful.
func NewLinearIndex(db *gorm.DB, logger *slog.Logger) *LinearIndex {
	return &LinearIndex{db: db, logger: logger}
}

func (idx *LinearIndex) EnsureIndex(ctx context.Context, d int) error {
	if idx.dimension != 0 && idx.dimension != d {
		idx.logger.Warn("vector index: dimension changed, existing vectors are stale until re-upserted", "old", idx.dimension, "new", d)
		if err := idx.db.WithContext(ctx).Exec("DELETE FROM vector_records").Error; err != nil {
			return errors.Join(vector.ErrIndex, err)
		}
	}
	idx.dimension = d
	idx.logger.Info("vector index: using linear-scan fallback (no in-process ANN extension available)", "dimension", d)
	return nil
}

func (idx *LinearIndex) Dimension() int { return idx.dimension }

func (idx *LinearIndex) Upsert(ctx context.Context, versionID string, v []float32) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return errors.Join(vector.ErrIndex, err)
	}
	row := vectorRow{VersionID: versionID, Dimension: len(v), Vector: string(encoded)}
	err = shared.GetDB(ctx, idx.db).WithContext(ctx).Save(&row).Error
	if err != nil {
		return errors.Join(vector.ErrIndex, err)
	}
	return nil
}

func (idx *LinearIndex) Delete(ctx context.Context, versionID string) error {
	if err := shared.GetDB(ctx, idx.db).WithContext(ctx).Where("version_id = ?", versionID).Delete(&vectorRow{}).Error; err != nil {
		return errors.Join(vector.ErrIndex, err)
	}
	return nil
}

func (idx *LinearIndex) Search(ctx context.Context, query []float32, k int) ([]vector.Match, error) {
	if len(query) != idx.dimension || idx.dimension == 0 {
		idx.logger.Warn("vector index: query dimension mismatch, degrading to empty result", "expected", idx.dimension, "got", len(query))
		return nil, nil
	}

	var rows []vectorRow
	if err := idx.db.WithContext(ctx).Find(&rows).Error; err != nil {
		idx.logger.Error("vector index: scan failed, degrading to empty result", "error", err)
		return nil, nil
	}

	matches := make([]vector.Match, 0, len(rows))
	for _, r := range rows {
		var v []float32
		if err := json.Unmarshal([]byte(r.Vector), &v); err != nil {
			continue
		}
		if len(v) != idx.dimension {
			continue
		}
		dist := euclideanDistance(query, v)
		matches = append(matches, vector.Match{
			VersionID:  r.VersionID,
			Distance:   dist,
			Similarity: 1 / (1 + dist),
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func euclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
