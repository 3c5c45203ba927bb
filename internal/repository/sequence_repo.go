package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository issues serialized per-scope numbers. Allocation must
// run inside the caller's transaction so a failed operation never burns a
// visible gap, and concurrent allocations for the same scope must never
// return the same value.
type SequenceRepository interface {
	Next(ctx context.Context, scope string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next increments and returns the counter for scope. On postgres the scope
// is serialized with an advisory transaction lock plus a FOR UPDATE read;
// sqlite (tests) serializes writers on its own and rejects FOR UPDATE.
func (r *sequenceRepository) Next(ctx context.Context, scope string) (int64, error) {
	db := GetDB(ctx, r.db)

	onPostgres := db.Dialector.Name() == "postgres"
	if onPostgres {
		if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", scope).Error; err != nil {
			return 0, err
		}
	}

	query := db
	if onPostgres {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var seq model.Sequence
	err := query.Where("scope = ?", scope).First(&seq).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		seq = model.Sequence{Scope: scope, Value: 1}
		if createErr := db.Create(&seq).Error; createErr != nil {
			return 0, createErr
		}
		return seq.Value, nil
	case err != nil:
		return 0, err
	}

	seq.Value++
	if err := db.Model(&model.Sequence{}).Where("scope = ?", scope).
		Update("value", seq.Value).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}
