package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestFilter narrows a request listing. SupervisorID/EngineerID are set
// by the engine's role scoping and override any caller-supplied value.
type RequestFilter struct {
	Status       string
	ProjectID    *uuid.UUID
	SupervisorID *uuid.UUID
	EngineerID   *uuid.UUID
	Limit        int
	Offset       int
}

type RequestRepository interface {
	Create(ctx context.Context, request *model.MaterialRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.MaterialRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.MaterialRequest, error)
	Save(ctx context.Context, request *model.MaterialRequest) error
	List(ctx context.Context, filter RequestFilter) ([]model.MaterialRequest, int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *model.MaterialRequest) error {
	return GetDB(ctx, r.db).Create(request).Error
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MaterialRequest, error) {
	var request model.MaterialRequest
	err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_index ASC") }).
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetByIDForUpdate loads the request and locks its row for the duration of
// the surrounding transaction, so concurrent order mutations against the
// same request serialize before reading the set of active orders. sqlite
// (tests) has a single writer and rejects FOR UPDATE, as in the sequence
// repository.
func (r *requestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.MaterialRequest, error) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		var locked model.MaterialRequest
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, "id = ?", id).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *requestRepository) Save(ctx context.Context, request *model.MaterialRequest) error {
	return GetDB(ctx, r.db).Omit("Items").Save(request).Error
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.MaterialRequest, int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.MaterialRequest{})
	query = applyRequestFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []model.MaterialRequest
	fetch := applyRequestFilter(db.Model(&model.MaterialRequest{}), filter).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_index ASC") }).
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit)
	if err := fetch.Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func applyRequestFilter(query *gorm.DB, filter RequestFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.SupervisorID != nil {
		query = query.Where("supervisor_id = ?", *filter.SupervisorID)
	}
	if filter.EngineerID != nil {
		query = query.Where("engineer_id = ?", *filter.EngineerID)
	}
	return query
}
