package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.CatalogItem, error)
	Create(ctx context.Context, item *model.CatalogItem) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CatalogItem, error) {
	var item model.CatalogItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *catalogRepository) Create(ctx context.Context, item *model.CatalogItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}
