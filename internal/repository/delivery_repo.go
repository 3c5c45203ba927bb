package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryRepository interface {
	Create(ctx context.Context, record *model.DeliveryRecord) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.DeliveryRecord, error)
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, record *model.DeliveryRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *deliveryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.DeliveryRecord, error) {
	var records []model.DeliveryRecord
	err := GetDB(ctx, r.db).
		Preload("Items").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
