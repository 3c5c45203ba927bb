package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows an order listing.
type OrderFilter struct {
	Status    string
	RequestID *uuid.UUID
	Limit     int
	Offset    int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.PurchaseOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	Save(ctx context.Context, order *model.PurchaseOrder) error
	SaveItem(ctx context.Context, item *model.PurchaseOrderItem) error
	ListActiveByRequest(ctx context.Context, requestID uuid.UUID) ([]model.PurchaseOrder, error)
	List(ctx context.Context, filter OrderFilter) ([]model.PurchaseOrder, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_index ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate loads the order and locks its row for the duration of
// the surrounding transaction, so concurrent receipt confirmations for the
// same order read and update the delivered counters one at a time. sqlite
// (tests) has a single writer and rejects FOR UPDATE.
func (r *orderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		var locked model.PurchaseOrder
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, "id = ?", id).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *orderRepository) Save(ctx context.Context, order *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Omit("Items").Save(order).Error
}

func (r *orderRepository) SaveItem(ctx context.Context, item *model.PurchaseOrderItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

// ListActiveByRequest returns all non-cancelled orders for the request,
// items included. Used for the double-order guard and the request status
// recomputation.
func (r *orderRepository) ListActiveByRequest(ctx context.Context, requestID uuid.UUID) ([]model.PurchaseOrder, error) {
	var orders []model.PurchaseOrder
	err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_index ASC") }).
		Where("request_id = ? AND status <> ?", requestID, model.OrderStatusCancelled).
		Order("order_seq ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.PurchaseOrder, int64, error) {
	db := GetDB(ctx, r.db)

	apply := func(query *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.RequestID != nil {
			query = query.Where("request_id = ?", *filter.RequestID)
		}
		return query
	}

	var total int64
	if err := apply(db.Model(&model.PurchaseOrder{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []model.PurchaseOrder
	err := apply(db.Model(&model.PurchaseOrder{})).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("item_index ASC") }).
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
