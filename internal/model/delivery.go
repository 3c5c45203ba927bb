package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryRecord is one confirmed receipt event against an order.
type DeliveryRecord struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`

	SupplierReceiptNumber string `gorm:"type:varchar(100);not null" json:"supplier_receipt_number"`
	Notes                 string `gorm:"type:text" json:"notes,omitempty"`

	Items []DeliveryItem `gorm:"foreignKey:DeliveryRecordID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedByID   uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedByName string    `gorm:"type:varchar(255)" json:"created_by_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *DeliveryRecord) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DeliveryItem records the quantity received for one order item within a
// delivery. Cumulative quantities across records are validated against the
// ordered quantity before the record is written.
type DeliveryItem struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeliveryRecordID uuid.UUID `gorm:"type:uuid;not null;index" json:"delivery_record_id"`
	OrderItemID      uuid.UUID `gorm:"type:uuid;not null;index" json:"order_item_id"`

	QuantityDelivered int `gorm:"not null" json:"quantity_delivered"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (i *DeliveryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
