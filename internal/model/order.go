package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase order states. `delivered` and `cancelled` are terminal.
// Cancelled orders release their claim on the request's item indices.
const (
	OrderStatusIssued             = "issued"
	OrderStatusApproved           = "approved"
	OrderStatusShipped            = "shipped"
	OrderStatusPartiallyDelivered = "partially_delivered"
	OrderStatusDelivered          = "delivered"
	OrderStatusCancelled          = "cancelled"
)

// IsTerminalOrderStatus reports whether no further transitions are allowed.
func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}

// IsActiveOrderStatus reports whether the order still claims its request
// item indices for the "ordered at most once" invariant.
func IsActiveOrderStatus(status string) bool {
	return status != OrderStatusCancelled
}

// PurchaseOrder is the commitment artifact derived from a request: a
// subset of the request's items procured from one supplier. Item data is
// snapshotted at creation, with unit prices resolved from the selected
// quotation offer when one exists, else from the item's catalog link.
type PurchaseOrder struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_number"`
	OrderSeq    int64     `gorm:"not null" json:"order_seq"` // global monotonic

	RequestID     uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	RequestNumber string    `gorm:"type:varchar(50);not null" json:"request_number"`

	SupplierName          string `gorm:"type:varchar(255);not null" json:"supplier_name"`
	SupplierInvoiceNumber string `gorm:"type:varchar(100)" json:"supplier_invoice_number,omitempty"`

	Status      string           `gorm:"type:varchar(30);not null;index" json:"status"`
	TotalAmount *decimal.Decimal `gorm:"type:decimal(15,4)" json:"total_amount,omitempty"`
	Notes       string           `gorm:"type:text" json:"notes,omitempty"`

	Items []PurchaseOrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedByID   uuid.UUID  `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedByName string     `gorm:"type:varchar(255)" json:"created_by_name"`
	ApprovedByID  *uuid.UUID `gorm:"type:uuid" json:"approved_by_id,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *PurchaseOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// PurchaseOrderItem snapshots one request item onto an order. ItemIndex
// points back into the originating request's item list; DeliveredQuantity
// accumulates confirmed receipts and never exceeds Quantity.
type PurchaseOrderItem struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`

	ItemIndex int              `gorm:"not null" json:"item_index"`
	Name      string           `gorm:"type:varchar(255);not null" json:"name"`
	Quantity  int              `gorm:"not null" json:"quantity"`
	Unit      string           `gorm:"type:varchar(50)" json:"unit"`
	UnitPrice *decimal.Decimal `gorm:"type:decimal(15,4)" json:"unit_price,omitempty"`

	CatalogItemID *uuid.UUID `gorm:"type:uuid" json:"catalog_item_id,omitempty"`
	ItemCode      string     `gorm:"type:varchar(50)" json:"item_code,omitempty"`

	DeliveredQuantity int `gorm:"not null;default:0" json:"delivered_quantity"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *PurchaseOrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
