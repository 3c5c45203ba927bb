package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Material request lifecycle states. `partially_ordered` and
// `purchase_order_issued` are recomputed from the union of active
// purchase orders whenever an order against the request changes.
const (
	RequestStatusPendingEngineer  = "pending_engineer"
	RequestStatusApproved         = "approved_by_engineer"
	RequestStatusRejected         = "rejected"
	RequestStatusPartiallyOrdered = "partially_ordered"
	RequestStatusOrderIssued      = "purchase_order_issued"
)

// MaterialRequest is a supervisor-initiated ask for materials, routed to
// an engineer for approval. Project/supervisor/engineer names are
// snapshots taken at creation time and are never refreshed — the display
// name a request carried when it was raised is part of its history.
type MaterialRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestNumber string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"request_number"`
	RequestSeq    int64     `gorm:"not null" json:"request_seq"` // strictly increasing per supervisor

	SupervisorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"supervisor_id"`
	SupervisorName string    `gorm:"type:varchar(255);not null" json:"supervisor_name"`
	EngineerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"engineer_id"`
	EngineerName   string    `gorm:"type:varchar(255);not null" json:"engineer_name"`
	ProjectID      uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	ProjectName    string    `gorm:"type:varchar(255);not null" json:"project_name"`

	Reason               string     `gorm:"type:text" json:"reason"`
	Status               string     `gorm:"type:varchar(30);not null;index" json:"status"`
	RejectionReason      string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`

	Items []MaterialRequestItem `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *MaterialRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// MaterialRequestItem is one line of a request. ItemIndex is the zero-based
// position within the parent request and is immutable once set; offers and
// purchase orders reference items exclusively by this index.
type MaterialRequestItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	ItemIndex int       `gorm:"not null" json:"item_index"`

	Name           string           `gorm:"type:varchar(255);not null" json:"name"`
	Quantity       int              `gorm:"not null" json:"quantity"`
	Unit           string           `gorm:"type:varchar(50)" json:"unit"`
	EstimatedPrice *decimal.Decimal `gorm:"type:decimal(15,4)" json:"estimated_price,omitempty"`

	// Set when the item was picked from the price catalog.
	CatalogItemID *uuid.UUID `gorm:"type:uuid" json:"catalog_item_id,omitempty"`
	ItemCode      string     `gorm:"type:varchar(50)" json:"item_code,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (i *MaterialRequestItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
