package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions. One entry is written per mutating operation, inside the
// same transaction as the mutation it describes.
const (
	ActionCreateRequest  = "CREATE_REQUEST"
	ActionApproveRequest = "APPROVE_REQUEST"
	ActionRejectRequest  = "REJECT_REQUEST"

	ActionSubmitOffers = "SUBMIT_OFFERS"
	ActionUpdateOffers = "UPDATE_OFFERS"
	ActionSelectOffer  = "SELECT_OFFER"

	ActionCreateOrder           = "CREATE_ORDER"
	ActionApproveOrder          = "APPROVE_ORDER"
	ActionCancelOrder           = "CANCEL_ORDER"
	ActionUpdateSupplierInvoice = "UPDATE_SUPPLIER_INVOICE"

	ActionConfirmReceipt = "CONFIRM_RECEIPT"
)

// Entity types recorded on audit entries.
const (
	EntityMaterialRequest = "material_request"
	EntityQuotation       = "quotation_comparison"
	EntityPurchaseOrder   = "purchase_order"
	EntityDeliveryRecord  = "delivery_record"
)

// AuditLog tracks Who, What, and When for every mutating action. Entries
// are append-only; the core never updates or deletes them.
type AuditLog struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	EntityType string `gorm:"type:varchar(50);not null;index:idx_audit_entity" json:"entity_type"`
	EntityID   string `gorm:"type:varchar(50);not null;index:idx_audit_entity" json:"entity_id"`
	Action     string `gorm:"type:varchar(50);not null;index" json:"action"`

	UserID   *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	UserName string     `gorm:"type:varchar(255)" json:"user_name"`
	UserRole string     `gorm:"type:varchar(50)" json:"user_role"`

	Description string `gorm:"type:varchar(500)" json:"description"`
	Changes     string `gorm:"type:jsonb" json:"changes,omitempty"` // serialized JSON payload

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
