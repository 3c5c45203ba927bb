package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	QuotationStatusDraft    = "draft"
	QuotationStatusSelected = "selected"
)

// QuotationComparison holds the normalized supplier offers for one request.
// At most one comparison exists per request; re-submitting offers replaces
// the offer set and clears any prior selection.
type QuotationComparison struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"request_id"`

	Status string `gorm:"type:varchar(20);not null" json:"status"`
	Notes  string `gorm:"type:text" json:"notes,omitempty"`

	SelectedOfferIndex   *int             `json:"selected_offer_index,omitempty"`
	SelectedSupplierName string           `gorm:"type:varchar(255)" json:"selected_supplier_name,omitempty"`
	SelectedTotalAmount  *decimal.Decimal `gorm:"type:decimal(15,4)" json:"selected_total_amount,omitempty"`

	Offers []QuotationOffer `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE" json:"offers"`

	CreatedByID   uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedByName string    `gorm:"type:varchar(255)" json:"created_by_name"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (q *QuotationComparison) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QuotationOffer is one supplier's priced response, normalized against the
// request's items. TotalAmount is always recomputed from the offer items,
// never accepted from the caller.
type QuotationOffer struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuotationID uuid.UUID `gorm:"type:uuid;not null;index" json:"quotation_id"`
	OfferIndex  int       `gorm:"not null" json:"offer_index"`

	SupplierName string          `gorm:"type:varchar(255);not null" json:"supplier_name"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"total_amount"`
	Notes        string          `gorm:"type:text" json:"notes,omitempty"`

	Items []QuotationOfferItem `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (o *QuotationOffer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// QuotationOfferItem prices one request item within an offer. ItemIndex
// mirrors the request item's index; Quantity is a snapshot of the request
// quantity so the line total survives later request edits.
type QuotationOfferItem struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OfferID uuid.UUID `gorm:"type:uuid;not null;index" json:"offer_id"`

	ItemIndex int             `gorm:"not null" json:"item_index"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"line_total"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (i *QuotationOfferItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
