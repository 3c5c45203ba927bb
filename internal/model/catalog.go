package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogItem is a priced entry in the material catalog. Request items may
// link to one; its price is the fallback when an order is created without
// a selected quotation offer.
type CatalogItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ItemCode  string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"item_code"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit      string          `gorm:"type:varchar(50)" json:"unit"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"unit_price"`

	SupplierName string `gorm:"type:varchar(255)" json:"supplier_name,omitempty"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *CatalogItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
