package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role names form a closed set; authorization decisions go through the
// authz table, never ad-hoc string comparisons in handlers.
const (
	RoleSupervisor         = "supervisor"
	RoleEngineer           = "engineer"
	RoleProcurementManager = "procurement_manager"
	RoleGeneralManager     = "general_manager"
	RoleDeliveryTracker    = "delivery_tracker"
	RoleAdmin              = "admin"
)

// User represents the central user entity for logic and database structure
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20)" json:"phone"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role      string         `gorm:"type:varchar(50);not null" json:"role"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Summary returns the caller identity the core engines authorize against.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Username, Role: u.Role}
}

// UserSummary is the authenticated caller as seen by the core engines.
// The authentication collaborator resolves it before any engine runs;
// engines authorize by role and identity, they never authenticate.
type UserSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}
