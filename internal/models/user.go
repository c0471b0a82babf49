package models

import (
	"time"

	"gorm.io/gorm"
)

// Legacy coarse roles. Kept for the hierarchy gate (see policy.RoleRank);
// fine-grained authorization goes through Profile permissions instead.
const (
	RoleAdmin      = "ADMIN"
	RoleManager    = "MANAGER"
	RoleCommercial = "COMMERCIAL"
	RoleTelepro    = "TELEPRO"
	RoleComptable  = "COMPTABLE"
	RoleUser       = "USER"
)

// User represents an authenticated user in the system.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string         `gorm:"size:255" json:"name,omitempty"`
	Password  string         `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	// Role is the legacy broad role enum, used only by the hierarchy gate.
	Role string `gorm:"size:20;not null;default:USER" json:"role"`
	// Active disables login and invalidates existing sessions when false.
	Active bool `gorm:"not null;default:true" json:"active"`
	// ProfileID links the user to an authorization profile.
	// A nil value means the user has no profile assigned (zero permissions).
	ProfileID *uint    `gorm:"index" json:"profile_id,omitempty"`
	Profile   *Profile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
}
