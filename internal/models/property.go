package models

import (
	"time"

	"gorm.io/gorm"
)

// Property is an owner's listing. Deleted properties keep their rows (soft delete).
type Property struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OwnerID uint   `gorm:"index;not null" json:"owner_id"`
	Name    string `gorm:"type:varchar(255)" json:"name"`
	Address string `gorm:"type:text" json:"address"`

	// Relationships
	Owner User   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Rooms []Room `gorm:"foreignKey:PropertyID" json:"rooms,omitempty"`
}
