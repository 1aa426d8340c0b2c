package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role a user acts under
type UserRole string

const (
	RoleAdmin         UserRole = "admin"
	RolePropertyOwner UserRole = "property_owner"
	RoleStudent       UserRole = "student"
)

// Valid reports whether r is one of the known roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RolePropertyOwner, RoleStudent:
		return true
	}
	return false
}

// AccountStatus tracks whether the user can sign in yet
type AccountStatus string

const (
	// AccountStatusInvited accounts were created on someone else's behalf and have no credential yet.
	AccountStatusInvited AccountStatus = "invited"
	AccountStatusActive  AccountStatus = "active"
)

// User represents a user in the system
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name          string        `gorm:"type:varchar(255)" json:"name"`
	Phone         string        `gorm:"type:varchar(50)" json:"phone"`
	Email         string        `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role          UserRole      `gorm:"type:varchar(20);default:'student';index" json:"role"`
	AccountStatus AccountStatus `gorm:"type:varchar(20);default:'active'" json:"account_status"`
	FirebaseUID   *string       `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	StudentNumber string        `gorm:"type:varchar(100)" json:"student_number,omitempty"`
	Location      string        `gorm:"type:varchar(255)" json:"location,omitempty"`

	InviteTokenHash string     `gorm:"type:varchar(255)" json:"-"`
	InviteExpiresAt *time.Time `json:"-"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`

	// Relationships
	Properties []Property `gorm:"foreignKey:OwnerID" json:"properties,omitempty"`
}
