package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationTypeAccountInvite notifications get a fresh activation link appended when sent
const NotificationTypeAccountInvite = "account_invite"

// Notification is an in-app message; delivery over other channels is done by the worker
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID      uint       `gorm:"index;not null" json:"user_id"`
	Title       string     `gorm:"type:varchar(255)" json:"title"`
	Message     string     `gorm:"type:text" json:"message"`
	Type        string     `gorm:"type:varchar(50)" json:"type"`
	IsRead      bool       `gorm:"default:false" json:"is_read"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
