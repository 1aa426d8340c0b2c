package models

import (
	"time"

	"gorm.io/gorm"
)

// TenancyAgreement is an owner-uploaded agreement document for one property
type TenancyAgreement struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PropertyID uint   `gorm:"index;not null" json:"property_id"`
	OwnerID    uint   `gorm:"index;not null" json:"owner_id"`
	Title      string `gorm:"type:varchar(255)" json:"title"`
	FileKey    string `gorm:"type:varchar(500)" json:"file_key"`
	FileName   string `gorm:"type:varchar(255)" json:"file_name"`
	MimeType   string `gorm:"type:varchar(100)" json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`

	Property Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

// StudentAgreementAccess grants one student read access to an agreement through one booking
type StudentAgreementAccess struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AgreementID uint `gorm:"not null;uniqueIndex:idx_agreement_access,priority:1" json:"agreement_id"`
	StudentID   uint `gorm:"not null;uniqueIndex:idx_agreement_access,priority:2" json:"student_id"`
	BookingID   uint `gorm:"not null;uniqueIndex:idx_agreement_access,priority:3" json:"booking_id"`
}
