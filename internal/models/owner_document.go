package models

import (
	"time"

	"gorm.io/gorm"
)

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusRejected DocumentStatus = "rejected"
)

type DocumentRevisionAction string

const (
	DocumentRevisionSubmitted   DocumentRevisionAction = "submitted"
	DocumentRevisionResubmitted DocumentRevisionAction = "resubmitted"
)

// Owner verification files, in the order they are asked for
const (
	OwnerDocNationalID     = "national_id"
	OwnerDocOwnershipProof = "ownership_proof"
	OwnerDocUtilityBill    = "utility_bill"
	OwnerDocPassportPhoto  = "passport_photo"
)

var OwnerDocumentFields = []string{
	OwnerDocNationalID,
	OwnerDocOwnershipProof,
	OwnerDocUtilityBill,
	OwnerDocPassportPhoto,
}

// OwnerDocumentBundle is the current verification bundle of an owner.
// Every submission bumps Version and puts the bundle back into review.
type OwnerDocumentBundle struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OwnerID           uint           `gorm:"uniqueIndex;not null" json:"owner_id"`
	Version           int            `gorm:"not null;default:1" json:"version"`
	Status            DocumentStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	NationalIDKey     string         `gorm:"type:varchar(500)" json:"national_id_key"`
	OwnershipProofKey string         `gorm:"type:varchar(500)" json:"ownership_proof_key"`
	UtilityBillKey    string         `gorm:"type:varchar(500)" json:"utility_bill_key"`
	PassportPhotoKey  string         `gorm:"type:varchar(500)" json:"passport_photo_key"`
	ReviewedBy        *uint          `json:"reviewed_by,omitempty"`
	ReviewNote        string         `gorm:"type:text" json:"review_note,omitempty"`
	ReviewedAt        *time.Time     `json:"reviewed_at,omitempty"`
	SubmittedAt       time.Time      `json:"submitted_at"`

	Revisions []OwnerDocumentRevision `gorm:"foreignKey:BundleID" json:"revisions,omitempty"`
}

// SetKeys assigns stored file keys by form field name
func (b *OwnerDocumentBundle) SetKeys(keys map[string]string) {
	b.NationalIDKey = keys[OwnerDocNationalID]
	b.OwnershipProofKey = keys[OwnerDocOwnershipProof]
	b.UtilityBillKey = keys[OwnerDocUtilityBill]
	b.PassportPhotoKey = keys[OwnerDocPassportPhoto]
}

// OwnerDocumentRevision is the append-only history of bundle submissions
type OwnerDocumentRevision struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	BundleID          uint                   `gorm:"index;not null" json:"bundle_id"`
	Version           int                    `json:"version"`
	Action            DocumentRevisionAction `gorm:"type:varchar(20)" json:"action"`
	NationalIDKey     string                 `gorm:"type:varchar(500)" json:"national_id_key"`
	OwnershipProofKey string                 `gorm:"type:varchar(500)" json:"ownership_proof_key"`
	UtilityBillKey    string                 `gorm:"type:varchar(500)" json:"utility_bill_key"`
	PassportPhotoKey  string                 `gorm:"type:varchar(500)" json:"passport_photo_key"`
}
