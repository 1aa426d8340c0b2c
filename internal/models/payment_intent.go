package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentIntentStatus string

const (
	PaymentIntentStatusOpen      PaymentIntentStatus = "open"
	PaymentIntentStatusCompleted PaymentIntentStatus = "completed"
	PaymentIntentStatusExpired   PaymentIntentStatus = "expired"
)

// PaymentIntent is an amount/reference awaiting gateway confirmation.
// RoomIDs is fixed at creation and bounds which rooms a confirmed payment can activate.
type PaymentIntent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Reference    string                    `gorm:"type:varchar(100);uniqueIndex;not null" json:"reference"`
	OwnerID      uint                      `gorm:"index;not null" json:"owner_id"`
	PropertyID   *uint                     `gorm:"index" json:"property_id,omitempty"`
	Amount       decimal.Decimal           `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency     string                    `gorm:"type:varchar(10)" json:"currency"`
	Discount     decimal.Decimal           `gorm:"type:decimal(15,2);default:0" json:"discount"`
	RoomIDs      datatypes.JSONSlice[uint] `json:"room_ids"`
	PendingRooms int                       `json:"pending_rooms"`
	ExpiredRooms int                       `json:"expired_rooms"`
	Status       PaymentIntentStatus       `gorm:"type:varchar(20);default:'open';index" json:"status"`
	ExpiresAt    time.Time                 `gorm:"index" json:"expires_at"`

	// Snapshot of the room that triggered the intent, when created by room registration
	NewRoomID     *uint      `json:"new_room_id,omitempty"`
	RoomNumber    string     `gorm:"type:varchar(50)" json:"room_number,omitempty"`
	Capacity      int        `json:"capacity,omitempty"`
	Gender        RoomGender `gorm:"type:varchar(10)" json:"gender,omitempty"`
	LevyPaymentID *uint      `json:"levy_payment_id,omitempty"`
}

// IsExpired reports whether the intent can no longer be settled at t
func (p PaymentIntent) IsExpired(t time.Time) bool {
	return p.Status == PaymentIntentStatusExpired || !p.ExpiresAt.After(t)
}
