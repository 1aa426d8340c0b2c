package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RoomGender string

const (
	RoomGenderMale   RoomGender = "male"
	RoomGenderFemale RoomGender = "female"
)

type RoomStatus string

const (
	RoomStatusAvailable RoomStatus = "available"
	RoomStatusOccupied  RoomStatus = "occupied"
)

// LevyStatus is the listing-fee state of a room
type LevyStatus string

const (
	LevyStatusPending  LevyStatus = "pending"
	LevyStatusPaid     LevyStatus = "paid"
	LevyStatusApproved LevyStatus = "approved"
	LevyStatusExpired  LevyStatus = "expired"
)

const (
	MinRoomCapacity = 1
	MaxRoomCapacity = 10
)

// Room belongs to exactly one property. CurrentOccupancy never exceeds Capacity.
type Room struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PropertyID       uint       `gorm:"not null;uniqueIndex:idx_rooms_property_number,priority:1" json:"property_id"`
	RoomNumber       string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_rooms_property_number,priority:2" json:"room_number"`
	Capacity         int        `gorm:"not null" json:"capacity"`
	Gender           RoomGender `gorm:"type:varchar(10)" json:"gender"`
	Status           RoomStatus `gorm:"type:varchar(20);default:'available'" json:"status"`
	CurrentOccupancy int        `gorm:"default:0" json:"current_occupancy"`

	LevyPaymentStatus LevyStatus      `gorm:"type:varchar(20);default:'pending';index" json:"levy_payment_status"`
	LevyExpiryDate    *time.Time      `json:"levy_expiry_date"`
	LevyPaymentID     *uint           `gorm:"index" json:"levy_payment_id"`
	PaymentDate       *time.Time      `json:"payment_date"`
	TransactionID     string          `gorm:"type:varchar(100)" json:"transaction_id,omitempty"`
	PaymentAmount     decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"payment_amount"`

	// Relationships
	Property Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

// HasVacancy reports whether one more tenant fits
func (r Room) HasVacancy() bool {
	return r.Status == RoomStatusAvailable && r.CurrentOccupancy < r.Capacity
}

// LevyDue reports whether the room needs a levy payment at t
func (r Room) LevyDue(t time.Time) bool {
	switch r.LevyPaymentStatus {
	case LevyStatusPending, LevyStatusExpired:
		return true
	}
	return r.LevyExpiryDate != nil && r.LevyExpiryDate.Before(t)
}

// DaysUntilLevyExpiry returns whole days left in the current levy period, 0 once lapsed
func (r Room) DaysUntilLevyExpiry(t time.Time) int {
	if r.LevyExpiryDate == nil || !r.LevyExpiryDate.After(t) {
		return 0
	}
	return int(r.LevyExpiryDate.Sub(t).Hours() / 24)
}
