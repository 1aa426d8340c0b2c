package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking links a student to a room for a date range
type Booking struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	StudentID      uint            `gorm:"index;not null" json:"student_id"`
	PropertyID     uint            `gorm:"index;not null" json:"property_id"`
	RoomID         uint            `gorm:"index;not null" json:"room_id"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	DurationMonths int             `json:"duration_months"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Status         BookingStatus   `gorm:"type:varchar(20);index" json:"status"`
	PaymentMethod  PaymentGateway  `gorm:"type:varchar(20)" json:"payment_method"`
	TenantLocation string          `gorm:"type:varchar(255)" json:"tenant_location,omitempty"`

	// Relationships
	Student  User     `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Property Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Room     Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// BookingDurations lists the only rental lengths, in months, that can be booked
var BookingDurations = []int{1, 3, 6, 9, 12}
