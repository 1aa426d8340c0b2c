package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const PaymentStatusCompleted = "completed"

// Payment records money received for a booking
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	BookingID     uint            `gorm:"index;not null" json:"booking_id"`
	StudentID     uint            `gorm:"index;not null" json:"student_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Status        string          `gorm:"type:varchar(20)" json:"status"`
	Method        PaymentGateway  `gorm:"type:varchar(20)" json:"method"`
	TransactionID string          `gorm:"type:varchar(100);uniqueIndex" json:"transaction_id"`
	PaidAt        time.Time       `json:"paid_at"`

	// Relationships
	Booking Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
}
