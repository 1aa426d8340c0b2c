package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentGateway string

const (
	PaymentGatewayPaystack PaymentGateway = "paystack"
	PaymentGatewayCash     PaymentGateway = "cash"
)

// RoomLevyPayment is the append-only ledger entry for one verified levy transaction
type RoomLevyPayment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OwnerID         uint            `gorm:"index;not null" json:"owner_id"`
	Reference       string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"reference"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency        string          `gorm:"type:varchar(10)" json:"currency"`
	RoomCount       int             `json:"room_count"`
	PendingRooms    int             `json:"pending_rooms"`
	ExpiredRooms    int             `json:"expired_rooms"`
	Discount        decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"discount"`
	Status          string          `gorm:"type:varchar(20)" json:"status"`
	Method          PaymentGateway  `gorm:"type:varchar(20)" json:"method"`
	GatewayResponse string          `gorm:"type:varchar(255)" json:"gateway_response"`
	PaidAt          time.Time       `json:"paid_at"`

	// Relationships
	Owner User   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Rooms []Room `gorm:"foreignKey:LevyPaymentID" json:"rooms,omitempty"`
}

const LevyPaymentStatusCompleted = "completed"
