package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GatewayVerificationLog keeps every verify call made to the payment gateway
type GatewayVerificationLog struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	PaymentGateway PaymentGateway `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	Reference      string         `gorm:"type:varchar(100);index" json:"reference"`
	HTTPStatus     int            `json:"http_status"`
	Outcome        string         `gorm:"type:varchar(50)" json:"outcome"`
	Metadata       datatypes.JSON `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
