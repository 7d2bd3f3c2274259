package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

// Order is a product purchase used by the bonus access system.
type Order struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email           string          `gorm:"type:varchar(200);not null;index" json:"email"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentStatus   string          `gorm:"type:varchar(32);not null;default:'unpaid'" json:"payment_status"`
	PaymentIntentID string          `gorm:"type:varchar(191);index" json:"payment_intent_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem is a single purchased product of an order.
type OrderItem struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID   string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID string          `gorm:"type:varchar(36);not null;index" json:"product_id"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
