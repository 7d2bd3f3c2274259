package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a downloadable digital good. Bonus products are granted for free
// together with the product referenced by BonusForProductID.
type Product struct {
	ID                string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title             string    `gorm:"type:varchar(200);not null" json:"title"`
	DownloadURL       string    `gorm:"type:varchar(1000)" json:"download_url"`
	IsBonus           bool      `gorm:"default:false;index" json:"is_bonus"`
	BonusForProductID *string   `gorm:"type:varchar(36);default:null;index" json:"bonus_for_product_id,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// CustomerProductAccess grants an email address access to a product bought
// (or received as a bonus) with a given order.
type CustomerProductAccess struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(200);not null;index:idx_customer_product_access_email_order,priority:1" json:"email"`
	OrderID   string    `gorm:"type:varchar(36);not null;index:idx_customer_product_access_email_order,priority:2" json:"order_id"`
	ProductID string    `gorm:"type:varchar(36);not null;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"products"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CustomerProductAccess) TableName() string {
	return "customer_product_access"
}
