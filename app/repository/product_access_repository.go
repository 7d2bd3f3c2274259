package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PayFox/app/models"
)

type productAccessRepository struct {
	db *gorm.DB
}

// NewProductAccessRepository creates a new product access repository instance
func NewProductAccessRepository(db *gorm.DB) ProductAccessRepository {
	return &productAccessRepository{db: db}
}

// ListBonusProducts returns the bonus products granted to email for orderID.
func (r *productAccessRepository) ListBonusProducts(ctx context.Context, email, orderID string) ([]models.CustomerProductAccess, error) {
	var grants []models.CustomerProductAccess
	db := r.db.WithContext(ctx)
	err := db.
		InnerJoins("Product", db.Where(&models.Product{IsBonus: true})).
		Where("customer_product_access.email = ? AND customer_product_access.order_id = ?", email, orderID).
		Order("customer_product_access.id ASC").
		Find(&grants).Error
	return grants, err
}
