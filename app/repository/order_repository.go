package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PayFox/app/models"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateStripeOrder inserts the audit row for a paid checkout session.
func (r *orderRepository) CreateStripeOrder(ctx context.Context, order *models.StripeOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// CreateProductOrder creates the order and, when productID is set, its single
// order item plus access grants for the product and its bonus products. All
// rows are written in one transaction.
func (r *orderRepository) CreateProductOrder(ctx context.Context, order *models.Order, productID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return err
		}
		if productID == "" {
			return nil
		}

		item := models.OrderItem{
			OrderID:   order.ID,
			ProductID: productID,
			Price:     order.TotalAmount,
			Quantity:  1,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		order.Items = []models.OrderItem{item}

		var bonusIDs []string
		if err := tx.Model(&models.Product{}).
			Where("bonus_for_product_id = ? AND is_bonus = ?", productID, true).
			Pluck("id", &bonusIDs).Error; err != nil {
			return err
		}

		grants := make([]models.CustomerProductAccess, 0, len(bonusIDs)+1)
		for _, id := range append([]string{productID}, bonusIDs...) {
			grants = append(grants, models.CustomerProductAccess{
				Email:     order.Email,
				OrderID:   order.ID,
				ProductID: id,
			})
		}
		return tx.Omit("Product").Create(&grants).Error
	})
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}
