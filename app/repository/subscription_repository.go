package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/PayFox/app/models"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// UpsertNotStarted marks a customer without any Stripe subscription. Only the
// status column is touched on conflict.
func (r *subscriptionRepository) UpsertNotStarted(ctx context.Context, customerID string) error {
	sub := &models.StripeSubscription{
		CustomerID: customerID,
		Status:     models.SubscriptionStatusNotStarted,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(sub).Error
}

// Upsert stores the full subscription state keyed by customer id. Payment
// method columns are only overwritten when updatePaymentMethod is set.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *models.StripeSubscription, updatePaymentMethod bool) error {
	columns := []string{
		"subscription_id",
		"price_id",
		"current_period_start",
		"current_period_end",
		"cancel_at_period_end",
		"status",
		"updated_at",
	}
	if updatePaymentMethod {
		columns = append(columns, "payment_method_brand", "payment_method_last4")
	}

	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return db.Where("customer_id = ?", sub.CustomerID).First(sub).Error
}

func (r *subscriptionRepository) GetByCustomerID(ctx context.Context, customerID string) (*models.StripeSubscription, error) {
	var sub models.StripeSubscription
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&sub).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}
