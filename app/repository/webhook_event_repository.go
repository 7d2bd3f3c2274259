package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/PayFox/app/models"
)

type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new webhook ledger repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// CreateIfNotExists inserts the ledger row unless the event id is already
// known. A created row is claimed by the caller. It reports whether a row
// was created and returns the stored row.
func (r *webhookEventRepository) CreateIfNotExists(ctx context.Context, event *models.StripeWebhookEvent) (bool, *models.StripeWebhookEvent, error) {
	db := r.db.WithContext(ctx)
	if event.ClaimedAt == nil {
		now := time.Now().UTC()
		event.ClaimedAt = &now
	}
	tx := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.StripeWebhookEvent
	if err := db.Where("event_id = ?", event.EventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *webhookEventRepository) Claim(ctx context.Context, id uint, lease time.Duration) (bool, error) {
	now := time.Now().UTC()
	tx := r.db.WithContext(ctx).Model(&models.StripeWebhookEvent{}).
		Where("id = ?", id).
		Where(r.db.
			Where("processed_at IS NOT NULL AND processing_error <> ''").
			Or("processed_at IS NULL AND (claimed_at IS NULL OR claimed_at < ?)", now.Add(-lease))).
		Updates(map[string]interface{}{
			"claimed_at":       now,
			"processed_at":     nil,
			"processing_error": "",
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.StripeWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *webhookEventRepository) GetByEventID(ctx context.Context, eventID string) (*models.StripeWebhookEvent, error) {
	var event models.StripeWebhookEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}
