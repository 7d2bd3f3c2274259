package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PayFox/app/models"
)

type consultationRepository struct {
	db *gorm.DB
}

// NewConsultationRepository creates a new consultation repository instance
func NewConsultationRepository(db *gorm.DB) ConsultationRepository {
	return &consultationRepository{db: db}
}

// FindServiceByServiceID looks up a consulting service by its business key.
func (r *consultationRepository) FindServiceByServiceID(ctx context.Context, serviceID string) (*models.ConsultingService, error) {
	var service models.ConsultingService
	err := r.db.WithContext(ctx).Where("service_id = ?", serviceID).First(&service).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &service, nil
}

// CreateBooking atomically validates the referenced service and creates a
// confirmed booking for it. It returns the new booking id.
func (r *consultationRepository) CreateBooking(ctx context.Context, in NewBooking) (string, error) {
	serviceID := strings.TrimSpace(in.ServiceID)
	if serviceID == "" {
		return "", fmt.Errorf("service id is required")
	}
	if strings.TrimSpace(in.CustomerEmail) == "" {
		return "", fmt.Errorf("customer email is required")
	}

	var bookingID string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var service models.ConsultingService
		if err := tx.Where("service_id = ?", serviceID).First(&service).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("consulting service %q: %w", serviceID, ErrNotFound)
			}
			return err
		}

		booking := &models.ConsultationBooking{
			ServiceID:       service.ServiceID,
			CustomerName:    in.CustomerName,
			CustomerEmail:   in.CustomerEmail,
			ScheduledDate:   in.ScheduledDate,
			Message:         in.Message,
			PaymentIntentID: in.PaymentIntentID,
			PaymentAmount:   in.PaymentAmount,
			Status:          models.BookingStatusConfirmed,
		}
		if err := tx.Omit("Service").Create(booking).Error; err != nil {
			return err
		}
		bookingID = booking.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return bookingID, nil
}

// GetBookingWithService loads a booking together with its consulting service.
func (r *consultationRepository) GetBookingWithService(ctx context.Context, bookingID string) (*models.ConsultationBooking, error) {
	var booking models.ConsultationBooking
	err := r.db.WithContext(ctx).
		InnerJoins("Service").
		Where("consultation_bookings.id = ?", bookingID).
		First(&booking).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

func (r *consultationRepository) MarkConfirmationSent(ctx context.Context, bookingID string) error {
	now := time.Now()
	tx := r.db.WithContext(ctx).Model(&models.ConsultationBooking{}).
		Where("id = ?", bookingID).
		Updates(map[string]interface{}{
			"confirmation_sent_at": &now,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
