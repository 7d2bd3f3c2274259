package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCanceled  = "canceled"
)

// ConsultingService is a bookable consulting offer. ServiceID is the business
// key used by the front end and stored in checkout metadata.
type ConsultingService struct {
	ID          string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	ServiceID   string          `gorm:"type:varchar(100);not null;uniqueIndex:ux_consulting_services_service_id" json:"service_id"`
	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Duration    string          `gorm:"type:varchar(100)" json:"duration"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ConsultingService) TableName() string {
	return "consulting_services"
}

func (s *ConsultingService) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ConsultationBooking is created from a paid consultation checkout session.
type ConsultationBooking struct {
	ID                 string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	ServiceID          string            `gorm:"type:varchar(100);not null;index" json:"service_id"`
	Service            ConsultingService `gorm:"foreignKey:ServiceID;references:ServiceID" json:"consulting_services"`
	CustomerName       string            `gorm:"type:varchar(200);not null" json:"customer_name"`
	CustomerEmail      string            `gorm:"type:varchar(200);not null;index" json:"customer_email"`
	ScheduledDate      time.Time         `gorm:"not null" json:"scheduled_date"`
	Message            string            `gorm:"type:text" json:"message"`
	PaymentIntentID    string            `gorm:"type:varchar(191);index" json:"payment_intent_id"`
	PaymentAmount      decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"payment_amount"`
	Status             string            `gorm:"type:varchar(32);not null;default:'pending'" json:"status"`
	MeetingLink        *string           `gorm:"type:varchar(500);default:null" json:"meeting_link,omitempty"`
	ConfirmationSentAt *time.Time        `gorm:"default:null" json:"confirmation_sent_at,omitempty"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ConsultationBooking) TableName() string {
	return "consultation_bookings"
}

func (b *ConsultationBooking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// MeetingLinkOrDefault returns the meeting link or "#" when none is set yet.
func (b *ConsultationBooking) MeetingLinkOrDefault() string {
	if b.MeetingLink == nil || *b.MeetingLink == "" {
		return "#"
	}
	return *b.MeetingLink
}

var scheduledDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseScheduledDate parses the scheduled date sent by the booking form.
// Values without a zone are interpreted as UTC.
func ParseScheduledDate(raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, fmt.Errorf("scheduled date is empty")
	}
	for _, layout := range scheduledDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported scheduled date %q", raw)
}
