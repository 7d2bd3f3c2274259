package controllers

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ConsultationCheckoutRequest is the body of POST /create-consultation-checkout.
type ConsultationCheckoutRequest struct {
	ServiceID     string `json:"serviceId" validate:"required"`
	CustomerName  string `json:"customerName" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required"`
	ScheduledDate string `json:"scheduledDate" validate:"required"`
	Message       string `json:"message"`
}

func (r *ConsultationCheckoutRequest) Validate() error {
	return validate.Struct(r)
}

// BonusEmailRequest is the body of POST /send-bonus-email.
type BonusEmailRequest struct {
	Email        string `json:"email" validate:"required"`
	CustomerName string `json:"customerName"`
	OrderID      string `json:"orderId" validate:"required"`
}

func (r *BonusEmailRequest) Validate() error {
	return validate.Struct(r)
}

// BookingConfirmationRequest is the body of POST /send-booking-confirmation.
type BookingConfirmationRequest struct {
	BookingID string `json:"bookingId" validate:"required"`
}

func (r *BookingConfirmationRequest) Validate() error {
	return validate.Struct(r)
}
