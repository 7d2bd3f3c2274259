package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/mail"
)

// BookingConfirmationController emails the confirmation for a paid
// consultation booking.
type BookingConfirmationController struct {
	bookings repository.ConsultationRepository
	renderer *mail.Renderer
	mailer   mail.Mailer
}

func NewBookingConfirmationController(bookings repository.ConsultationRepository, renderer *mail.Renderer, mailer mail.Mailer) *BookingConfirmationController {
	return &BookingConfirmationController{bookings: bookings, renderer: renderer, mailer: mailer}
}

func (bc *BookingConfirmationController) HandleSendBookingConfirmation(c *fiber.Ctx) error {
	if handled, err := handlePreflight(c); handled {
		return err
	}

	var req BookingConfirmationRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Booking ID is required")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 15*time.Second)
	defer cancel()

	booking, err := bc.bookings.GetBookingWithService(ctx, req.BookingID)
	if err != nil {
		log.Errorf("[BookingConfirmation] Error fetching booking %s: %v", req.BookingID, err)
		return jsonError(c, fiber.StatusNotFound, "Booking not found")
	}

	date, clock := mail.FormatSessionTime(booking.ScheduledDate)
	html, err := bc.renderer.RenderBookingConfirmation(mail.BookingConfirmationData{
		CustomerName: booking.CustomerName,
		ServiceTitle: booking.Service.Title,
		Date:         date,
		Time:         clock,
		Duration:     booking.Service.Duration,
		MeetingLink:  booking.MeetingLinkOrDefault(),
	})
	if err != nil {
		log.Errorf("[BookingConfirmation] Failed to render confirmation: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	msg := mail.Message{To: booking.CustomerEmail, Subject: mail.BookingConfirmationSubject, HTML: html}
	if err := bc.mailer.Send(ctx, msg); err != nil {
		log.Errorf("[BookingConfirmation] Failed to send confirmation to %s: %v", booking.CustomerEmail, err)
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	if err := bc.bookings.MarkConfirmationSent(ctx, booking.ID); err != nil {
		log.Warnf("[BookingConfirmation] Failed to mark confirmation sent for booking %s: %v", booking.ID, err)
	}

	log.Infof("[BookingConfirmation] Booking confirmation sent to: %s", booking.CustomerEmail)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Booking confirmation sent successfully",
		"email":   booking.CustomerEmail,
	})
}
