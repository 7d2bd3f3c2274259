package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	BookingConfirmationPath = "/send-booking-confirmation"
	BonusEmailPath          = "/send-bonus-email"
)

// Client calls the email functions of the service over HTTP, authenticated
// with the public anon key.
type Client struct {
	BaseURL string
	AnonKey string

	HTTPClient *http.Client
}

// NewClient creates a client for the functions base URL.
func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		AnonKey: strings.TrimSpace(anonKey),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type bookingConfirmationRequest struct {
	BookingID string `json:"bookingId"`
}

type bonusEmailRequest struct {
	Email        string `json:"email"`
	CustomerName string `json:"customerName"`
	OrderID      string `json:"orderId"`
}

// SendBookingConfirmation asks the booking confirmation function to email
// the customer.
func (c *Client) SendBookingConfirmation(ctx context.Context, bookingID string) error {
	if strings.TrimSpace(bookingID) == "" {
		return errors.New("booking id is required")
	}
	if err := c.post(ctx, BookingConfirmationPath, bookingConfirmationRequest{BookingID: bookingID}); err != nil {
		return err
	}
	log.Infof("[Notifier] Booking confirmation requested for %s", bookingID)
	return nil
}

// SendBonusEmail asks the bonus email function to send download links.
func (c *Client) SendBonusEmail(ctx context.Context, email, customerName, orderID string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(orderID) == "" {
		return errors.New("email and order id are required")
	}
	req := bonusEmailRequest{Email: email, CustomerName: customerName, OrderID: orderID}
	if err := c.post(ctx, BonusEmailPath, req); err != nil {
		return err
	}
	log.Infof("[Notifier] Bonus email requested for order %s", orderID)
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	if c.BaseURL == "" {
		return errors.New("functions base URL is not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.AnonKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.AnonKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Errorf("[Notifier] POST %s failed: %v", path, err)
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notifier %s failed: status=%d body=%s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
