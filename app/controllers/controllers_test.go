package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/mail"
)

var errBoom = errors.New("boom")

type testResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r testResponse) JSON(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &out), string(r.Body))
	return out
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body []byte, headers map[string]string) testResponse {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return testResponse{Status: resp.StatusCode, Header: resp.Header, Body: data}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func newRenderer(t *testing.T) *mail.Renderer {
	t.Helper()
	r, err := mail.NewRenderer()
	require.NoError(t, err)
	return r
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeProductAccess struct {
	grants []models.CustomerProductAccess
	err    error
}

func (f *fakeProductAccess) ListBonusProducts(_ context.Context, email, orderID string) ([]models.CustomerProductAccess, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.CustomerProductAccess
	for _, g := range f.grants {
		if g.Email == email && g.OrderID == orderID {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeBookings struct {
	repository.ConsultationRepository

	booking  *models.ConsultationBooking
	marked   []string
	markErr  error
	fetchErr error
}

func (f *fakeBookings) GetBookingWithService(_ context.Context, bookingID string) (*models.ConsultationBooking, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.booking == nil || f.booking.ID != bookingID {
		return nil, repository.ErrNotFound
	}
	return f.booking, nil
}

func (f *fakeBookings) MarkConfirmationSent(_ context.Context, bookingID string) error {
	f.marked = append(f.marked, bookingID)
	return f.markErr
}
