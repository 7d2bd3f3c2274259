package mail

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	templateBonusEmail          = "bonus_email"
	templateBookingConfirmation = "booking_confirmation"

	BonusEmailSubject          = "Your Bonus Downloads Are Ready!"
	BookingConfirmationSubject = "Your JENA Tech Consulting Session is Confirmed!"
)

// BonusLink is one downloadable bonus product.
type BonusLink struct {
	Title string
	URL   string
}

// BonusEmailData feeds the bonus email template.
type BonusEmailData struct {
	CustomerName string
	Products     []BonusLink
}

// BookingConfirmationData feeds the booking confirmation template.
type BookingConfirmationData struct {
	CustomerName string
	ServiceTitle string
	Date         string
	Time         string
	Duration     string
	MeetingLink  string
}

// Renderer renders the transactional email templates.
type Renderer struct {
	engine *html.Engine
}

func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	return &Renderer{engine: engine}, nil
}

func (r *Renderer) RenderBonusEmail(data BonusEmailData) (string, error) {
	return r.render(templateBonusEmail, data)
}

func (r *Renderer) RenderBookingConfirmation(data BookingConfirmationData) (string, error) {
	return r.render(templateBookingConfirmation, data)
}

func (r *Renderer) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// FormatSessionTime formats a session start as long date and 12h time in UTC.
func FormatSessionTime(t time.Time) (date, clock string) {
	t = t.UTC()
	return t.Format("Monday, January 2, 2006"), t.Format("03:04 PM MST")
}
