package billing

import (
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

// ErrMissingWebhookSecret is returned when no signing secret is configured.
var ErrMissingWebhookSecret = errors.New("webhook signing secret is not configured")

// SignatureVerifier authenticates Stripe webhook deliveries against the raw
// request body and the Stripe-Signature header.
type SignatureVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewSignatureVerifier creates a verifier using Stripe's default timestamp
// tolerance when tolerance is zero.
func NewSignatureVerifier(secret string, tolerance time.Duration) *SignatureVerifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &SignatureVerifier{secret: strings.TrimSpace(secret), tolerance: tolerance}
}

// Verify checks the signature and decodes the event. The payload must be the
// exact bytes received; re-encoded JSON will not verify.
func (v *SignatureVerifier) Verify(payload []byte, signatureHeader string) (stripe.Event, error) {
	if v.secret == "" {
		return stripe.Event{}, ErrMissingWebhookSecret
	}
	return webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
}
