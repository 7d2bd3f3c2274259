// Package billingtest provides helpers for testing code that consumes Stripe
// webhooks and the billing gateway.
package billingtest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v78"
)

// SignPayload builds a Stripe-Signature header for payload.
func SignPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts.Unix())))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// EventJSON wraps a raw data object into an event document.
func EventJSON(id, eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","api_version":"2024-04-10","created":%d,"type":%q,"data":{"object":%s}}`,
		id, time.Now().Unix(), eventType, object))
}

// Event decodes EventJSON into a stripe.Event.
func Event(id, eventType, object string) stripe.Event {
	var ev stripe.Event
	if err := json.Unmarshal(EventJSON(id, eventType, object), &ev); err != nil {
		panic(err)
	}
	return ev
}

// FakeGateway records calls and returns canned responses.
type FakeGateway struct {
	mu sync.Mutex

	Subscription *stripe.Subscription
	ListErr      error
	Session      *stripe.CheckoutSession
	CreateErr    error

	ListCalls      []string
	CheckoutParams []*stripe.CheckoutSessionParams
}

func (g *FakeGateway) LatestSubscription(_ context.Context, customerID string) (*stripe.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ListCalls = append(g.ListCalls, customerID)
	if g.ListErr != nil {
		return nil, g.ListErr
	}
	return g.Subscription, nil
}

func (g *FakeGateway) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CheckoutParams = append(g.CheckoutParams, params)
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	return g.Session, nil
}

// CheckoutCalls returns the number of sessions requested so far.
func (g *FakeGateway) CheckoutCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.CheckoutParams)
}
