package billing

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// Gateway is the subset of the Stripe API used by the payment service.
type Gateway interface {
	// LatestSubscription returns the most recent subscription of a customer
	// in any status, or nil when the customer has none.
	LatestSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error)
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway talks to the Stripe API through an explicitly constructed
// client. No package level key is set.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a gateway authenticated with the given secret key.
func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{api: sc}, nil
}

// NewStripeGatewayWithClient wraps an already initialised client.
func NewStripeGatewayWithClient(api *client.API) *StripeGateway {
	return &StripeGateway{api: api}
}

func (g *StripeGateway) LatestSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	params.Single = true
	params.AddExpand("data.default_payment_method")

	iter := g.api.Subscriptions.List(params)
	if iter.Next() {
		return iter.Subscription(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return g.api.CheckoutSessions.New(params)
}
