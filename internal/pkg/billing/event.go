package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
)

// Stripe event types with dedicated handling. Every other event carrying a
// customer id falls through to a subscription sync.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
)

// ClassificationKind names the branch an event is routed to.
type ClassificationKind string

const (
	KindIgnored          ClassificationKind = "ignored"
	KindSubscriptionSync ClassificationKind = "subscription_sync"
	KindOneTimePayment   ClassificationKind = "one_time_payment"
)

// IgnoreReason explains why an event results in no processing.
type IgnoreReason string

const (
	ReasonEmptyPayload             IgnoreReason = "empty_payload"
	ReasonNoCustomerField          IgnoreReason = "no_customer_field"
	ReasonInvoicelessPaymentIntent IgnoreReason = "invoice_less_payment_intent"
	ReasonCustomerNotString        IgnoreReason = "customer_not_string"
	ReasonCheckoutNotActionable    IgnoreReason = "checkout_not_actionable"
)

// Classification is the closed set of outcomes of Classify. The unexported
// marker method keeps implementations inside this package.
type Classification interface {
	Kind() ClassificationKind
	isClassification()
}

// Ignored is a verified event that requires no work.
type Ignored struct {
	Reason IgnoreReason
}

// SubscriptionSync re-reads the latest subscription of a customer.
type SubscriptionSync struct {
	CustomerID string
}

// OneTimePayment is a paid checkout session in payment mode.
type OneTimePayment struct {
	CustomerID string
	Session    *stripe.CheckoutSession
}

func (Ignored) Kind() ClassificationKind          { return KindIgnored }
func (SubscriptionSync) Kind() ClassificationKind { return KindSubscriptionSync }
func (OneTimePayment) Kind() ClassificationKind   { return KindOneTimePayment }

func (Ignored) isClassification()          {}
func (SubscriptionSync) isClassification() {}
func (OneTimePayment) isClassification()   {}

// Classify routes a verified Stripe event. The rules are applied in order:
//
//  1. events without a data object, or whose object has no customer key, are ignored
//  2. payment_intent.succeeded with an explicit null invoice is ignored
//  3. a customer that is not a non-empty string is ignored
//  4. checkout.session.completed in subscription mode syncs the customer
//  5. checkout.session.completed in payment mode with status paid is a one-time payment
//  6. any other checkout.session.completed is ignored
//  7. every other event syncs the customer
//
// An error is returned only when a checkout session object cannot be decoded.
func Classify(event stripe.Event) (Classification, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return Ignored{Reason: ReasonEmptyPayload}, nil
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(event.Data.Raw, &object); err != nil || object == nil {
		return Ignored{Reason: ReasonEmptyPayload}, nil
	}

	rawCustomer, ok := object["customer"]
	if !ok {
		return Ignored{Reason: ReasonNoCustomerField}, nil
	}

	if string(event.Type) == EventPaymentIntentSucceeded {
		if invoice, ok := object["invoice"]; ok && isJSONNull(invoice) {
			return Ignored{Reason: ReasonInvoicelessPaymentIntent}, nil
		}
	}

	var customerID string
	if err := json.Unmarshal(rawCustomer, &customerID); err != nil || strings.TrimSpace(customerID) == "" {
		return Ignored{Reason: ReasonCustomerNotString}, nil
	}

	if string(event.Type) != EventCheckoutSessionCompleted {
		return SubscriptionSync{CustomerID: customerID}, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session of event %s: %w", event.ID, err)
	}

	switch {
	case session.Mode == stripe.CheckoutSessionModeSubscription:
		return SubscriptionSync{CustomerID: customerID}, nil
	case session.Mode == stripe.CheckoutSessionModePayment &&
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return OneTimePayment{CustomerID: customerID, Session: &session}, nil
	default:
		return Ignored{Reason: ReasonCheckoutNotActionable}, nil
	}
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
