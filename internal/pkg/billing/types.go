package billing

// PaymentResult describes what the one-time payment path produced. Warnings
// collect non-fatal failures that were logged but did not abort processing.
type PaymentResult struct {
	CheckoutSessionID string
	AuditOrderID      uint
	BookingID         string
	OrderID           string
	Notified          bool
	Warnings          []string
}

func (r *PaymentResult) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Outcome is the observable result of handling one Stripe event.
type Outcome struct {
	EventID      string
	EventType    string
	Kind         ClassificationKind
	IgnoreReason IgnoreReason
	CustomerID   string
	Duplicate    bool
	Payment      *PaymentResult
}

// Fields flattens the outcome into a JSON friendly map for job results.
func (o *Outcome) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"event_id":       o.EventID,
		"event_type":     o.EventType,
		"classification": string(o.Kind),
		"duplicate":      o.Duplicate,
	}
	if o.IgnoreReason != "" {
		fields["ignore_reason"] = string(o.IgnoreReason)
	}
	if o.CustomerID != "" {
		fields["customer_id"] = o.CustomerID
	}
	if p := o.Payment; p != nil {
		fields["checkout_session_id"] = p.CheckoutSessionID
		fields["audit_order_id"] = p.AuditOrderID
		fields["notified"] = p.Notified
		if p.BookingID != "" {
			fields["booking_id"] = p.BookingID
		}
		if p.OrderID != "" {
			fields["order_id"] = p.OrderID
		}
		if len(p.Warnings) > 0 {
			fields["warnings"] = p.Warnings
		}
	}
	return fields
}
