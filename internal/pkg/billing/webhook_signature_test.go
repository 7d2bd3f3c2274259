package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/internal/pkg/billing/billingtest"
)

func TestSignatureVerifier(t *testing.T) {
	secret := "whsec_test"
	payload := billingtest.EventJSON("evt_sig", "invoice.paid", `{"id":"in_1","customer":"cus_1"}`)
	v := NewSignatureVerifier(secret, 0)

	ev, err := v.Verify(payload, billingtest.SignPayload(payload, secret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_sig", ev.ID)
	assert.Equal(t, "invoice.paid", string(ev.Type))

	_, err = v.Verify(payload, billingtest.SignPayload(payload, "whsec_other", time.Now()))
	assert.Error(t, err)

	_, err = v.Verify(payload, billingtest.SignPayload(payload, secret, time.Now().Add(-time.Hour)))
	assert.Error(t, err, "stale timestamps must be rejected")

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-3] = ' '
	_, err = v.Verify(tampered, billingtest.SignPayload(payload, secret, time.Now()))
	assert.Error(t, err)

	_, err = v.Verify(payload, "")
	assert.Error(t, err)
}

func TestSignatureVerifier_MissingSecret(t *testing.T) {
	payload := []byte(`{}`)
	_, err := NewSignatureVerifier(" ", 0).Verify(payload, billingtest.SignPayload(payload, "x", time.Now()))
	assert.ErrorIs(t, err, ErrMissingWebhookSecret)
}
