package payment

import (
	"testing"

	"aurex/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumberPlainDecimalNotation(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1000, "1000"},
		{0.1, "0.1"},
		{99.99, "99.99"},
		{1500000.55, "1500000.55"},
		{500000, "500000"},
		{12345678.9, "12345678.9"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in), "in=%v", tt.in)
	}
}

// A webhook carrying a large fractional amount must flatten to the exact
// string the processor signed, or signature verification breaks.
func TestWebhookPayloadPreservesLargeAmountSignatures(t *testing.T) {
	secret := "cb-secret"
	signed := map[string]string{
		"orderId":  "DEP_1_kzt_player",
		"status":   "success",
		"amount":   "1500000.55",
		"currency": "KZT",
	}
	signature := helpers.SignPayload(signed, secret)

	body := []byte(`{"orderId":"DEP_1_kzt_player","status":"success",` +
		`"amount":1500000.55,"currency":"KZT","signature":"` + signature + `"}`)

	payload, gotSig, err := webhookPayloadFromBody(body)
	require.NoError(t, err)
	assert.Equal(t, signature, gotSig)
	assert.Equal(t, "1500000.55", payload["amount"])
	assert.True(t, helpers.VerifySignature(payload, gotSig, secret))
}
