package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignPayloadRoundTrip(t *testing.T) {
	payload := map[string]string{
		"orderId":  "DEP_1700000000000_player1",
		"amount":   "1000",
		"currency": "RUB",
		"status":   "success",
	}
	secret := "test-secret"

	sig := SignPayload(payload, secret)
	assert.NotEmpty(t, sig)
	assert.True(t, VerifySignature(payload, sig, secret))
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	payload := map[string]string{
		"orderId": "DEP_1_u",
		"amount":  "1000",
	}
	secret := "test-secret"
	sig := SignPayload(payload, secret)

	payload["amount"] = "100000"
	assert.False(t, VerifySignature(payload, sig, secret))
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	payload := map[string]string{"orderId": "DEP_1_u"}
	sig := SignPayload(payload, "secret-a")
	assert.False(t, VerifySignature(payload, sig, "secret-b"))
}

func TestSignPayloadExcludesSignatureField(t *testing.T) {
	payload := map[string]string{"orderId": "DEP_1_u", "amount": "500"}
	withSig := map[string]string{
		"orderId":   "DEP_1_u",
		"amount":    "500",
		"signature": "deadbeef",
	}
	assert.Equal(t, SignPayload(payload, "s"), SignPayload(withSig, "s"))
}

func TestSignPayloadDeterministicOrdering(t *testing.T) {
	a := map[string]string{"b": "2", "a": "1", "c": "3"}
	b := map[string]string{"c": "3", "a": "1", "b": "2"}
	assert.Equal(t, SignPayload(a, "s"), SignPayload(b, "s"))
}
