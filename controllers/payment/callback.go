package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"aurex/database"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
)

// webhookPayload flattens the processor's JSON body into the string map the
// signature is computed over, pulling the signature field out separately.
func webhookPayload(c *fiber.Ctx) (map[string]string, string, error) {
	return webhookPayloadFromBody(c.Body())
}

func webhookPayloadFromBody(body []byte) (map[string]string, string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, "", err
	}

	payload := make(map[string]string, len(raw))
	var signature string
	for k, v := range raw {
		if k == "signature" {
			signature, _ = v.(string)
			continue
		}
		switch val := v.(type) {
		case string:
			payload[k] = val
		case float64:
			payload[k] = formatNumber(val)
		case bool:
			payload[k] = fmt.Sprintf("%t", val)
		default:
			encoded, _ := json.Marshal(val)
			payload[k] = string(encoded)
		}
	}
	return payload, signature, nil
}

// formatNumber renders a JSON number the way the processor's signer does:
// plain decimal notation, no exponent, no trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LavaCallback is the deposit webhook.
func LavaCallback(c *fiber.Ctx) error {
	payload, signature, err := webhookPayload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid body")
	}

	err = services.HandleDepositCallback(database.DB, payload, signature, os.Getenv("LAVA_API_KEY"))
	switch {
	case errors.Is(err, services.ErrInvalidSignature):
		return c.Status(fiber.StatusBadRequest).SendString("Invalid signature")
	case errors.Is(err, services.ErrTransactionNotFound):
		return c.Status(fiber.StatusNotFound).SendString("Transaction not found")
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).SendString("Processing failed")
	}

	return c.SendString("OK")
}

// LavaPayoutCallback is the withdrawal webhook.
func LavaPayoutCallback(c *fiber.Ctx) error {
	payload, signature, err := webhookPayload(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid body")
	}

	err = services.HandleWithdrawalCallback(database.DB, payload, signature, os.Getenv("LAVA_API_KEY"))
	switch {
	case errors.Is(err, services.ErrInvalidSignature):
		return c.Status(fiber.StatusBadRequest).SendString("Invalid signature")
	case errors.Is(err, services.ErrTransactionNotFound):
		return c.Status(fiber.StatusNotFound).SendString("Transaction not found")
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).SendString("Processing failed")
	}

	return c.SendString("OK")
}
