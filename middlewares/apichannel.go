package middlewares

import (
	"os"

	"github.com/gofiber/fiber/v2"
)

// ApichannelAuth checks the aggregator's shared credentials carried in the
// callback body before any gateway operation runs.
func ApichannelAuth() fiber.Handler {
	expectedOperator := os.Getenv("APICHANNEL_OPERATOR_ID")
	expectedSecret := os.Getenv("APICHANNEL_SECRET")

	return func(c *fiber.Ctx) error {
		var body struct {
			OperatorID     string `json:"operator_id"`
			OperatorSecret string `json:"operator_secret"`
		}

		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "INVALID_JSON",
			})
		}

		if body.OperatorID != expectedOperator || body.OperatorSecret != expectedSecret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "INVALID_OPERATOR_CREDENTIALS",
			})
		}

		return c.Next()
	}
}
