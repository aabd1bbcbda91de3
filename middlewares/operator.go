package middlewares

import (
	"os"

	"aurex/helpers"

	"github.com/gofiber/fiber/v2"
)

// OperatorAuth guards the operator-facing endpoints with the shared API key
// pair configured per deployment.
func OperatorAuth() fiber.Handler {
	expectedCode := os.Getenv("OPERATOR_CODE")
	expectedKey := os.Getenv("OPERATOR_API_KEY")

	return func(c *fiber.Ctx) error {
		code := c.Get("X-Operator-Code")
		key := c.Get("X-Api-Key")

		if code == "" || key == "" {
			return helpers.JSONError(c, "OPERATOR_CODE_AND_KEY_REQUIRED")
		}
		if code != expectedCode || key != expectedKey {
			return helpers.JSONError(c, "INVALID_OPERATOR_CREDENTIALS")
		}

		return c.Next()
	}
}
