package helpers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func ApiSuccess(c *fiber.Ctx, data fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range data {
		body[k] = v
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

func ApiError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

// EnvelopeSuccess wraps a provider answer in the JSON-RPC-like envelope used
// by the secondary integration path.
func EnvelopeSuccess(c *fiber.Ctx, api string, answer fiber.Map) error {
	answer["error_code"] = 0
	answer["error_description"] = "ok"
	answer["timestamp"] = time.Now().Unix()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"api":     api,
		"answer":  answer,
		"success": true,
	})
}

func EnvelopeError(c *fiber.Ctx, api string, errorCode int, description string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"api": api,
		"answer": fiber.Map{
			"error_code":        errorCode,
			"error_description": description,
			"timestamp":         time.Now().Unix(),
		},
		"success": false,
	})
}
