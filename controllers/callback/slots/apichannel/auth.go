package apichannel

import (
	"errors"
	"fmt"
	"os"
	"time"

	"aurex/database"
	"aurex/helpers"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
)

type authRequest struct {
	UserID    string `json:"user_id"`
	AuthToken string `json:"auth_token"`
	GameID    string `json:"game_id"`
	Currency  string `json:"currency"`
	Lang      string `json:"lang"`
	Mode      string `json:"mode"`
}

const sessionTTL = time.Hour

// DoAuthUserIngame opens a game session for the player the launch URL was
// issued to. auth_token "demo" routes to the sandboxed demo account.
func DoAuthUserIngame(c *fiber.Ctx) error {
	var req authRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.ApiError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	currency := req.Currency
	if currency == "" {
		currency = "RUB"
	}

	userCode := req.UserID
	if req.AuthToken == "demo" || req.Mode == "demo" {
		userCode = "demo"
	}

	session, account, err := services.AuthenticateSession(database.DB, userCode, req.GameID, currency)
	switch {
	case errors.Is(err, services.ErrAccountNotFound):
		return helpers.ApiError(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrUnsupportedCurrency):
		return helpers.ApiError(c, fiber.StatusBadRequest, "Unsupported currency")
	case err != nil:
		return helpers.ApiError(c, fiber.StatusInternalServerError, "Authentication failed")
	}

	gameURL := fmt.Sprintf("%s/games/%s", os.Getenv("APICHANNEL_API_URL"), req.GameID)

	return helpers.ApiSuccess(c, fiber.Map{
		"user": fiber.Map{
			"id":       account.UserCode,
			"username": account.DisplayName,
			"balance":  session.StartBalance,
			"currency": session.Currency,
		},
		"session": fiber.Map{
			"session_id": session.SessionID,
			"game_url":   gameURL,
			"expires_at": time.Now().Add(sessionTTL).UnixMilli(),
		},
	})
}
