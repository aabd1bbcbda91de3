package apichannel

import (
	"errors"

	"aurex/database"
	"aurex/helpers"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type walletRequest struct {
	UserID      string          `json:"user_id"`
	SessionID   string          `json:"session_id"`
	Amount      decimal.Decimal `json:"amount"`
	BetID       string          `json:"bet_id"`
	WinID       string          `json:"win_id"`
	GameRoundID string          `json:"game_round_id"`
}

// GetBalance answers a balance poll for an active session.
func GetBalance(c *fiber.Ctx) error {
	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.ApiError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	balance, currency, err := services.GetSessionBalance(database.DB, req.SessionID)
	if errors.Is(err, services.ErrSessionNotFound) {
		return helpers.ApiError(c, fiber.StatusNotFound, "Session not found")
	} else if err != nil {
		return helpers.ApiError(c, fiber.StatusInternalServerError, "Failed to get balance")
	}

	return helpers.ApiSuccess(c, fiber.Map{
		"balance":  balance,
		"currency": currency,
	})
}

// MakeBet debits a spin; duplicate bet_ids are answered with the original
// balance.
func MakeBet(c *fiber.Ctx) error {
	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.ApiError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	result, err := services.ProcessBet(database.DB, req.SessionID, req.Amount, req.GameRoundID, req.BetID)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return helpers.ApiError(c, fiber.StatusNotFound, "Session not found")
	case errors.Is(err, services.ErrInsufficientFunds):
		balance, currency, berr := services.GetSessionBalance(database.DB, req.SessionID)
		if berr != nil {
			return helpers.ApiError(c, fiber.StatusBadRequest, "Insufficient balance")
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":  false,
			"error":    "Insufficient balance",
			"balance":  balance,
			"currency": currency,
		})
	case errors.Is(err, services.ErrInvalidAmount):
		return helpers.ApiError(c, fiber.StatusBadRequest, "Invalid amount")
	case err != nil:
		return helpers.ApiError(c, fiber.StatusInternalServerError, "Failed to process bet")
	}

	return helpers.ApiSuccess(c, fiber.Map{
		"balance":        result.Balance,
		"currency":       result.Currency,
		"transaction_id": result.TxID,
	})
}

// Win credits a game win; idempotent on win_id.
func Win(c *fiber.Ctx) error {
	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.ApiError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	result, err := services.ProcessWin(database.DB, req.SessionID, req.Amount, req.GameRoundID, req.WinID)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return helpers.ApiError(c, fiber.StatusNotFound, "Session not found")
	case errors.Is(err, services.ErrInvalidAmount):
		return helpers.ApiError(c, fiber.StatusBadRequest, "Invalid amount")
	case err != nil:
		return helpers.ApiError(c, fiber.StatusInternalServerError, "Failed to process win")
	}

	return helpers.ApiSuccess(c, fiber.Map{
		"balance":        result.Balance,
		"currency":       result.Currency,
		"transaction_id": result.TxID,
	})
}

// CancelBet reverses a previously debited bet.
func CancelBet(c *fiber.Ctx) error {
	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.ApiError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	result, err := services.ProcessCancelBet(database.DB, req.SessionID, req.BetID)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return helpers.ApiError(c, fiber.StatusNotFound, "Session not found")
	case errors.Is(err, services.ErrTransactionNotFound):
		return helpers.ApiError(c, fiber.StatusNotFound, "Bet not found")
	case errors.Is(err, services.ErrAlreadyReversed):
		return helpers.ApiError(c, fiber.StatusBadRequest, "Bet already cancelled")
	case err != nil:
		return helpers.ApiError(c, fiber.StatusInternalServerError, "Failed to cancel bet")
	}

	return helpers.ApiSuccess(c, fiber.Map{
		"balance":        result.Balance,
		"currency":       result.Currency,
		"transaction_id": result.TxID,
	})
}

// GameEnd closes the session explicitly.
func GameEnd(c *fiber.Ctx) error {
	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.ApiError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	if err := services.EndSession(database.DB, req.SessionID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return helpers.ApiError(c, fiber.StatusNotFound, "Session not found")
		}
		return helpers.ApiError(c, fiber.StatusInternalServerError, "Failed to end session")
	}

	return helpers.ApiSuccess(c, fiber.Map{
		"message": "Game session ended",
	})
}
