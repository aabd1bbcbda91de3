package user

import (
	"errors"

	"aurex/database"
	"aurex/helpers"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
)

type BalanceRequest struct {
	UserCode string `json:"user_code"`
}

func CheckBalance(c *fiber.Ctx) error {
	var req BalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	account, err := services.GetAccountByCode(database.DB, req.UserCode)
	if errors.Is(err, services.ErrAccountNotFound) {
		return helpers.JSONError(c, "USER_NOT_FOUND")
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_USER")
	}

	balances, err := services.AllBalances(database.DB, account.ID)
	if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_BALANCES")
	}

	return helpers.JSONSuccess(c, "Balance fetched", fiber.Map{
		"user_code":     account.UserCode,
		"currency":      account.Currency,
		"balances":      balances,
		"bonus_balance": account.BonusBalance,
		"wager": fiber.Map{
			"active":     account.WagerActive,
			"required":   account.WagerRequired,
			"completed":  account.WagerCompleted,
			"expires_at": account.WagerExpiresAt,
		},
		"vip_level": account.VipLevel,
	})
}
