package user

import (
	"errors"
	"strings"

	"aurex/database"
	"aurex/helpers"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	UserCode       string `json:"user_code"`
	DisplayName    string `json:"display_name"`
	OperatorUserID string `json:"operator_user_id"`
	Currency       string `json:"currency"`
	ReferralCode   string `json:"referral_code"`
}

func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	req.UserCode = strings.TrimSpace(req.UserCode)
	if req.UserCode == "" {
		return helpers.JSONError(c, "USER_CODE_REQUIRED")
	}

	account, err := services.RegisterAccount(database.DB, services.RegisterParams{
		UserCode:       req.UserCode,
		DisplayName:    req.DisplayName,
		OperatorUserID: req.OperatorUserID,
		Currency:       req.Currency,
		ReferralCode:   req.ReferralCode,
	})
	switch {
	case errors.Is(err, services.ErrAccountExists):
		return helpers.JSONError(c, "USER_ALREADY_EXISTS")
	case errors.Is(err, services.ErrUnsupportedCurrency):
		return helpers.JSONError(c, "UNSUPPORTED_CURRENCY")
	case err != nil:
		return helpers.JSONError(c, "FAILED_TO_REGISTER_USER")
	}

	return helpers.JSONSuccess(c, "User registered successfully", fiber.Map{
		"user_code":     account.UserCode,
		"currency":      account.Currency,
		"referral_code": account.ReferralCode,
		"bonus_balance": account.BonusBalance,
	})
}
