package cashback

import (
	"errors"

	"aurex/database"
	"aurex/helpers"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
)

type cashbackRequest struct {
	UserCode string `json:"user_code"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// Available returns the pending cashback records and their total.
func Available(c *fiber.Ctx) error {
	var req cashbackRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	account, err := services.GetAccountByCode(database.DB, req.UserCode)
	if errors.Is(err, services.ErrAccountNotFound) {
		return helpers.JSONError(c, "USER_NOT_FOUND")
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_USER")
	}

	records, total, err := services.PendingCashback(database.DB, account.ID)
	if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_CASHBACK")
	}

	items := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		items = append(items, fiber.Map{
			"amount":         r.Amount,
			"period":         r.Period,
			"wager_required": r.WagerRequired,
			"created_at":     r.CreatedAt,
		})
	}

	return helpers.JSONSuccess(c, "Cashback fetched", fiber.Map{
		"total":   total,
		"percent": services.CashbackPercentForVip(account.VipLevel),
		"records": items,
	})
}

// Claim moves all pending cashback onto the bonus balance.
func Claim(c *fiber.Ctx) error {
	var req cashbackRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	account, err := services.GetAccountByCode(database.DB, req.UserCode)
	if errors.Is(err, services.ErrAccountNotFound) {
		return helpers.JSONError(c, "USER_NOT_FOUND")
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_USER")
	}

	claimed, wagerAdded, err := services.ClaimCashback(database.DB, account.ID)
	if err != nil {
		if errors.Is(err, services.ErrBonusNotFound) {
			return helpers.JSONError(c, "NO_PENDING_CASHBACK")
		}
		return helpers.JSONError(c, "FAILED_TO_CLAIM_CASHBACK")
	}

	return helpers.JSONSuccess(c, "Cashback claimed", fiber.Map{
		"claimed":     claimed,
		"wager_added": wagerAdded,
	})
}

// History lists past cashback records.
func History(c *fiber.Ctx) error {
	var req cashbackRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 50
	}

	account, err := services.GetAccountByCode(database.DB, req.UserCode)
	if errors.Is(err, services.ErrAccountNotFound) {
		return helpers.JSONError(c, "USER_NOT_FOUND")
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_USER")
	}

	records, err := services.CashbackHistory(database.DB, account.ID, req.Limit, req.Offset)
	if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_HISTORY")
	}

	items := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		items = append(items, fiber.Map{
			"amount":     r.Amount,
			"period":     r.Period,
			"status":     r.Status,
			"claimed_at": r.ClaimedAt,
			"created_at": r.CreatedAt,
		})
	}

	return helpers.JSONSuccess(c, "Cashback history fetched", fiber.Map{"history": items})
}
