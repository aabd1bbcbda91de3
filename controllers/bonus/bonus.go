package bonus

import (
	"errors"
	"time"

	"aurex/database"
	"aurex/helpers"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
)

// catalogueOrder fixes the presentation order of the bonus list.
var catalogueOrder = []string{
	"first-deposit", "second-deposit", "third-deposit", "fourth-deposit",
	"reload-weekend", "reload-monday", "high-roller", "vip-birthday",
	"crypto-first",
}

type bonusRequest struct {
	UserCode string `json:"user_code"`
	BonusID  string `json:"bonus_id"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// List returns the full catalogue with per-bonus availability for the user.
func List(c *fiber.Ctx) error {
	var req bonusRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	account, err := services.GetAccountByCode(database.DB, req.UserCode)
	if errors.Is(err, services.ErrAccountNotFound) {
		return helpers.JSONError(c, "USER_NOT_FOUND")
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_USER")
	}

	now := time.Now()
	items := make([]fiber.Map, 0, len(catalogueOrder))
	for _, id := range catalogueOrder {
		cfg := services.BonusCatalogue[id]
		item := fiber.Map{
			"id":          cfg.ID,
			"type":        cfg.Type,
			"name":        cfg.Name,
			"description": cfg.Description,
			"percent":     cfg.Percent,
			"min_deposit": cfg.MinDeposit,
			"wagering":    cfg.Wagering,
			"valid_days":  cfg.ValidDays,
			"freespins":   cfg.Freespins,
		}
		if cfg.MaxBonus != nil {
			item["max_bonus"] = *cfg.MaxBonus
		}

		if err := services.CheckEligibility(database.DB, account, id, now); err != nil {
			var ne *services.NotEligibleError
			item["available"] = false
			if errors.As(err, &ne) {
				item["reason"] = ne.Reason
			}
		} else {
			item["available"] = true
		}
		items = append(items, item)
	}

	return helpers.JSONSuccess(c, "Bonuses fetched", fiber.Map{"bonuses": items})
}

// Active returns the user's current activation, if any.
func Active(c *fiber.Ctx) error {
	var req bonusRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	account, err := services.GetAccountByCode(database.DB, req.UserCode)
	if errors.Is(err, services.ErrAccountNotFound) {
		return helpers.JSONError(c, "USER_NOT_FOUND")
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_USER")
	}

	activation, err := services.ActiveActivation(database.DB, account.ID, time.Now())
	if errors.Is(err, services.ErrBonusNotFound) {
		return helpers.JSONSuccess(c, "No active bonus", nil)
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_BONUS")
	}

	return helpers.JSONSuccess(c, "Active bonus fetched", fiber.Map{
		"bonus_id":     activation.BonusID,
		"activated_at": activation.ActivatedAt,
		"expires_at":   activation.ExpiresAt,
	})
}

// Activate claims a bonus ahead of the qualifying deposit.
func Activate(c *fiber.Ctx) error {
	var req bonusRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	account, err := services.GetAccountByCode(database.DB, req.UserCode)
	if errors.Is(err, services.ErrAccountNotFound) {
		return helpers.JSONError(c, "USER_NOT_FOUND")
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_USER")
	}

	activation, err := services.ActivateBonus(database.DB, account, req.BonusID, time.Now())
	if err != nil {
		var ne *services.NotEligibleError
		switch {
		case errors.As(err, &ne):
			return helpers.JSONError(c, "NOT_ELIGIBLE: "+ne.Reason)
		case errors.Is(err, services.ErrBonusNotFound):
			return helpers.JSONError(c, "BONUS_NOT_FOUND")
		default:
			return helpers.JSONError(c, "FAILED_TO_ACTIVATE_BONUS")
		}
	}

	return helpers.JSONSuccess(c, "Bonus activated", fiber.Map{
		"bonus_id":   activation.BonusID,
		"expires_at": activation.ExpiresAt,
	})
}

// Deactivate drops an unused active bonus.
func Deactivate(c *fiber.Ctx) error {
	var req bonusRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	account, err := services.GetAccountByCode(database.DB, req.UserCode)
	if errors.Is(err, services.ErrAccountNotFound) {
		return helpers.JSONError(c, "USER_NOT_FOUND")
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_USER")
	}

	if err := services.DeactivateBonus(database.DB, account.ID, req.BonusID); err != nil {
		if errors.Is(err, services.ErrBonusNotFound) {
			return helpers.JSONError(c, "NO_ACTIVE_BONUS")
		}
		return helpers.JSONError(c, "FAILED_TO_DEACTIVATE_BONUS")
	}

	return helpers.JSONSuccess(c, "Bonus deactivated", nil)
}

// History lists the user's past activations.
func History(c *fiber.Ctx) error {
	var req bonusRequest
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

	activations, err := services.BonusHistory(database.DB, account.ID, req.Limit, req.Offset)
	if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_HISTORY")
	}

	items := make([]fiber.Map, 0, len(activations))
	for _, a := range activations {
		items = append(items, fiber.Map{
			"bonus_id":       a.BonusID,
			"status":         a.Status,
			"activated_at":   a.ActivatedAt,
			"expires_at":     a.ExpiresAt,
			"deposit_amount": a.DepositAmount,
			"bonus_amount":   a.BonusAmount,
			"wager_required": a.WagerRequired,
			"used_at":        a.UsedAt,
		})
	}

	return helpers.JSONSuccess(c, "Bonus history fetched", fiber.Map{"history": items})
}
