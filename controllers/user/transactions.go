package user

import (
	"errors"

	"aurex/database"
	"aurex/helpers"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
)

type TransactionsRequest struct {
	UserCode string `json:"user_code"`
	Type     string `json:"type"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

func ListTransactions(c *fiber.Ctx) error {
	var req TransactionsRequest
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

	rows, err := services.AccountTransactions(database.DB, account.ID, req.Type, req.Limit, req.Offset)
	if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_TRANSACTIONS")
	}

	items := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		items = append(items, fiber.Map{
			"tx_id":          row.TxID,
			"type":           row.Type,
			"amount":         row.Amount,
			"currency":       row.Currency,
			"balance_after":  row.BalanceAfter,
			"status":         row.Status,
			"description":    row.Description,
			"payment_method": row.PaymentMethod,
			"created_at":     row.CreatedAt,
		})
	}

	return helpers.JSONSuccess(c, "Transactions fetched", fiber.Map{
		"transactions": items,
		"count":        len(items),
	})
}
