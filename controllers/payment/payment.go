package payment

import (
	"errors"

	"aurex/database"
	"aurex/helpers"
	"aurex/models"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type depositRequest struct {
	UserCode string          `json:"user_code"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Method   string          `json:"method"`
}

func Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.Method == "" {
		req.Method = "lava_top"
	}

	account, err := services.GetAccountByCode(database.DB, req.UserCode)
	if errors.Is(err, services.ErrAccountNotFound) {
		return helpers.JSONError(c, "USER_NOT_FOUND")
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_USER")
	}

	result, err := services.CreateDeposit(database.DB, account.ID, req.Amount, req.Currency, req.Method)
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		return helpers.JSONError(c, "AMOUNT_BELOW_MINIMUM")
	case errors.Is(err, services.ErrUnsupportedCurrency):
		return helpers.JSONError(c, "UNSUPPORTED_CURRENCY")
	case err != nil:
		return helpers.JSONError(c, "FAILED_TO_CREATE_DEPOSIT")
	}

	return helpers.JSONSuccess(c, "Deposit created", fiber.Map{
		"transaction_id": result.TxID,
		"order_id":       result.OrderID,
		"payment_url":    result.PaymentURL,
		"amount":         req.Amount,
		"currency":       req.Currency,
		"status":         "pending",
	})
}

type withdrawRequest struct {
	UserCode string          `json:"user_code"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Card     string          `json:"card"`
}

var minWithdrawalAmount = decimal.NewFromInt(500)

func Withdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.Amount.LessThan(minWithdrawalAmount) {
		return helpers.JSONError(c, "AMOUNT_BELOW_MINIMUM")
	}
	if len(req.Card) < 16 || len(req.Card) > 19 {
		return helpers.JSONError(c, "INVALID_CARD_NUMBER")
	}

	account, err := services.GetAccountByCode(database.DB, req.UserCode)
	if errors.Is(err, services.ErrAccountNotFound) {
		return helpers.JSONError(c, "USER_NOT_FOUND")
	} else if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_USER")
	}

	result, err := services.CreateWithdrawal(database.DB, account.ID, req.Amount, req.Currency, req.Card)
	switch {
	case errors.Is(err, services.ErrInsufficientFunds):
		return helpers.JSONError(c, "INSUFFICIENT_FUNDS")
	case errors.Is(err, services.ErrWithdrawalExceedsDepositCap):
		return helpers.JSONError(c, "WITHDRAWAL_EXCEEDS_DEPOSIT_CAP")
	case errors.Is(err, services.ErrUnsupportedCurrency):
		return helpers.JSONError(c, "UNSUPPORTED_CURRENCY")
	case err != nil:
		return helpers.JSONError(c, "FAILED_TO_CREATE_WITHDRAWAL")
	}

	return helpers.JSONSuccess(c, "Withdrawal created", fiber.Map{
		"transaction_id": result.TxID,
		"order_id":       result.OrderID,
		"amount":         req.Amount,
		"currency":       req.Currency,
		"status":         "pending",
	})
}

// Methods reports the supported processors with their limits and fees.
func Methods(c *fiber.Ctx) error {
	return helpers.JSONSuccess(c, "Payment methods fetched", fiber.Map{
		"deposit": fiber.Map{
			"lava_top": fiber.Map{
				"name":            "Lava Top",
				"currencies":      []string{"RUB", "USD", "EUR"},
				"min_amount":      fiber.Map{"RUB": 100, "USD": 2, "EUR": 2},
				"max_amount":      fiber.Map{"RUB": 500000, "USD": 7000, "EUR": 6000},
				"fee":             0,
				"processing_time": "1-5 minutes",
			},
		},
		"withdrawal": fiber.Map{
			"lava_top": fiber.Map{
				"name":            "Lava Top",
				"currencies":      []string{"RUB", "USD", "EUR"},
				"min_amount":      fiber.Map{"RUB": 500, "USD": 7, "EUR": 6},
				"max_amount":      fiber.Map{"RUB": 500000, "USD": 7000, "EUR": 6000},
				"fee":             fiber.Map{"RUB": 50, "USD": 1, "EUR": 1},
				"processing_time": "1-24 hours",
			},
		},
	})
}

type historyRequest struct {
	UserCode string `json:"user_code"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// History lists the user's deposit and withdrawal transactions.
func History(c *fiber.Ctx) error {
	var req historyRequest
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

	var rows []models.Transaction
	err = database.DB.Where("account_id = ? AND type IN ?", account.ID,
		[]string{models.TxTypeDeposit, models.TxTypeWithdrawal}).
		Order("created_at DESC").Limit(req.Limit).Offset(req.Offset).Find(&rows).Error
	if err != nil {
		return helpers.JSONError(c, "FAILED_TO_FETCH_HISTORY")
	}

	items := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		items = append(items, fiber.Map{
			"transaction_id": row.TxID,
			"type":           row.Type,
			"amount":         row.Amount,
			"currency":       row.Currency,
			"status":         row.Status,
			"method":         row.PaymentMethod,
			"created_at":     row.CreatedAt,
			"completed_at":   row.CompletedAt,
		})
	}

	return helpers.JSONSuccess(c, "Payment history fetched", fiber.Map{"payments": items})
}
