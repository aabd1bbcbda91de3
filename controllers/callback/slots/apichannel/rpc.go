package apichannel

import (
	"errors"
	"os"

	"aurex/database"
	"aurex/helpers"
	"aurex/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// rpcRequest is the secondary integration path: one endpoint, the operation
// named in the api field, answered in the matching envelope.
type rpcRequest struct {
	Api           string          `json:"api"`
	UserID        string          `json:"user_id"`
	AuthToken     string          `json:"auth_token"`
	SessionID     string          `json:"session_id"`
	GameID        string          `json:"game_id"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
	GameRoundID   string          `json:"game_round_id"`
}

// Gateway dispatches the enveloped operations onto the same session gateway
// the flat endpoints use.
func Gateway(c *fiber.Ctx) error {
	var req rpcRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.EnvelopeError(c, "", 1, "invalid request body")
	}

	switch req.Api {
	case "do-auth-user-ingame":
		return rpcAuth(c, req)
	case "do-get-balance-user-ingame":
		return rpcBalance(c, req)
	case "do-debit-user-ingame":
		return rpcDebit(c, req)
	case "do-credit-user-ingame":
		return rpcCredit(c, req)
	default:
		return helpers.EnvelopeError(c, req.Api, 1, "unknown api")
	}
}

func operatorID() string {
	return os.Getenv("APICHANNEL_OPERATOR_ID")
}

func rpcAuth(c *fiber.Ctx, req rpcRequest) error {
	currency := req.Currency
	if currency == "" {
		currency = "RUB"
	}

	userCode := req.UserID
	if req.AuthToken == "demo" {
		userCode = "demo"
	}

	session, account, err := services.AuthenticateSession(database.DB, userCode, req.GameID, currency)
	if err != nil {
		return helpers.EnvelopeError(c, req.Api, 1, "authentication failed")
	}

	return helpers.EnvelopeSuccess(c, req.Api, fiber.Map{
		"operator_id":   operatorID(),
		"user_id":       account.UserCode,
		"user_nickname": account.DisplayName,
		"session_id":    session.SessionID,
		"balance":       session.StartBalance,
		"bonus_balance": account.BonusBalance,
		"auth_token":    req.AuthToken,
		"currency":      session.Currency,
	})
}

func rpcBalance(c *fiber.Ctx, req rpcRequest) error {
	balance, currency, err := services.GetSessionBalance(database.DB, req.SessionID)
	if err != nil {
		return helpers.EnvelopeError(c, req.Api, 1, "session not found")
	}

	return helpers.EnvelopeSuccess(c, req.Api, fiber.Map{
		"operator_id": operatorID(),
		"user_id":     req.UserID,
		"balance":     balance,
		"currency":    currency,
	})
}

func rpcDebit(c *fiber.Ctx, req rpcRequest) error {
	result, err := services.ProcessBet(database.DB, req.SessionID, req.Amount, req.GameRoundID, req.TransactionID)
	if err != nil {
		code := 2
		if errors.Is(err, services.ErrSessionNotFound) {
			code = 1
		}
		return helpers.EnvelopeError(c, req.Api, code, err.Error())
	}

	return helpers.EnvelopeSuccess(c, req.Api, fiber.Map{
		"operator_id":    operatorID(),
		"transaction_id": req.TransactionID,
		"user_id":        req.UserID,
		"balance":        result.Balance,
		"currency":       result.Currency,
	})
}

func rpcCredit(c *fiber.Ctx, req rpcRequest) error {
	result, err := services.ProcessWin(database.DB, req.SessionID, req.Amount, req.GameRoundID, req.TransactionID)
	if err != nil {
		code := 2
		if errors.Is(err, services.ErrSessionNotFound) {
			code = 1
		}
		return helpers.EnvelopeError(c, req.Api, code, err.Error())
	}

	return helpers.EnvelopeSuccess(c, req.Api, fiber.Map{
		"operator_id":    operatorID(),
		"transaction_id": req.TransactionID,
		"user_id":        req.UserID,
		"balance":        result.Balance,
		"currency":       result.Currency,
	})
}
