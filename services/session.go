package services

import (
	"errors"
	"fmt"
	"time"

	"aurex/models"
	"aurex/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const demoUserCode = "aurex_demo_001"

// CallbackResult is the outcome of one provider callback against a session.
// Replayed marks an idempotent duplicate answered with the original balance.
type CallbackResult struct {
	Balance  decimal.Decimal
	Currency string
	TxID     string
	Replayed bool
}

func betRef(sessionID, betID string) string {
	return fmt.Sprintf("bet:%s:%s", sessionID, betID)
}

func winRef(sessionID, winID string) string {
	return fmt.Sprintf("win:%s:%s", sessionID, winID)
}

func cancelRef(sessionID, betID string) string {
	return fmt.Sprintf("cancel:%s:%s", sessionID, betID)
}

func activeSession(db *gorm.DB, sessionID string) (*models.GameSession, error) {
	var session models.GameSession
	err := db.Where("session_id = ? AND status = ?", sessionID, models.SessionStatusActive).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetSessionBalance answers a balance poll against an active session.
func GetSessionBalance(db *gorm.DB, sessionID string) (decimal.Decimal, string, error) {
	session, err := activeSession(db, sessionID)
	if err != nil {
		return decimal.Zero, "", err
	}
	balance, err := GetRealBalance(db, session.AccountID, session.Currency)
	if err != nil {
		return decimal.Zero, "", err
	}
	return balance, session.Currency, nil
}

// AuthenticateSession resolves the player (falling back to the sandboxed
// demo account when no real identity is supplied) and opens a session with
// the current real balance as its starting point.
func AuthenticateSession(db *gorm.DB, userCode, gameCode, currency string) (*models.GameSession, *models.Account, error) {
	if !models.IsSupportedCurrency(currency) {
		return nil, nil, ErrUnsupportedCurrency
	}

	var account *models.Account
	var err error
	if userCode == "" || userCode == "demo" {
		account, err = demoAccount(db, currency)
	} else {
		account, err = GetAccountByCode(db, userCode)
	}
	if err != nil {
		return nil, nil, err
	}
	if !account.IsActive {
		return nil, nil, ErrAccountNotFound
	}

	balance, err := GetRealBalance(db, account.ID, currency)
	if err != nil {
		return nil, nil, err
	}

	session := models.GameSession{
		AccountID:      account.ID,
		UserCode:       account.UserCode,
		GameCode:       gameCode,
		Currency:       currency,
		StartBalance:   balance,
		CurrentBalance: balance,
		Status:         models.SessionStatusActive,
		LastActivityAt: time.Now(),
	}
	if err := db.Create(&session).Error; err != nil {
		return nil, nil, err
	}

	logger.Info("game session opened",
		"session_id", session.SessionID, "user_code", account.UserCode,
		"game_code", gameCode, "balance", balance.String())
	return &session, account, nil
}

func demoAccount(db *gorm.DB, currency string) (*models.Account, error) {
	account, err := GetAccountByCode(db, demoUserCode)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	demo := models.Account{
		UserCode:     demoUserCode,
		DisplayName:  "Demo Player",
		Currency:     currency,
		ReferralCode: "DEMO01",
		IsActive:     true,
		IsDemo:       true,
	}
	if err := db.Create(&demo).Error; err != nil {
		return nil, err
	}
	if err := InitBalances(db, demo.ID); err != nil {
		return nil, err
	}
	if err := db.Model(&models.AccountBalance{}).
		Where("account_id = ? AND currency = ?", demo.ID, currency).
		Update("amount", decimal.NewFromInt(10000)).Error; err != nil {
		return nil, err
	}
	return &demo, nil
}

// ProcessBet applies one bet callback: affordability-checked debit, ledger
// row, session counters, wagering accrual. Duplicate (session, bet) ids are
// answered with the originally computed balance and never debited twice.
// All mutations happen inside one locked transaction.
func ProcessBet(db *gorm.DB, sessionID string, amount decimal.Decimal, roundID, betID string) (*CallbackResult, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	session, err := activeSession(db, sessionID)
	if err != nil {
		return nil, err
	}

	var result *CallbackResult
	err = withLockedAccount(db, session.AccountID, func(tx *gorm.DB, account *models.Account) error {
		// Check-then-act under the lock; the unique ref index backstops it.
		if prior, err := FindByExternalRef(tx, betRef(sessionID, betID)); err == nil {
			result = &CallbackResult{
				Balance: prior.BalanceAfter, Currency: prior.Currency,
				TxID: prior.TxID, Replayed: true,
			}
			return nil
		} else if !errors.Is(err, ErrTransactionNotFound) {
			return err
		}

		before, err := GetRealBalance(tx, account.ID, session.Currency)
		if err != nil {
			return err
		}
		after, err := applyRealDelta(tx, account, session.Currency, amount.Neg(), true)
		if err != nil {
			return err
		}

		row, err := recordTransaction(tx, txParams{
			Account:       account,
			SessionID:     sessionID,
			Type:          models.TxTypeBet,
			Amount:        amount.Neg(),
			Currency:      session.Currency,
			BalanceBefore: before,
			BalanceAfter:  after,
			Status:        models.TxStatusCompleted,
			ExternalRef:   betRef(sessionID, betID),
			RoundID:       roundID,
			GameCode:      session.GameCode,
		})
		if err != nil {
			return err
		}

		account.GamesPlayed++
		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
			Update("games_played", account.GamesPlayed).Error; err != nil {
			return err
		}
		if err := recordWagered(tx, account, amount); err != nil {
			return err
		}

		if err := tx.Model(&models.GameSession{}).Where("id = ?", session.ID).Updates(map[string]interface{}{
			"total_bet":        gorm.Expr("total_bet + ?", amount),
			"spins_count":      gorm.Expr("spins_count + 1"),
			"current_balance":  after,
			"last_activity_at": time.Now(),
		}).Error; err != nil {
			return err
		}

		result = &CallbackResult{Balance: after, Currency: session.Currency, TxID: row.TxID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessWin credits a win unconditionally once the session is validated;
// idempotent on (session, win) id.
func ProcessWin(db *gorm.DB, sessionID string, amount decimal.Decimal, roundID, winID string) (*CallbackResult, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	session, err := activeSession(db, sessionID)
	if err != nil {
		return nil, err
	}

	var result *CallbackResult
	err = withLockedAccount(db, session.AccountID, func(tx *gorm.DB, account *models.Account) error {
		if prior, err := FindByExternalRef(tx, winRef(sessionID, winID)); err == nil {
			result = &CallbackResult{
				Balance: prior.BalanceAfter, Currency: prior.Currency,
				TxID: prior.TxID, Replayed: true,
			}
			return nil
		} else if !errors.Is(err, ErrTransactionNotFound) {
			return err
		}

		before, err := GetRealBalance(tx, account.ID, session.Currency)
		if err != nil {
			return err
		}
		after, err := applyRealDelta(tx, account, session.Currency, amount, false)
		if err != nil {
			return err
		}

		row, err := recordTransaction(tx, txParams{
			Account:       account,
			SessionID:     sessionID,
			Type:          models.TxTypeWin,
			Amount:        amount,
			Currency:      session.Currency,
			BalanceBefore: before,
			BalanceAfter:  after,
			Status:        models.TxStatusCompleted,
			ExternalRef:   winRef(sessionID, winID),
			RoundID:       roundID,
			GameCode:      session.GameCode,
		})
		if err != nil {
			return err
		}

		if err := tx.Model(&models.GameSession{}).Where("id = ?", session.ID).Updates(map[string]interface{}{
			"total_win":        gorm.Expr("total_win + ?", amount),
			"current_balance":  after,
			"last_activity_at": time.Now(),
		}).Error; err != nil {
			return err
		}

		result = &CallbackResult{Balance: after, Currency: session.Currency, TxID: row.TxID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessCancelBet reverses a previously debited bet when the provider
// cancels the round. The original bet row must exist and must not have been
// reversed already; the credit is appended as a refund row, restoring the
// pre-bet balance exactly.
func ProcessCancelBet(db *gorm.DB, sessionID, betID string) (*CallbackResult, error) {
	session, err := activeSession(db, sessionID)
	if err != nil {
		return nil, err
	}

	var result *CallbackResult
	err = withLockedAccount(db, session.AccountID, func(tx *gorm.DB, account *models.Account) error {
		betTx, err := FindByExternalRef(tx, betRef(sessionID, betID))
		if err != nil {
			return err
		}

		if _, err := FindByExternalRef(tx, cancelRef(sessionID, betID)); err == nil {
			return ErrAlreadyReversed
		} else if !errors.Is(err, ErrTransactionNotFound) {
			return err
		}

		refund := betTx.Amount.Neg() // bet amounts are negative
		before, err := GetRealBalance(tx, account.ID, betTx.Currency)
		if err != nil {
			return err
		}
		after, err := applyRealDelta(tx, account, betTx.Currency, refund, false)
		if err != nil {
			return err
		}

		row, err := recordTransaction(tx, txParams{
			Account:       account,
			SessionID:     sessionID,
			Type:          models.TxTypeRefund,
			Amount:        refund,
			Currency:      betTx.Currency,
			BalanceBefore: before,
			BalanceAfter:  after,
			Status:        models.TxStatusCompleted,
			ExternalRef:   cancelRef(sessionID, betID),
			RoundID:       betTx.RoundID,
			GameCode:      session.GameCode,
			Description:   "Cancelled bet " + betID,
		})
		if err != nil {
			return err
		}

		if err := tx.Model(&models.GameSession{}).Where("id = ?", session.ID).Updates(map[string]interface{}{
			"current_balance":  after,
			"last_activity_at": time.Now(),
		}).Error; err != nil {
			return err
		}

		result = &CallbackResult{Balance: after, Currency: betTx.Currency, TxID: row.TxID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EndSession closes a session explicitly, freezing its final balance at
// start + (win - bet), and accrues VIP cashback when the session ended at a
// net loss.
func EndSession(db *gorm.DB, sessionID string) error {
	session, err := activeSession(db, sessionID)
	if err != nil {
		return err
	}

	final := session.StartBalance.Add(session.TotalWin.Sub(session.TotalBet))
	if err := db.Model(&models.GameSession{}).Where("id = ?", session.ID).Updates(map[string]interface{}{
		"status":          models.SessionStatusCompleted,
		"current_balance": final,
	}).Error; err != nil {
		return err
	}

	loss := session.TotalBet.Sub(session.TotalWin)
	if loss.IsPositive() {
		account, err := GetAccount(db, session.AccountID)
		if err != nil {
			return err
		}
		if !account.IsDemo {
			if err := AccrueCashback(db, account, loss, "session"); err != nil {
				logger.Error("cashback accrual failed", "session_id", sessionID, "error", err)
			}
		}
	}

	logger.Info("game session completed",
		"session_id", sessionID, "total_bet", session.TotalBet.String(),
		"total_win", session.TotalWin.String())
	return nil
}

// TerminateIdleSessions force-closes sessions with no provider activity
// inside the idle window. Terminated sessions are never reopened.
func TerminateIdleSessions(db *gorm.DB, idleWindow time.Duration) (int64, error) {
	cutoff := time.Now().Add(-idleWindow)
	result := db.Model(&models.GameSession{}).
		Where("status = ? AND last_activity_at < ?", models.SessionStatusActive, cutoff).
		Update("status", models.SessionStatusTerminated)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		logger.Info("terminated idle game sessions", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
