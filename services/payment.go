package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aurex/helpers"
	"aurex/models"
	"aurex/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentProcessor is the outbound side of the payment integration.
// Calls are slow network I/O and must never run under an account lock.
type PaymentProcessor interface {
	CreateInvoice(orderID string, amount decimal.Decimal, currency string) (invoiceID, payURL string, err error)
	CreatePayout(orderID string, amount decimal.Decimal, currency, destination string) (payoutID string, err error)
	InvoiceStatus(orderID string) (status string, err error)
}

// Processor is wired at startup; tests substitute a fake.
var Processor PaymentProcessor

var minDepositAmount = decimal.NewFromInt(100)

type DepositResult struct {
	TxID       string
	OrderID    string
	PaymentURL string
}

type WithdrawalResult struct {
	TxID    string
	OrderID string
}

func setTxMetadata(db *gorm.DB, row *models.Transaction, meta map[string]string) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return db.Model(&models.Transaction{}).Where("id = ?", row.ID).
		Update("metadata", datatypes.JSON(raw)).Error
}

// CreateDeposit opens a pending deposit and requests an external invoice.
// The invoice call happens after the ledger row exists and outside any
// account lock; if it fails the row is marked failed and nothing was
// credited yet.
func CreateDeposit(db *gorm.DB, accountID uint, amount decimal.Decimal, currency, paymentMethod string) (*DepositResult, error) {
	if !models.IsSupportedCurrency(currency) {
		return nil, ErrUnsupportedCurrency
	}
	if amount.LessThan(minDepositAmount) {
		return nil, ErrInvalidAmount
	}

	account, err := GetAccount(db, accountID)
	if err != nil {
		return nil, err
	}

	orderID := fmt.Sprintf("DEP_%d_%s", time.Now().UnixMilli(), account.UserCode)
	balance, err := GetRealBalance(db, account.ID, currency)
	if err != nil {
		return nil, err
	}

	var row *models.Transaction
	err = db.Transaction(func(tx *gorm.DB) error {
		row, err = recordTransaction(tx, txParams{
			Account:       account,
			Type:          models.TxTypeDeposit,
			Amount:        amount,
			Currency:      currency,
			BalanceBefore: balance,
			BalanceAfter:  balance.Add(amount),
			Status:        models.TxStatusPending,
			ExternalRef:   orderID,
			PaymentMethod: paymentMethod,
			Description:   fmt.Sprintf("Deposit %s %s", amount.String(), currency),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	invoiceID, payURL, err := Processor.CreateInvoice(orderID, amount, currency)
	if err != nil {
		if ferr := failTransaction(db, row, "Invoice creation failed"); ferr != nil {
			logger.Error("failed to mark deposit failed", "order_id", orderID, "error", ferr)
		}
		return nil, err
	}
	if err := setTxMetadata(db, row, map[string]string{
		"invoiceId":  invoiceID,
		"invoiceUrl": payURL,
	}); err != nil {
		logger.Error("failed to store invoice metadata", "order_id", orderID, "error", err)
	}

	return &DepositResult{TxID: row.TxID, OrderID: orderID, PaymentURL: payURL}, nil
}

// HandleDepositCallback applies a processor webhook for a deposit. The
// signature is verified before anything is trusted; callbacks for already
// terminal transactions are no-ops so retries are safe.
func HandleDepositCallback(db *gorm.DB, payload map[string]string, signature, secret string) error {
	if !helpers.VerifySignature(payload, signature, secret) {
		logger.Warn("rejected payment callback with bad signature",
			"security", true, "order_id", payload["orderId"])
		return ErrInvalidSignature
	}

	orderID := payload["orderId"]
	row, err := FindByExternalRef(db, orderID)
	if err != nil {
		return err
	}
	if row.IsTerminal() {
		logger.Info("deposit callback replayed on terminal transaction",
			"order_id", orderID, "status", row.Status)
		return nil
	}

	switch payload["status"] {
	case "success":
		return settleDeposit(db, row)
	case "failed":
		return db.Transaction(func(tx *gorm.DB) error {
			return failTransaction(tx, row, "Payment failed")
		})
	default:
		logger.Warn("deposit callback with unknown status",
			"order_id", orderID, "status", payload["status"])
		return nil
	}
}

// settleDeposit credits the depositor, applies any active bonus, and pays
// referral commission. The credit and bonus run under the depositor's lock;
// the commission takes the referrer's lock afterwards, never both at once.
func settleDeposit(db *gorm.DB, row *models.Transaction) error {
	var referredBy *uint
	var amount decimal.Decimal
	var currency string

	err := withLockedAccount(db, row.AccountID, func(tx *gorm.DB, account *models.Account) error {
		// Re-check under the lock; a concurrent retry may have won.
		fresh, err := FindByTxID(tx, row.TxID)
		if err != nil {
			return err
		}
		if fresh.IsTerminal() {
			return nil
		}

		amount = fresh.Amount
		currency = fresh.Currency

		before, err := GetRealBalance(tx, account.ID, currency)
		if err != nil {
			return err
		}
		after, err := applyRealDelta(tx, account, currency, amount, false)
		if err != nil {
			return err
		}
		if err := completeTransaction(tx, fresh, before, after); err != nil {
			return err
		}

		accountUpdates := map[string]interface{}{
			"total_deposited": account.TotalDeposited.Add(amount),
		}

		bonusApplied := false
		if activation, err := ActiveActivation(tx, account.ID, time.Now()); err == nil {
			_, _, applyErr := ApplyToDeposit(tx, account, activation, amount, fresh.PaymentMethod)
			switch {
			case applyErr == nil:
				bonusApplied = true // ApplyToDeposit already bumped deposit_count
			case errors.Is(applyErr, ErrBelowMinimumDeposit), errors.Is(applyErr, ErrCryptoOnlyBonus):
				logger.Info("active bonus not applicable to deposit",
					"user_code", account.UserCode, "reason", applyErr.Error())
			default:
				return applyErr
			}
		} else if !errors.Is(err, ErrBonusNotFound) {
			return err
		}
		if !bonusApplied {
			accountUpdates["deposit_count"] = gorm.Expr("deposit_count + 1")
		}

		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
			Updates(accountUpdates).Error; err != nil {
			return err
		}

		referredBy = account.ReferredBy
		logger.Info("deposit completed",
			"user_code", account.UserCode, "amount", amount.String(), "currency", currency)
		return nil
	})
	if err != nil {
		return err
	}

	if referredBy != nil {
		CreditReferralCommission(db, *referredBy, amount, currency)
	}
	return nil
}

// CreateWithdrawal debits the account immediately (funds held pending
// processor confirmation) and requests the payout. A payout-creation
// failure triggers an atomic compensating credit before the error
// surfaces.
func CreateWithdrawal(db *gorm.DB, accountID uint, amount decimal.Decimal, currency, destination string) (*WithdrawalResult, error) {
	if !models.IsSupportedCurrency(currency) {
		return nil, ErrUnsupportedCurrency
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var row *models.Transaction
	var orderID string
	err := withLockedAccount(db, accountID, func(tx *gorm.DB, account *models.Account) error {
		deposited, err := CompletedDepositTotal(tx, account.ID, currency)
		if err != nil {
			return err
		}
		if amount.GreaterThan(deposited.Mul(decimal.NewFromInt(2))) {
			return ErrWithdrawalExceedsDepositCap
		}

		before, err := GetRealBalance(tx, account.ID, currency)
		if err != nil {
			return err
		}
		after, err := applyRealDelta(tx, account, currency, amount.Neg(), true)
		if err != nil {
			return err
		}

		orderID = fmt.Sprintf("WDR_%d_%s", time.Now().UnixMilli(), account.UserCode)
		row, err = recordTransaction(tx, txParams{
			Account:       account,
			Type:          models.TxTypeWithdrawal,
			Amount:        amount.Neg(),
			Currency:      currency,
			BalanceBefore: before,
			BalanceAfter:  after,
			Status:        models.TxStatusPending,
			ExternalRef:   orderID,
			Description:   fmt.Sprintf("Withdrawal %s %s", amount.String(), currency),
		})
		if err != nil {
			return err
		}

		return tx.Model(&models.Account{}).Where("id = ?", account.ID).
			Update("total_withdrawn", account.TotalWithdrawn.Add(amount)).Error
	})
	if err != nil {
		return nil, err
	}

	payoutID, err := Processor.CreatePayout(orderID, amount, currency, destination)
	if err != nil {
		if rbErr := rollbackWithdrawal(db, row, "Payout creation failed"); rbErr != nil {
			logger.Error("withdrawal rollback failed", "order_id", orderID, "error", rbErr)
		}
		return nil, err
	}
	if err := setTxMetadata(db, row, map[string]string{"payoutId": payoutID}); err != nil {
		logger.Error("failed to store payout metadata", "order_id", orderID, "error", err)
	}

	return &WithdrawalResult{TxID: row.TxID, OrderID: orderID}, nil
}

// rollbackWithdrawal re-credits a held withdrawal and marks it failed,
// atomically with respect to concurrent balance reads.
func rollbackWithdrawal(db *gorm.DB, row *models.Transaction, reason string) error {
	return withLockedAccount(db, row.AccountID, func(tx *gorm.DB, account *models.Account) error {
		fresh, err := FindByTxID(tx, row.TxID)
		if err != nil {
			return err
		}
		if fresh.IsTerminal() {
			return nil
		}

		amount := fresh.Amount.Neg() // withdrawal amounts are negative
		if _, err := applyRealDelta(tx, account, fresh.Currency, amount, false); err != nil {
			return err
		}
		if err := failTransaction(tx, fresh, reason); err != nil {
			return err
		}
		return tx.Model(&models.Account{}).Where("id = ?", account.ID).
			Update("total_withdrawn", account.TotalWithdrawn.Sub(amount)).Error
	})
}

// HandleWithdrawalCallback applies a processor webhook for a payout.
// Success is a pure status transition (funds already held); failure
// returns the held funds.
func HandleWithdrawalCallback(db *gorm.DB, payload map[string]string, signature, secret string) error {
	if !helpers.VerifySignature(payload, signature, secret) {
		logger.Warn("rejected payout callback with bad signature",
			"security", true, "order_id", payload["orderId"])
		return ErrInvalidSignature
	}

	orderID := payload["orderId"]
	row, err := FindByExternalRef(db, orderID)
	if err != nil {
		return err
	}
	if row.IsTerminal() {
		logger.Info("payout callback replayed on terminal transaction",
			"order_id", orderID, "status", row.Status)
		return nil
	}

	switch payload["status"] {
	case "success":
		return db.Transaction(func(tx *gorm.DB) error {
			return completeTransaction(tx, row, row.BalanceBefore, row.BalanceAfter)
		})
	case "failed":
		return rollbackWithdrawal(db, row, "Withdrawal failed")
	default:
		logger.Warn("payout callback with unknown status",
			"order_id", orderID, "status", payload["status"])
		return nil
	}
}

// ReconcilePendingDeposits polls the processor for deposits stuck in
// pending longer than the window and feeds them through the same
// settlement path the webhook uses.
func ReconcilePendingDeposits(db *gorm.DB, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	var rows []models.Transaction
	err := db.Where("type = ? AND status = ? AND created_at < ?",
		models.TxTypeDeposit, models.TxStatusPending, cutoff).Find(&rows).Error
	if err != nil {
		return err
	}

	for i := range rows {
		row := &rows[i]
		if row.ExternalRef == nil {
			continue
		}
		status, err := Processor.InvoiceStatus(*row.ExternalRef)
		if err != nil {
			logger.Error("invoice status poll failed", "order_id", *row.ExternalRef, "error", err)
			continue
		}
		switch status {
		case "success":
			if err := settleDeposit(db, row); err != nil {
				logger.Error("reconcile settle failed", "order_id", *row.ExternalRef, "error", err)
			}
		case "failed", "expired":
			err := db.Transaction(func(tx *gorm.DB) error {
				return failTransaction(tx, row, "Invoice "+status)
			})
			if err != nil {
				logger.Error("reconcile fail-mark failed", "order_id", *row.ExternalRef, "error", err)
			}
		}
	}
	return nil
}
