package services

import (
	"errors"
	"strings"
	"time"

	"aurex/models"
	"aurex/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// txParams describes one ledger row to append. ExternalRef, when set, is the
// idempotency key for the external event that caused the mutation.
type txParams struct {
	Account       *models.Account
	SessionID     string
	Type          string
	Amount        decimal.Decimal
	Currency      string
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Status        string
	ExternalRef   string
	RoundID       string
	GameCode      string
	PaymentMethod string
	Description   string
}

// recordTransaction appends one immutable ledger row inside the caller's
// database transaction.
func recordTransaction(tx *gorm.DB, p txParams) (*models.Transaction, error) {
	row := models.Transaction{
		TxID:          strings.ToLower(uuid.New().String()),
		AccountID:     p.Account.ID,
		UserCode:      p.Account.UserCode,
		SessionID:     p.SessionID,
		Type:          p.Type,
		Amount:        p.Amount,
		Currency:      p.Currency,
		BalanceBefore: p.BalanceBefore,
		BalanceAfter:  p.BalanceAfter,
		Status:        p.Status,
		RoundID:       p.RoundID,
		GameCode:      p.GameCode,
		PaymentMethod: p.PaymentMethod,
		Description:   p.Description,
	}
	if p.ExternalRef != "" {
		ref := p.ExternalRef
		row.ExternalRef = &ref
	}
	if p.Status == models.TxStatusCompleted {
		now := time.Now()
		row.CompletedAt = &now
	}
	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByExternalRef resolves a ledger row by its idempotency key. Callers
// handling externally-sourced events must check this before mutating any
// balance, so duplicate or out-of-order delivery applies at most once.
func FindByExternalRef(db *gorm.DB, ref string) (*models.Transaction, error) {
	var row models.Transaction
	if err := db.Where("external_ref = ?", ref).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &row, nil
}

func FindByTxID(db *gorm.DB, txID string) (*models.Transaction, error) {
	var row models.Transaction
	if err := db.Where("tx_id = ?", txID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &row, nil
}

// completeTransaction moves a pending row to completed and freezes the
// before/after balances observed at application time. Calling it on a row
// that already reached a terminal status is a no-op.
func completeTransaction(tx *gorm.DB, row *models.Transaction, balanceBefore, balanceAfter decimal.Decimal) error {
	if row.IsTerminal() {
		logger.Warn("ignoring status transition on terminal transaction",
			"tx_id", row.TxID, "status", row.Status)
		return nil
	}
	now := time.Now()
	row.Status = models.TxStatusCompleted
	row.BalanceBefore = balanceBefore
	row.BalanceAfter = balanceAfter
	row.CompletedAt = &now
	return tx.Model(&models.Transaction{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
		"status":         models.TxStatusCompleted,
		"balance_before": balanceBefore,
		"balance_after":  balanceAfter,
		"completed_at":   now,
	}).Error
}

// failTransaction moves a pending row to failed. Terminal rows are left
// untouched so balance effects are never applied twice.
func failTransaction(tx *gorm.DB, row *models.Transaction, reason string) error {
	if row.IsTerminal() {
		logger.Warn("ignoring status transition on terminal transaction",
			"tx_id", row.TxID, "status", row.Status)
		return nil
	}
	row.Status = models.TxStatusFailed
	return tx.Model(&models.Transaction{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
		"status":      models.TxStatusFailed,
		"description": reason,
	}).Error
}

// CompletedDepositTotal sums the lifetime completed deposits for one
// currency; the withdrawal cap is checked against it.
func CompletedDepositTotal(db *gorm.DB, accountID uint, currency string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := db.Model(&models.Transaction{}).
		Select("SUM(amount)").
		Where("account_id = ? AND type = ? AND status = ? AND currency = ?",
			accountID, models.TxTypeDeposit, models.TxStatusCompleted, currency).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// AccountTransactions lists ledger rows for an account, newest first.
func AccountTransactions(db *gorm.DB, accountID uint, txType string, limit, offset int) ([]models.Transaction, error) {
	q := db.Where("account_id = ?", accountID)
	if txType != "" {
		q = q.Where("type = ?", txType)
	}
	var rows []models.Transaction
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
