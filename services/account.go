package services

import (
	"errors"

	"aurex/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetAccount loads an account by primary key without locking.
func GetAccount(db *gorm.DB, accountID uint) (*models.Account, error) {
	var account models.Account
	if err := db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func GetAccountByCode(db *gorm.DB, userCode string) (*models.Account, error) {
	var account models.Account
	if err := db.Where("user_code = ?", userCode).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetRealBalance returns the real-money balance for one currency.
func GetRealBalance(db *gorm.DB, accountID uint, currency string) (decimal.Decimal, error) {
	var row models.AccountBalance
	err := db.Where("account_id = ? AND currency = ?", accountID, currency).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return row.Amount, nil
}

// AllBalances returns every per-currency real balance for an account.
func AllBalances(db *gorm.DB, accountID uint) (map[string]decimal.Decimal, error) {
	var rows []models.AccountBalance
	if err := db.Where("account_id = ?", accountID).Find(&rows).Error; err != nil {
		return nil, err
	}
	balances := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		balances[row.Currency] = row.Amount
	}
	return balances, nil
}

// withLockedAccount runs fn inside a database transaction holding a
// SELECT ... FOR UPDATE lock on the account row. Every balance- or
// wager-mutating path goes through here, so concurrent mutations to the same
// account are totally ordered and a stale-read double spend cannot happen.
// fn must not perform network I/O; snapshot, release, call out, re-lock.
func withLockedAccount(db *gorm.DB, accountID uint, fn func(tx *gorm.DB, account *models.Account) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		return fn(tx, &account)
	})
}

// applyRealDelta mutates one currency balance under the caller's account
// lock and returns the new amount. Debits with mustAfford reject with
// ErrInsufficientFunds instead of going negative; credits never fail on
// balance grounds. The result is clamped at zero either way, matching the
// ledger invariant that no real balance is ever negative.
func applyRealDelta(tx *gorm.DB, account *models.Account, currency string, delta decimal.Decimal, mustAfford bool) (decimal.Decimal, error) {
	if !models.IsSupportedCurrency(currency) {
		return decimal.Zero, ErrUnsupportedCurrency
	}

	var row models.AccountBalance
	err := tx.Where("account_id = ? AND currency = ?", account.ID, currency).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.AccountBalance{AccountID: account.ID, Currency: currency, Amount: decimal.Zero}
		if err := tx.Create(&row).Error; err != nil {
			return decimal.Zero, err
		}
	} else if err != nil {
		return decimal.Zero, err
	}

	if mustAfford && delta.IsNegative() && row.Amount.LessThan(delta.Neg()) {
		return row.Amount, ErrInsufficientFunds
	}

	newAmount := row.Amount.Add(delta)
	if newAmount.IsNegative() {
		newAmount = decimal.Zero
	}

	if err := tx.Model(&models.AccountBalance{}).Where("id = ?", row.ID).
		Update("amount", newAmount).Error; err != nil {
		return decimal.Zero, err
	}
	return newAmount, nil
}

// applyBonusDelta mutates the currency-agnostic bonus pot, clamping at zero.
func applyBonusDelta(tx *gorm.DB, account *models.Account, delta decimal.Decimal) (decimal.Decimal, error) {
	newAmount := account.BonusBalance.Add(delta)
	if newAmount.IsNegative() {
		newAmount = decimal.Zero
	}
	account.BonusBalance = newAmount
	if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
		Update("bonus_balance", newAmount).Error; err != nil {
		return decimal.Zero, err
	}
	return newAmount, nil
}

// InitBalances creates the zero rows for every supported currency.
func InitBalances(tx *gorm.DB, accountID uint) error {
	for _, currency := range models.SupportedCurrencies {
		row := models.AccountBalance{AccountID: accountID, Currency: currency, Amount: decimal.Zero}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
