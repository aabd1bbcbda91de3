package services

import (
	"errors"
	"strings"

	"aurex/models"
	"aurex/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	welcomeRealCredit  = decimal.NewFromInt(1000)
	welcomeBonusCredit = decimal.NewFromInt(500)
)

const welcomeCurrency = "RUB"

var ErrAccountExists = errors.New("account already exists")

type RegisterParams struct {
	UserCode       string
	DisplayName    string
	OperatorUserID string
	Currency       string
	ReferralCode   string // referrer's code, optional
}

// RegisterAccount creates a player with zero-initialized balances for every
// supported currency, credits the welcome package (1000 RUB real + 500
// bonus), and links the referrer when a valid referral code is supplied.
func RegisterAccount(db *gorm.DB, p RegisterParams) (*models.Account, error) {
	currency := strings.ToUpper(p.Currency)
	if currency == "" {
		currency = welcomeCurrency
	}
	if !models.IsSupportedCurrency(currency) {
		return nil, ErrUnsupportedCurrency
	}

	if _, err := GetAccountByCode(db, p.UserCode); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	var referrer *models.Account
	if p.ReferralCode != "" {
		var candidate models.Account
		err := db.Where("referral_code = ?", strings.ToUpper(p.ReferralCode)).First(&candidate).Error
		if err == nil {
			referrer = &candidate
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	account := models.Account{
		UserCode:       p.UserCode,
		DisplayName:    p.DisplayName,
		OperatorUserID: p.OperatorUserID,
		Currency:       currency,
		ReferralCode:   newReferralCode(),
		IsActive:       true,
	}
	if referrer != nil {
		account.ReferredBy = &referrer.ID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		if err := InitBalances(tx, account.ID); err != nil {
			return err
		}

		after, err := applyRealDelta(tx, &account, welcomeCurrency, welcomeRealCredit, false)
		if err != nil {
			return err
		}
		if _, err := recordTransaction(tx, txParams{
			Account:       &account,
			Type:          models.TxTypeBonus,
			Amount:        welcomeRealCredit,
			Currency:      welcomeCurrency,
			BalanceBefore: decimal.Zero,
			BalanceAfter:  after,
			Status:        models.TxStatusCompleted,
			Description:   "Welcome balance",
		}); err != nil {
			return err
		}

		bonusAfter, err := applyBonusDelta(tx, &account, welcomeBonusCredit)
		if err != nil {
			return err
		}
		if _, err := recordTransaction(tx, txParams{
			Account:       &account,
			Type:          models.TxTypeBonus,
			Amount:        welcomeBonusCredit,
			Currency:      welcomeCurrency,
			BalanceBefore: decimal.Zero,
			BalanceAfter:  bonusAfter,
			Status:        models.TxStatusCompleted,
			Description:   "Welcome bonus",
		}); err != nil {
			return err
		}

		if referrer != nil {
			if err := tx.Model(&models.Account{}).Where("id = ?", referrer.ID).
				Update("referral_count", gorm.Expr("referral_count + 1")).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("account registered",
		"user_code", account.UserCode, "currency", currency,
		"referred", referrer != nil)
	return &account, nil
}

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
