package services

import (
	"aurex/models"
	"aurex/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralCommissionPercent scales with how many players the referrer has
// brought in: 10% baseline up to 20% at 50+ referrals.
func ReferralCommissionPercent(referralCount int) int64 {
	switch {
	case referralCount >= 50:
		return 20
	case referralCount >= 30:
		return 18
	case referralCount >= 15:
		return 15
	case referralCount >= 5:
		return 12
	default:
		return 10
	}
}

// CreditReferralCommission pays the referrer their cut of a completed
// deposit. It runs after the depositor's lock is released and takes the
// referrer's lock on its own; a failure here never unwinds the deposit.
func CreditReferralCommission(db *gorm.DB, referrerID uint, depositAmount decimal.Decimal, currency string) {
	err := withLockedAccount(db, referrerID, func(tx *gorm.DB, referrer *models.Account) error {
		percent := ReferralCommissionPercent(referrer.ReferralCount)
		commission := depositAmount.Mul(decimal.NewFromInt(percent)).Div(decimal.NewFromInt(100)).Floor()
		if !commission.IsPositive() {
			return nil
		}

		before, err := GetRealBalance(tx, referrer.ID, currency)
		if err != nil {
			return err
		}
		after, err := applyRealDelta(tx, referrer, currency, commission, false)
		if err != nil {
			return err
		}

		if _, err := recordTransaction(tx, txParams{
			Account:       referrer,
			Type:          models.TxTypeBonus,
			Amount:        commission,
			Currency:      currency,
			BalanceBefore: before,
			BalanceAfter:  after,
			Status:        models.TxStatusCompleted,
			Description:   "Referral commission",
		}); err != nil {
			return err
		}

		if err := tx.Model(&models.Account{}).Where("id = ?", referrer.ID).
			Update("referral_earnings", referrer.ReferralEarnings.Add(commission)).Error; err != nil {
			return err
		}

		logger.Info("referral commission credited",
			"referrer", referrer.UserCode, "percent", percent,
			"commission", commission.String(), "currency", currency)
		return nil
	})
	if err != nil {
		logger.Error("referral commission failed", "referrer_id", referrerID, "error", err)
	}
}
