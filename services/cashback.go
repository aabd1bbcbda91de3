package services

import (
	"time"

	"aurex/models"
	"aurex/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// cashback wagering multiplier applied when claimed funds land on the
// bonus balance.
var cashbackWagerMultiplier = decimal.NewFromInt(5)

// CashbackPercentForVip maps VIP level to the loss percentage returned.
func CashbackPercentForVip(vipLevel int) int64 {
	rates := map[int]int64{
		1: 5,
		2: 7,
		3: 10,
		4: 12,
		5: 15,
	}
	if pct, ok := rates[vipLevel]; ok {
		return pct
	}
	return 5
}

// AccrueCashback records a pending cashback entry for a realized loss.
// The entry is a projection over the ledger, not a balance mutation; funds
// only move when the player claims.
func AccrueCashback(db *gorm.DB, account *models.Account, lossAmount decimal.Decimal, period string) error {
	if !lossAmount.IsPositive() {
		return ErrInvalidAmount
	}

	percent := CashbackPercentForVip(account.VipLevel)
	amount := lossAmount.Mul(decimal.NewFromInt(percent)).Div(decimal.NewFromInt(100)).Round(2)
	if !amount.IsPositive() {
		return nil
	}

	record := models.CashbackRecord{
		AccountID:     account.ID,
		Amount:        amount,
		Period:        period,
		WagerRequired: amount.Mul(cashbackWagerMultiplier),
		Status:        models.CashbackStatusPending,
	}
	if err := db.Create(&record).Error; err != nil {
		return err
	}

	logger.Info("cashback accrued",
		"user_code", account.UserCode, "loss", lossAmount.String(),
		"percent", percent, "amount", amount.String())
	return nil
}

// PendingCashback returns the claimable records and their total.
func PendingCashback(db *gorm.DB, accountID uint) ([]models.CashbackRecord, decimal.Decimal, error) {
	var records []models.CashbackRecord
	err := db.Where("account_id = ? AND status = ?", accountID, models.CashbackStatusPending).
		Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return records, total, nil
}

// ClaimCashback moves all pending cashback onto the bonus balance and
// stacks the associated wagering requirement, atomically under the account
// lock.
func ClaimCashback(db *gorm.DB, accountID uint) (decimal.Decimal, decimal.Decimal, error) {
	var claimed, wagerAdded decimal.Decimal
	err := withLockedAccount(db, accountID, func(tx *gorm.DB, account *models.Account) error {
		var records []models.CashbackRecord
		if err := tx.Where("account_id = ? AND status = ?", accountID, models.CashbackStatusPending).
			Find(&records).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return ErrBonusNotFound
		}

		total := decimal.Zero
		totalWager := decimal.Zero
		for _, r := range records {
			total = total.Add(r.Amount)
			totalWager = totalWager.Add(r.WagerRequired)
		}

		now := time.Now()
		if err := tx.Model(&models.CashbackRecord{}).
			Where("account_id = ? AND status = ?", accountID, models.CashbackStatusPending).
			Updates(map[string]interface{}{
				"status":     models.CashbackStatusClaimed,
				"claimed_at": now,
			}).Error; err != nil {
			return err
		}

		bonusBefore := account.BonusBalance
		bonusAfter, err := applyBonusDelta(tx, account, total)
		if err != nil {
			return err
		}

		if _, err := recordTransaction(tx, txParams{
			Account:       account,
			Type:          models.TxTypeBonus,
			Amount:        total,
			Currency:      account.Currency,
			BalanceBefore: bonusBefore,
			BalanceAfter:  bonusAfter,
			Status:        models.TxStatusCompleted,
			Description:   "Cashback claimed",
		}); err != nil {
			return err
		}

		if totalWager.IsPositive() {
			wagerExpiry := now.AddDate(0, 0, 7)
			if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
				"wager_required":   account.WagerRequired.Add(totalWager),
				"wager_active":     true,
				"wager_expires_at": wagerExpiry,
			}).Error; err != nil {
				return err
			}
		}

		claimed = total
		wagerAdded = totalWager
		return nil
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return claimed, wagerAdded, nil
}

// CashbackHistory lists an account's cashback records, newest first.
func CashbackHistory(db *gorm.DB, accountID uint, limit, offset int) ([]models.CashbackRecord, error) {
	var records []models.CashbackRecord
	err := db.Where("account_id = ?", accountID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&records).Error
	return records, err
}
