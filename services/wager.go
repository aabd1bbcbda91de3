package services

import (
	"time"

	"aurex/models"
	"aurex/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// recordWagered accrues bet volume against the outstanding wagering
// requirement under the caller's account lock. Completed is clamped so it
// never exceeds Required; the moment it reaches Required the wager clears
// exactly once and the bonus pot converts into withdrawable real balance in
// the account's home currency.
func recordWagered(tx *gorm.DB, account *models.Account, amount decimal.Decimal) error {
	account.TotalWagered = account.TotalWagered.Add(amount)
	updates := map[string]interface{}{
		"total_wagered": account.TotalWagered,
	}

	if account.WagerActive {
		completed := account.WagerCompleted.Add(amount)
		if completed.GreaterThan(account.WagerRequired) {
			completed = account.WagerRequired
		}
		account.WagerCompleted = completed
		updates["wager_completed"] = completed

		if completed.GreaterThanOrEqual(account.WagerRequired) {
			account.WagerActive = false
			updates["wager_active"] = false

			if account.BonusBalance.IsPositive() {
				converted := account.BonusBalance
				if _, err := applyBonusDelta(tx, account, converted.Neg()); err != nil {
					return err
				}
				before, err := GetRealBalance(tx, account.ID, account.Currency)
				if err != nil {
					return err
				}
				after, err := applyRealDelta(tx, account, account.Currency, converted, false)
				if err != nil {
					return err
				}
				if _, err := recordTransaction(tx, txParams{
					Account:       account,
					Type:          models.TxTypeBonus,
					Amount:        converted,
					Currency:      account.Currency,
					BalanceBefore: before,
					BalanceAfter:  after,
					Status:        models.TxStatusCompleted,
					Description:   "Wagering requirement cleared, bonus converted",
				}); err != nil {
					return err
				}
				logger.Info("wager cleared, bonus converted to real balance",
					"user_code", account.UserCode,
					"converted", converted.String(), "currency", account.Currency)
			}
		}
	}

	return tx.Model(&models.Account{}).Where("id = ?", account.ID).Updates(updates).Error
}

// CheckWagerExpiry forfeits the outstanding bonus when an active wagering
// requirement has passed its deadline. The forfeiture is silent towards the
// player and irreversible; it is logged for audit.
func CheckWagerExpiry(db *gorm.DB, accountID uint, now time.Time) error {
	return withLockedAccount(db, accountID, func(tx *gorm.DB, account *models.Account) error {
		if !account.WagerActive || account.WagerExpiresAt == nil || !now.After(*account.WagerExpiresAt) {
			return nil
		}

		forfeited := account.BonusBalance
		if forfeited.IsPositive() {
			if _, err := applyBonusDelta(tx, account, forfeited.Neg()); err != nil {
				return err
			}
			if _, err := recordTransaction(tx, txParams{
				Account:       account,
				Type:          models.TxTypeRollback,
				Amount:        forfeited.Neg(),
				Currency:      account.Currency,
				BalanceBefore: forfeited,
				BalanceAfter:  decimal.Zero,
				Status:        models.TxStatusCompleted,
				Description:   "Bonus forfeited, wagering requirement expired",
			}); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
			"wager_required":  decimal.Zero,
			"wager_completed": decimal.Zero,
			"wager_active":    false,
		}).Error; err != nil {
			return err
		}

		logger.Info("wager expired, bonus forfeited",
			"user_code", account.UserCode, "forfeited", forfeited.String(),
			"required", account.WagerRequired.String(),
			"completed", account.WagerCompleted.String())
		return nil
	})
}

// SweepExpiredWagers runs the expiry check for every account with an
// overdue active wager; used by the background scheduler.
func SweepExpiredWagers(db *gorm.DB, now time.Time) error {
	var ids []uint
	err := db.Model(&models.Account{}).
		Where("wager_active = true AND wager_expires_at IS NOT NULL AND wager_expires_at < ?", now).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := CheckWagerExpiry(db, id, now); err != nil {
			logger.Error("wager expiry sweep failed for account", "account_id", id, "error", err)
		}
	}
	return nil
}
