package services

import (
	"errors"
	"strings"
	"time"

	"aurex/models"
	"aurex/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BonusTypeDeposit = "deposit"
	BonusTypeReload  = "reload"
	BonusTypeVip     = "vip"
	BonusTypeCrypto  = "crypto"
)

// BonusConfig is one catalogue entry. MaxBonus nil means uncapped.
type BonusConfig struct {
	ID          string
	Type        string
	Name        string
	Description string

	Percent    int64
	MaxBonus   *decimal.Decimal
	MinDeposit decimal.Decimal
	Wagering   int64
	ValidDays  int
	Freespins  int

	DepositNumber int
	Recurring     bool
	DaysOfWeek    []time.Weekday
	RequiresVip   bool
	MinVipLevel   int
	CryptoOnly    bool
}

func capAt(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// BonusCatalogue is the static bonus configuration. Deposit-tier bonuses
// must be claimed strictly in sequence; reload bonuses recur on their
// weekdays; VIP and crypto bonuses carry their own gates.
var BonusCatalogue = map[string]BonusConfig{
	"first-deposit": {
		ID: "first-deposit", Type: BonusTypeDeposit, Name: "1st Deposit",
		Description: "200% bonus on your first deposit",
		Percent:     200, MaxBonus: capAt(50000), MinDeposit: decimal.NewFromInt(500),
		Wagering: 35, ValidDays: 7, DepositNumber: 1, Freespins: 100,
	},
	"second-deposit": {
		ID: "second-deposit", Type: BonusTypeDeposit, Name: "2nd Deposit",
		Description: "150% bonus on your second deposit",
		Percent:     150, MaxBonus: capAt(40000), MinDeposit: decimal.NewFromInt(500),
		Wagering: 35, ValidDays: 7, DepositNumber: 2, Freespins: 75,
	},
	"third-deposit": {
		ID: "third-deposit", Type: BonusTypeDeposit, Name: "3rd Deposit",
		Description: "100% bonus on your third deposit",
		Percent:     100, MaxBonus: capAt(30000), MinDeposit: decimal.NewFromInt(500),
		Wagering: 30, ValidDays: 7, DepositNumber: 3, Freespins: 50,
	},
	"fourth-deposit": {
		ID: "fourth-deposit", Type: BonusTypeDeposit, Name: "4th Deposit",
		Description: "75% bonus on your fourth deposit",
		Percent:     75, MaxBonus: capAt(20000), MinDeposit: decimal.NewFromInt(500),
		Wagering: 30, ValidDays: 7, DepositNumber: 4, Freespins: 25,
	},
	"reload-weekend": {
		ID: "reload-weekend", Type: BonusTypeReload, Name: "Weekend Reload",
		Description: "50% reload bonus on weekends",
		Percent:     50, MaxBonus: capAt(25000), MinDeposit: decimal.NewFromInt(1000),
		Wagering: 25, ValidDays: 3, Recurring: true,
		DaysOfWeek: []time.Weekday{time.Friday, time.Saturday, time.Sunday},
	},
	"reload-monday": {
		ID: "reload-monday", Type: BonusTypeReload, Name: "Monday Boost",
		Description: "30% reload bonus on Mondays",
		Percent:     30, MaxBonus: capAt(15000), MinDeposit: decimal.NewFromInt(500),
		Wagering: 20, ValidDays: 1, Recurring: true,
		DaysOfWeek: []time.Weekday{time.Monday},
	},
	"high-roller": {
		ID: "high-roller", Type: BonusTypeVip, Name: "High Roller",
		Description: "Up to 500% for big players",
		Percent:     500, MaxBonus: capAt(1000000), MinDeposit: decimal.NewFromInt(100000),
		Wagering: 40, ValidDays: 30, RequiresVip: true, MinVipLevel: 4,
	},
	"vip-birthday": {
		ID: "vip-birthday", Type: BonusTypeVip, Name: "Birthday Bonus",
		Description: "A special bonus on your birthday",
		Percent:     100, MaxBonus: capAt(100000), MinDeposit: decimal.NewFromInt(10000),
		Wagering: 10, ValidDays: 7, RequiresVip: true, MinVipLevel: 3,
	},
	"crypto-first": {
		ID: "crypto-first", Type: BonusTypeCrypto, Name: "Crypto First",
		Description: "+50% on your first crypto deposit",
		Percent:     50, MaxBonus: nil, MinDeposit: decimal.NewFromInt(5000),
		Wagering: 30, ValidDays: 14, CryptoOnly: true,
	},
}

var cryptoPaymentMethods = map[string]bool{
	"bitcoin":  true,
	"ethereum": true,
	"usdt":     true,
	"crypto":   true,
}

var depositTierOrder = []string{"first-deposit", "second-deposit", "third-deposit", "fourth-deposit"}

// ComputeBonus returns the bonus credit and total wagering requirement for a
// deposit under the given config: bonus = min(round(deposit*percent/100),
// maxBonus); wager = (deposit + bonus) * wagering multiplier.
func ComputeBonus(cfg BonusConfig, depositAmount decimal.Decimal) (bonusAmount, wagerRequired decimal.Decimal) {
	bonusAmount = depositAmount.Mul(decimal.NewFromInt(cfg.Percent)).Div(decimal.NewFromInt(100)).Round(0)
	if cfg.MaxBonus != nil && bonusAmount.GreaterThan(*cfg.MaxBonus) {
		bonusAmount = *cfg.MaxBonus
	}
	wagerRequired = depositAmount.Add(bonusAmount).Mul(decimal.NewFromInt(cfg.Wagering))
	return bonusAmount, wagerRequired
}

// CheckEligibility evaluates the activation rules for one bonus, in order:
// bonus exists, no activation conflict, deposit tier sequencing, VIP gate,
// weekday gate. A failure is a NotEligibleError naming the violated rule.
func CheckEligibility(db *gorm.DB, account *models.Account, bonusID string, now time.Time) error {
	cfg, ok := BonusCatalogue[bonusID]
	if !ok {
		return ErrBonusNotFound
	}

	var existing []models.BonusActivation
	if err := db.Where("account_id = ? AND bonus_id = ?", account.ID, bonusID).
		Find(&existing).Error; err != nil {
		return err
	}
	for _, a := range existing {
		if a.Status == models.BonusStatusActive && now.Before(a.ExpiresAt) {
			return notEligible("bonus already activated")
		}
		if a.Status == models.BonusStatusUsed && !cfg.Recurring {
			return notEligible("bonus already used")
		}
	}

	// Only one bonus may sit active at a time, whichever it is.
	var activeCount int64
	if err := db.Model(&models.BonusActivation{}).
		Where("account_id = ? AND status = ? AND expires_at > ?", account.ID, models.BonusStatusActive, now).
		Count(&activeCount).Error; err != nil {
		return err
	}
	if activeCount > 0 {
		return notEligible("another bonus is already active")
	}

	if cfg.Type == BonusTypeDeposit && cfg.DepositNumber > 0 {
		if account.DepositCount != cfg.DepositNumber-1 {
			if account.DepositCount < cfg.DepositNumber-1 {
				return notEligible("deposit bonus %d requires %d completed deposits first",
					cfg.DepositNumber, cfg.DepositNumber-1)
			}
			return notEligible("deposit tier %d already passed", cfg.DepositNumber)
		}
	}

	if cfg.RequiresVip && account.VipLevel < cfg.MinVipLevel {
		return notEligible("requires VIP level %d or higher", cfg.MinVipLevel)
	}

	if len(cfg.DaysOfWeek) > 0 {
		today := now.Weekday()
		allowed := false
		names := make([]string, 0, len(cfg.DaysOfWeek))
		for _, d := range cfg.DaysOfWeek {
			names = append(names, d.String())
			if d == today {
				allowed = true
			}
		}
		if !allowed {
			return notEligible("only available on: %s", strings.Join(names, ", "))
		}
	}

	return nil
}

// ActivateBonus creates an active activation with expiry now + validDays.
// Check and insert run under the account lock, so two concurrent claims
// cannot both slip past the single-active-activation rule.
func ActivateBonus(db *gorm.DB, account *models.Account, bonusID string, now time.Time) (*models.BonusActivation, error) {
	var activation *models.BonusActivation
	err := withLockedAccount(db, account.ID, func(tx *gorm.DB, locked *models.Account) error {
		if err := CheckEligibility(tx, locked, bonusID, now); err != nil {
			return err
		}
		cfg := BonusCatalogue[bonusID]

		activation = &models.BonusActivation{
			AccountID:   locked.ID,
			UserCode:    locked.UserCode,
			BonusID:     bonusID,
			Status:      models.BonusStatusActive,
			ActivatedAt: now,
			ExpiresAt:   now.AddDate(0, 0, cfg.ValidDays),
		}
		return tx.Create(activation).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("bonus activated",
		"user_code", account.UserCode, "bonus_id", bonusID, "expires_at", activation.ExpiresAt)
	return activation, nil
}

// DeactivateBonus drops an unused active activation.
func DeactivateBonus(db *gorm.DB, accountID uint, bonusID string) error {
	result := db.Where("account_id = ? AND bonus_id = ? AND status = ?",
		accountID, bonusID, models.BonusStatusActive).
		Delete(&models.BonusActivation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBonusNotFound
	}
	return nil
}

// ActiveActivation returns the account's single active, unexpired activation.
func ActiveActivation(db *gorm.DB, accountID uint, now time.Time) (*models.BonusActivation, error) {
	var activation models.BonusActivation
	err := db.Where("account_id = ? AND status = ? AND expires_at > ?",
		accountID, models.BonusStatusActive, now).First(&activation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBonusNotFound
		}
		return nil, err
	}
	return &activation, nil
}

// BonusHistory lists an account's activations, newest first.
func BonusHistory(db *gorm.DB, accountID uint, limit, offset int) ([]models.BonusActivation, error) {
	var activations []models.BonusActivation
	err := db.Where("account_id = ?", accountID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&activations).Error
	return activations, err
}

// ApplyToDeposit converts an active activation into bonus funds and a
// wagering obligation for a qualifying deposit. Must run under the
// depositor's account lock. A second call on a used activation is a no-op
// returning the original amounts. New wagering requirements stack onto any
// outstanding one instead of replacing it.
func ApplyToDeposit(tx *gorm.DB, account *models.Account, activation *models.BonusActivation, depositAmount decimal.Decimal, paymentMethod string) (bonusAmount, wagerRequired decimal.Decimal, err error) {
	if activation.Status == models.BonusStatusUsed {
		return activation.BonusAmount, activation.WagerRequired, nil
	}

	cfg, ok := BonusCatalogue[activation.BonusID]
	if !ok {
		return decimal.Zero, decimal.Zero, ErrBonusNotFound
	}
	if depositAmount.LessThan(cfg.MinDeposit) {
		return decimal.Zero, decimal.Zero, ErrBelowMinimumDeposit
	}
	if cfg.CryptoOnly && !cryptoPaymentMethods[strings.ToLower(paymentMethod)] {
		return decimal.Zero, decimal.Zero, ErrCryptoOnlyBonus
	}

	bonusAmount, wagerRequired = ComputeBonus(cfg, depositAmount)
	now := time.Now()

	bonusBefore := account.BonusBalance
	bonusAfter, err := applyBonusDelta(tx, account, bonusAmount)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if _, err := recordTransaction(tx, txParams{
		Account:       account,
		Type:          models.TxTypeBonus,
		Amount:        bonusAmount,
		Currency:      account.Currency,
		BalanceBefore: bonusBefore,
		BalanceAfter:  bonusAfter,
		Status:        models.TxStatusCompleted,
		Description:   cfg.Name + " bonus on deposit",
	}); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	account.DepositCount++
	account.SetUsedDepositBonus(cfg.DepositNumber)

	// Stack the new obligation onto whatever is still outstanding.
	account.WagerRequired = account.WagerRequired.Add(wagerRequired)
	account.WagerActive = true
	account.WagerMultiplier = decimal.NewFromInt(cfg.Wagering)
	wagerExpiry := now.AddDate(0, 0, cfg.ValidDays)
	account.WagerExpiresAt = &wagerExpiry

	if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"deposit_count":       account.DepositCount,
		"used_first_deposit":  account.UsedFirstDeposit,
		"used_second_deposit": account.UsedSecondDeposit,
		"used_third_deposit":  account.UsedThirdDeposit,
		"used_fourth_deposit": account.UsedFourthDeposit,
		"wager_required":      account.WagerRequired,
		"wager_active":        true,
		"wager_multiplier":    account.WagerMultiplier,
		"wager_expires_at":    wagerExpiry,
	}).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	activation.Status = models.BonusStatusUsed
	activation.UsedAt = &now
	activation.DepositAmount = depositAmount
	activation.BonusAmount = bonusAmount
	activation.WagerRequired = wagerRequired
	if err := tx.Model(&models.BonusActivation{}).Where("id = ?", activation.ID).Updates(map[string]interface{}{
		"status":         models.BonusStatusUsed,
		"used_at":        now,
		"deposit_amount": depositAmount,
		"bonus_amount":   bonusAmount,
		"wager_required": wagerRequired,
	}).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	logger.Info("bonus applied to deposit",
		"user_code", account.UserCode, "bonus_id", cfg.ID,
		"deposit", depositAmount.String(), "bonus", bonusAmount.String(),
		"wager_required", wagerRequired.String())

	return bonusAmount, wagerRequired, nil
}
