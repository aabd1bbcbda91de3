package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SupportedCurrencies is the fixed set of currencies an account holds a
// real-money balance in. Every account gets a zero row per currency at
// registration, so balance lookups never hit an implicit default.
var SupportedCurrencies = []string{"RUB", "USD", "EUR", "BTC", "LTC", "KZT", "UAH"}

func IsSupportedCurrency(currency string) bool {
	for _, c := range SupportedCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

type Account struct {
	gorm.Model

	UserCode       string `gorm:"uniqueIndex;size:32" json:"user_code"`
	OperatorUserID string `gorm:"index;size:64" json:"operator_user_id"`
	DisplayName    string `gorm:"size:64" json:"display_name"`
	Currency       string `gorm:"size:8;default:'RUB'" json:"currency"`
	Country        string `gorm:"size:64" json:"country"`

	// Bonus funds are a single currency-agnostic pot; real funds live in
	// AccountBalance rows keyed by currency.
	BonusBalance decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"bonus_balance"`

	WagerRequired   decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"wager_required"`
	WagerCompleted  decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"wager_completed"`
	WagerActive     bool            `gorm:"default:false" json:"wager_active"`
	WagerMultiplier decimal.Decimal `gorm:"type:numeric(6,2);default:0" json:"wager_multiplier"`
	WagerExpiresAt  *time.Time      `json:"wager_expires_at"`

	DepositCount      int  `gorm:"default:0" json:"deposit_count"`
	UsedFirstDeposit  bool `gorm:"default:false" json:"used_first_deposit"`
	UsedSecondDeposit bool `gorm:"default:false" json:"used_second_deposit"`
	UsedThirdDeposit  bool `gorm:"default:false" json:"used_third_deposit"`
	UsedFourthDeposit bool `gorm:"default:false" json:"used_fourth_deposit"`

	VipLevel         int             `gorm:"default:1" json:"vip_level"`
	ReferralCode     string          `gorm:"uniqueIndex;size:12" json:"referral_code"`
	ReferredBy       *uint           `gorm:"index" json:"referred_by"`
	ReferralCount    int             `gorm:"default:0" json:"referral_count"`
	ReferralEarnings decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"referral_earnings"`

	TotalDeposited decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"total_withdrawn"`
	TotalWagered   decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"total_wagered"`
	GamesPlayed    int             `gorm:"default:0" json:"games_played"`

	IsActive bool `gorm:"default:true" json:"is_active"`
	IsDemo   bool `gorm:"default:false" json:"is_demo"`

	Balances     []AccountBalance `gorm:"foreignKey:AccountID"`
	Transactions []Transaction    `gorm:"foreignKey:AccountID"`
}

// AccountBalance is one real-money balance row per (account, currency).
// Amount never goes negative; the account service enforces this under the
// account row lock.
type AccountBalance struct {
	gorm.Model

	AccountID uint            `gorm:"index:idx_account_currency,unique"`
	Currency  string          `gorm:"size:8;index:idx_account_currency,unique"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"amount"`
}

// SetUsedDepositBonus flips the claimed flag for a deposit tier (1-4).
func (a *Account) SetUsedDepositBonus(depositNumber int) {
	switch depositNumber {
	case 1:
		a.UsedFirstDeposit = true
	case 2:
		a.UsedSecondDeposit = true
	case 3:
		a.UsedThirdDeposit = true
	case 4:
		a.UsedFourthDeposit = true
	}
}
