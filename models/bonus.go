package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	BonusStatusActive  = "active"
	BonusStatusUsed    = "used"
	BonusStatusExpired = "expired"
)

// BonusActivation is one user-initiated claim of a catalogue bonus. At most
// one activation per account may be active at a time, and a non-recurring
// bonus is claimable once ever.
type BonusActivation struct {
	gorm.Model

	ActivationID string `gorm:"size:36;uniqueIndex;not null" json:"activation_id"`
	AccountID    uint   `gorm:"index;not null" json:"account_id"`
	UserCode     string `gorm:"size:32;index" json:"user_code"`
	BonusID      string `gorm:"size:32;index;not null" json:"bonus_id"`

	Status      string    `gorm:"size:16;index;default:'active'" json:"status"`
	ActivatedAt time.Time `json:"activated_at"`
	ExpiresAt   time.Time `gorm:"index" json:"expires_at"`

	// Populated once the activation is applied to a qualifying deposit.
	DepositAmount decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"deposit_amount"`
	BonusAmount   decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"bonus_amount"`
	WagerRequired decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"wager_required"`
	UsedAt        *time.Time      `json:"used_at"`
}

func (b *BonusActivation) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ActivationID == "" {
		b.ActivationID = strings.ToLower(uuid.New().String())
	}
	return nil
}

const (
	CashbackStatusPending = "pending"
	CashbackStatusClaimed = "claimed"
)

// CashbackRecord is a pending VIP cashback accrual, created when a game
// session ends at a net loss and claimable into bonus balance with a wager.
type CashbackRecord struct {
	gorm.Model

	AccountID     uint            `gorm:"index;not null" json:"account_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Period        string          `gorm:"size:16;default:'daily'" json:"period"`
	WagerRequired decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"wager_required"`
	Status        string          `gorm:"size:16;index;default:'pending'" json:"status"`
	ClaimedAt     *time.Time      `json:"claimed_at"`
}
