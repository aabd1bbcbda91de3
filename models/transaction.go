package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TxTypeBet         = "bet"
	TxTypeWin         = "win"
	TxTypeDeposit     = "deposit"
	TxTypeWithdrawal  = "withdrawal"
	TxTypeBonus       = "bonus"
	TxTypeRefund      = "refund"
	TxTypeRollback    = "rollback"
	TxTypeAdminCredit = "admin_credit"
	TxTypeAdminDebit  = "admin_debit"
)

const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
	TxStatusCancelled = "cancelled"
)

// Transaction is one append-only ledger row per balance-affecting event.
// Amount is signed (negative for debits) and BalanceAfter must equal
// BalanceBefore + Amount at the moment of application. Completed rows are
// never edited; corrections are appended as new rows.
type Transaction struct {
	gorm.Model

	TxID      string `gorm:"size:36;uniqueIndex;not null" json:"tx_id"`
	AccountID uint   `gorm:"index;not null" json:"account_id"`
	UserCode  string `gorm:"size:32;index" json:"user_code"`
	SessionID string `gorm:"size:36;index" json:"session_id"`

	Type     string          `gorm:"size:16;index;not null" json:"type"`
	Amount   decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Currency string          `gorm:"size:8;not null" json:"currency"`

	BalanceBefore decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_after"`

	Status string `gorm:"size:16;index;default:'pending'" json:"status"`

	// ExternalRef carries the idempotency key for externally-sourced events:
	// the payment processor orderId, or the provider bet/win id. Unique when
	// set so duplicate delivery cannot create a second row.
	ExternalRef *string `gorm:"size:64;uniqueIndex" json:"external_ref"`
	RoundID     string  `gorm:"size:64;index" json:"round_id"`
	GameCode    string  `gorm:"size:64" json:"game_code"`

	PaymentMethod string         `gorm:"size:32" json:"payment_method"`
	Description   string         `gorm:"size:255" json:"description"`
	Metadata      datatypes.JSON `gorm:"type:jsonb" json:"metadata"`

	CompletedAt *time.Time `json:"completed_at"`
}

func (t *Transaction) IsTerminal() bool {
	return t.Status == TxStatusCompleted || t.Status == TxStatusFailed || t.Status == TxStatusCancelled
}
