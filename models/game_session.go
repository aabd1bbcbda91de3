package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SessionStatusActive     = "active"
	SessionStatusCompleted  = "completed"
	SessionStatusTerminated = "terminated"
)

// GameSession is one provider game launch. TotalBet and TotalWin only grow
// while the session is active; completed and terminated are terminal.
type GameSession struct {
	gorm.Model

	SessionID string `gorm:"size:36;uniqueIndex;not null" json:"session_id"`
	AccountID uint   `gorm:"index;not null" json:"account_id"`
	UserCode  string `gorm:"size:32;index" json:"user_code"`

	GameCode string `gorm:"size:64;not null" json:"game_code"`
	Currency string `gorm:"size:8;not null" json:"currency"`

	StartBalance   decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"start_balance"`
	CurrentBalance decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"current_balance"`
	TotalBet       decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"total_bet"`
	TotalWin       decimal.Decimal `gorm:"type:numeric(20,2);default:0" json:"total_win"`
	SpinsCount     int             `gorm:"default:0" json:"spins_count"`

	Status         string    `gorm:"size:16;index;default:'active'" json:"status"`
	LastActivityAt time.Time `gorm:"index" json:"last_activity_at"`
}

func (s *GameSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.SessionID == "" {
		s.SessionID = strings.ToLower(uuid.New().String())
	}
	if s.LastActivityAt.IsZero() {
		s.LastActivityAt = time.Now()
	}
	return nil
}

func (s *GameSession) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusTerminated
}
