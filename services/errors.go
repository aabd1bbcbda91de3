package services

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrSessionNotFound     = errors.New("game session not found or inactive")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBonusNotFound       = errors.New("bonus not found")

	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrInvalidSignature            = errors.New("invalid signature")
	ErrAlreadyReversed             = errors.New("bet already reversed")
	ErrWithdrawalExceedsDepositCap = errors.New("withdrawal amount cannot exceed 200% of total deposits")
	ErrBelowMinimumDeposit         = errors.New("deposit below bonus minimum")
	ErrCryptoOnlyBonus             = errors.New("bonus is for crypto deposits only")
	ErrUnsupportedCurrency         = errors.New("unsupported currency")
	ErrInvalidAmount               = errors.New("invalid amount")
)

// NotEligibleError carries the specific bonus rule that failed, so the HTTP
// layer can surface it without leaking internals.
type NotEligibleError struct {
	Reason string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("not eligible: %s", e.Reason)
}

func notEligible(format string, args ...any) error {
	return &NotEligibleError{Reason: fmt.Sprintf(format, args...)}
}
