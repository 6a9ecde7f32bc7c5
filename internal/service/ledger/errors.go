package ledger

import "errors"

var (
	ErrAgentNotFound     = errors.New("agent not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCreditLimitTooLow = errors.New("credit limit below drawn credit")
	ErrNonPositiveAmount = errors.New("amount must be positive")
)
