package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AgentRole string

const (
	RoleAgent AgentRole = "agent"
	RoleAdmin AgentRole = "admin"
)

type AgentStatus string

const (
	AgentApproved AgentStatus = "approved"
	AgentPending  AgentStatus = "pending"
	AgentBlocked  AgentStatus = "blocked"
)

// Agent is the ledger subject. Balance and Credit are in the ledger
// currency; Credit is the amount currently drawn against CreditLimit.
type Agent struct {
	ID          int64           `json:"id"`
	Company     string          `json:"company"`
	Email       string          `json:"email"`
	Role        AgentRole       `json:"role"`
	Status      AgentStatus     `json:"status"`
	Balance     decimal.Decimal `json:"balance"`
	Credit      decimal.Decimal `json:"credit"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AvailableFunds is balance plus the undrawn part of the credit line.
func (a Agent) AvailableFunds() decimal.Decimal {
	return a.Balance.Add(a.CreditLimit.Sub(a.Credit))
}

func (a Agent) IsAdmin() bool { return a.Role == RoleAdmin }

type EntryType string

const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

// BalanceEntry is one immutable row of an agent's balance history.
type BalanceEntry struct {
	ID          int64           `json:"id"`
	AgentID     int64           `json:"agent_id"`
	EntryType   EntryType       `json:"entry_type"`
	Currency    string          `json:"currency"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentType string          `json:"payment_type,omitempty"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
