package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/repository"
	postgresrepo "github.com/skyfare/skyfare/internal/repository/postgres"
	"github.com/skyfare/skyfare/internal/uow"
)

// Service mutates agent balances. A mutation and its history row are
// always written in the same transaction. Use and Increase take the
// caller's transaction handle so the booking flow can fold a debit into
// its own transaction; a nil handle opens one here.
type Service struct {
	store *postgresrepo.Store
	uow   *uow.UoW
}

func New(store *postgresrepo.Store) *Service {
	return &Service{
		store: store,
		uow:   uow.NewUoW(store),
	}
}

// Entry carries the bookkeeping fields of a balance mutation.
type Entry struct {
	Currency    string
	Rate        decimal.Decimal
	PaymentType string
	Description string
}

func (s *Service) Agent(ctx context.Context, agentID int64) (*domain.Agent, error) {
	const op = "service.ledger.Agent"

	a, err := s.store.Ledger().GetAgent(ctx, agentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrAgentNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return a, nil
}

// Use debits the agent. The shortfall past the balance is drawn from
// the credit line; the operation fails with ErrInsufficientFunds when
// balance plus undrawn credit cannot cover the amount.
func (s *Service) Use(ctx context.Context, tx postgresrepo.DB, agentID int64, amount decimal.Decimal, meta Entry) error {
	const op = "service.ledger.Use"

	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%s:%w", op, ErrNonPositiveAmount)
	}

	if tx == nil {
		return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, _ func(uow.AfterCommit)) error {
			return s.useCore(ctx, tx, agentID, amount, meta)
		})
	}

	return s.useCore(ctx, tx, agentID, amount, meta)
}

func (s *Service) useCore(ctx context.Context, tx postgresrepo.DB, agentID int64, amount decimal.Decimal, meta Entry) error {
	const op = "service.ledger.useCore"

	repo := s.store.Ledger().With(tx)

	agent, err := repo.GetAgentForUpdate(ctx, agentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrAgentNotFound)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	p, err := planUse(agent.Balance, agent.Credit, agent.CreditLimit, amount)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := repo.SetBalance(ctx, agentID, p.Balance, p.Credit); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := repo.AppendHistory(ctx, &domain.BalanceEntry{
		AgentID:     agentID,
		EntryType:   domain.EntryDebit,
		Currency:    meta.Currency,
		Rate:        meta.Rate,
		Amount:      amount,
		PaymentType: meta.PaymentType,
		Description: meta.Description,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Increase credits the agent, paying drawn credit down before the
// balance.
func (s *Service) Increase(ctx context.Context, tx postgresrepo.DB, agentID int64, amount decimal.Decimal, meta Entry) error {
	const op = "service.ledger.Increase"

	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%s:%w", op, ErrNonPositiveAmount)
	}

	if tx == nil {
		return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, _ func(uow.AfterCommit)) error {
			return s.increaseCore(ctx, tx, agentID, amount, meta)
		})
	}

	return s.increaseCore(ctx, tx, agentID, amount, meta)
}

func (s *Service) increaseCore(ctx context.Context, tx postgresrepo.DB, agentID int64, amount decimal.Decimal, meta Entry) error {
	const op = "service.ledger.increaseCore"

	repo := s.store.Ledger().With(tx)

	agent, err := repo.GetAgentForUpdate(ctx, agentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrAgentNotFound)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	p := planIncrease(agent.Balance, agent.Credit, amount)

	if err := repo.SetBalance(ctx, agentID, p.Balance, p.Credit); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := repo.AppendHistory(ctx, &domain.BalanceEntry{
		AgentID:     agentID,
		EntryType:   domain.EntryCredit,
		Currency:    meta.Currency,
		Rate:        meta.Rate,
		Amount:      amount,
		PaymentType: meta.PaymentType,
		Description: meta.Description,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// SetCreditLimit rejects limits below what the agent has already drawn.
func (s *Service) SetCreditLimit(ctx context.Context, agentID int64, limit decimal.Decimal) error {
	const op = "service.ledger.SetCreditLimit"

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, _ func(uow.AfterCommit)) error {
		repo := s.store.Ledger().With(tx)

		agent, err := repo.GetAgentForUpdate(ctx, agentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrAgentNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if limit.LessThan(agent.Credit) {
			return fmt.Errorf("%s:%w", op, ErrCreditLimitTooLow)
		}

		if err := repo.SetCreditLimit(ctx, agentID, limit); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
}

func (s *Service) History(ctx context.Context, agentID int64, from, to time.Time) ([]domain.BalanceEntry, error) {
	const op = "service.ledger.History"

	entries, err := s.store.Ledger().History(ctx, agentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return entries, nil
}
