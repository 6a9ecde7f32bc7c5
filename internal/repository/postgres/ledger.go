package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/repository"
)

type LedgerRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *LedgerRepo) With(db DB) *LedgerRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *LedgerRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const agentColumns = `id, company, email, role, status, balance, credit, credit_limit, created_at`

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var a domain.Agent
	err := row.Scan(
		&a.ID, &a.Company, &a.Email, &a.Role, &a.Status,
		&a.Balance, &a.Credit, &a.CreditLimit, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *LedgerRepo) GetAgent(ctx context.Context, id int64) (*domain.Agent, error) {
	const op = "postgres.LedgerRepo.GetAgent"

	a, err := scanAgent(r.handle().QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return a, nil
}

// GetAgentForUpdate row-locks the agent for the duration of the
// surrounding transaction. Only meaningful through With(tx).
func (r *LedgerRepo) GetAgentForUpdate(ctx context.Context, id int64) (*domain.Agent, error) {
	const op = "postgres.LedgerRepo.GetAgentForUpdate"

	a, err := scanAgent(r.handle().QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return a, nil
}

// AdminAgent returns the agent that collects refund commissions.
func (r *LedgerRepo) AdminAgent(ctx context.Context) (*domain.Agent, error) {
	const op = "postgres.LedgerRepo.AdminAgent"

	a, err := scanAgent(r.handle().QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE role = 'admin' ORDER BY id LIMIT 1`,
	))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return a, nil
}

func (r *LedgerRepo) SetBalance(ctx context.Context, id int64, balance, credit decimal.Decimal) error {
	const op = "postgres.LedgerRepo.SetBalance"

	tag, err := r.handle().Exec(ctx,
		`UPDATE agents SET balance = $2, credit = $3 WHERE id = $1`,
		id, balance, credit,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *LedgerRepo) SetCreditLimit(ctx context.Context, id int64, limit decimal.Decimal) error {
	const op = "postgres.LedgerRepo.SetCreditLimit"

	tag, err := r.handle().Exec(ctx,
		`UPDATE agents SET credit_limit = $2 WHERE id = $1`,
		id, limit,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *LedgerRepo) AppendHistory(ctx context.Context, e *domain.BalanceEntry) error {
	const op = "postgres.LedgerRepo.AppendHistory"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO balance_history(agent_id, entry_type, currency, rate, amount,
		                             payment_type, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.AgentID, e.EntryType, e.Currency, e.Rate, e.Amount,
		e.PaymentType, e.Description, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *LedgerRepo) History(
	ctx context.Context,
	agentID int64,
	from, to time.Time,
) ([]domain.BalanceEntry, error) {
	const op = "postgres.LedgerRepo.History"

	rows, err := r.handle().Query(ctx,
		`SELECT id, agent_id, entry_type, currency, rate, amount,
		        payment_type, description, created_at
		 FROM balance_history
		 WHERE agent_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at`,
		agentID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.BalanceEntry
	for rows.Next() {
		var e domain.BalanceEntry
		if err := rows.Scan(
			&e.ID, &e.AgentID, &e.EntryType, &e.Currency, &e.Rate, &e.Amount,
			&e.PaymentType, &e.Description, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}
