package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/repository"
)

// OrderRepo persists pre-orders and orders. Both are stored as jsonb
// snapshots with the columns a query ever filters on lifted out.
type OrderRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *OrderRepo) With(db DB) *OrderRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *OrderRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

type OrderFilter struct {
	AgentID int64
	Status  domain.TicketStatus
	Limit   int
	Offset  int
}

func (r *OrderRepo) CreatePreOrder(ctx context.Context, po *domain.PreOrder) error {
	const op = "postgres.OrderRepo.CreatePreOrder"

	doc, err := json.Marshal(po)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	_, err = r.handle().Exec(ctx,
		`INSERT INTO pre_orders(pnr, agent_id, doc, created_at)
		 VALUES ($1, $2, $3, $4)`,
		po.PNR, po.AgentID, doc, po.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *OrderRepo) GetPreOrder(ctx context.Context, pnr string) (*domain.PreOrder, error) {
	const op = "postgres.OrderRepo.GetPreOrder"

	var doc []byte
	if err := r.handle().QueryRow(ctx,
		`SELECT doc FROM pre_orders WHERE pnr = $1`, pnr,
	).Scan(&doc); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	var po domain.PreOrder
	if err := json.Unmarshal(doc, &po); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &po, nil
}

func (r *OrderRepo) DeletePreOrder(ctx context.Context, pnr string) error {
	const op = "postgres.OrderRepo.DeletePreOrder"

	tag, err := r.handle().Exec(ctx, `DELETE FROM pre_orders WHERE pnr = $1`, pnr)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *OrderRepo) ListPreOrders(ctx context.Context, agentID int64) ([]domain.PreOrder, error) {
	const op = "postgres.OrderRepo.ListPreOrders"

	rows, err := r.handle().Query(ctx,
		`SELECT doc FROM pre_orders
		 WHERE $1 = 0 OR agent_id = $1
		 ORDER BY created_at DESC`,
		agentID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.PreOrder
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		var po domain.PreOrder
		if err := json.Unmarshal(doc, &po); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		out = append(out, po)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *OrderRepo) CreateOrder(ctx context.Context, o *domain.Order) error {
	const op = "postgres.OrderRepo.CreateOrder"

	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	_, err = r.handle().Exec(ctx,
		`INSERT INTO orders(pnr, agent_id, ticket_status, parent_pnr, doc, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $6)`,
		o.PNR, o.AgentID, o.TicketStatus, o.ParentPNR, doc, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *OrderRepo) GetOrder(ctx context.Context, pnr string) (*domain.Order, error) {
	const op = "postgres.OrderRepo.GetOrder"

	var doc []byte
	if err := r.handle().QueryRow(ctx,
		`SELECT doc FROM orders WHERE pnr = $1`, pnr,
	).Scan(&doc); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	var o domain.Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &o, nil
}

// UpdateOrder replaces the whole order snapshot. The status column is
// kept in sync for filtered listings.
func (r *OrderRepo) UpdateOrder(ctx context.Context, o *domain.Order) error {
	const op = "postgres.OrderRepo.UpdateOrder"

	o.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	tag, err := r.handle().Exec(ctx,
		`UPDATE orders
		 SET ticket_status = $2, doc = $3, updated_at = $4
		 WHERE pnr = $1`,
		o.PNR, o.TicketStatus, doc, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *OrderRepo) OrderExists(ctx context.Context, pnr string) (bool, error) {
	const op = "postgres.OrderRepo.OrderExists"

	var exists bool
	if err := r.handle().QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE pnr = $1)`, pnr,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return exists, nil
}

func (r *OrderRepo) ListOrders(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	const op = "postgres.OrderRepo.ListOrders"

	if f.Limit <= 0 {
		f.Limit = 100
	}

	rows, err := r.handle().Query(ctx,
		`SELECT doc FROM orders
		 WHERE ($1 = 0 OR agent_id = $1)
		   AND ($2 = '' OR ticket_status = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		f.AgentID, string(f.Status), f.Limit, f.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		var o domain.Order
		if err := json.Unmarshal(doc, &o); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}
