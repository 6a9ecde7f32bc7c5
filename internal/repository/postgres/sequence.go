package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceRepo hands out monotonically increasing numbers for PNRs and
// ticket numbers. The increment-and-read is a single statement, so two
// concurrent callers can never observe the same value.
type SequenceRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SequenceRepo) With(db DB) *SequenceRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SequenceRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *SequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	const op = "postgres.SequenceRepo.Next"

	var value int64
	err := r.handle().QueryRow(ctx,
		`INSERT INTO sequences(name, value)
		 VALUES ($1, 1)
		 ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`,
		name,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return value, nil
}
