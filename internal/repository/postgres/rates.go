package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/repository"
)

// RateRepo reads and writes the daily exchange-rate table. Rates map
// one unit of a currency into the ledger currency.
type RateRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *RateRepo) With(db DB) *RateRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *RateRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *RateRepo) RateFor(ctx context.Context, code string, day time.Time) (domain.Rate, error) {
	const op = "postgres.RateRepo.RateFor"

	day = day.UTC().Truncate(24 * time.Hour)

	var value decimal.Decimal
	err := r.handle().QueryRow(ctx,
		`SELECT rate FROM exchange_rates WHERE day = $1 AND code = $2`,
		day, code,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rate{}, fmt.Errorf("%s:%w", op, repository.ErrRateUnavailable)
		}
		return domain.Rate{}, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return domain.Rate{Currency: code, Value: value, Date: day}, nil
}

func (r *RateRepo) RatesByRange(ctx context.Context, from, to time.Time) ([]domain.Rate, error) {
	const op = "postgres.RateRepo.RatesByRange"

	rows, err := r.handle().Query(ctx,
		`SELECT code, rate, day
		 FROM exchange_rates
		 WHERE day >= $1 AND day <= $2
		 ORDER BY day, code`,
		from.UTC().Truncate(24*time.Hour), to.UTC().Truncate(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Rate
	for rows.Next() {
		var rate domain.Rate
		if err := rows.Scan(&rate.Currency, &rate.Value, &rate.Date); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *RateRepo) UpsertRate(ctx context.Context, day time.Time, code string, rate decimal.Decimal) error {
	const op = "postgres.RateRepo.UpsertRate"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO exchange_rates(day, code, rate)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (day, code) DO UPDATE SET rate = EXCLUDED.rate`,
		day.UTC().Truncate(24*time.Hour), code, rate,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
