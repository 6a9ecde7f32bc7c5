package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/repository"
)

type InventoryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *InventoryRepo) With(db DB) *InventoryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *InventoryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// ActiveHoldSeats is the number of seats of a class currently claimed
// by unexpired holds.
func (r *InventoryRepo) ActiveHoldSeats(ctx context.Context, classID int64) (int, error) {
	const op = "postgres.InventoryRepo.ActiveHoldSeats"

	var held int
	err := r.handle().QueryRow(ctx,
		`SELECT COALESCE(SUM(seats), 0)
		 FROM seat_holds
		 WHERE class_id = $1 AND expires_at > now()`,
		classID,
	).Scan(&held)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return held, nil
}

func (r *InventoryRepo) PlaceHold(
	ctx context.Context,
	pnr string,
	classID int64,
	seats int,
	ttl time.Duration,
) error {
	const op = "postgres.InventoryRepo.PlaceHold"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO seat_holds(pnr, class_id, seats, expires_at)
		 VALUES ($1, $2, $3, now() + $4)`,
		pnr, classID, seats, ttl,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *InventoryRepo) HoldsByPNR(ctx context.Context, pnr string) ([]domain.SeatHold, error) {
	const op = "postgres.InventoryRepo.HoldsByPNR"

	rows, err := r.handle().Query(ctx,
		`SELECT id, pnr, class_id, seats, created_at, expires_at
		 FROM seat_holds
		 WHERE pnr = $1 AND expires_at > now()`,
		pnr,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.SeatHold
	for rows.Next() {
		var h domain.SeatHold
		if err := rows.Scan(&h.ID, &h.PNR, &h.ClassID, &h.Seats, &h.CreatedAt, &h.ExpiresAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *InventoryRepo) ReleaseHolds(ctx context.Context, pnr string) error {
	const op = "postgres.InventoryRepo.ReleaseHolds"

	if _, err := r.handle().Exec(ctx, `DELETE FROM seat_holds WHERE pnr = $1`, pnr); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Commit permanently consumes seats of a class. seatsDelta shrinks the
// class capacity itself (normally 0), availableDelta shrinks the
// sellable remainder. Fails with repository.ErrNotEnoughSeats when the
// class cannot absorb the decrement.
func (r *InventoryRepo) Commit(ctx context.Context, classID int64, seatsDelta, availableDelta int) error {
	const op = "postgres.InventoryRepo.Commit"

	tag, err := r.handle().Exec(ctx,
		`UPDATE classes
		 SET seats = seats - $2, available_seats = available_seats - $3
		 WHERE id = $1 AND NOT deleted
		   AND seats - $2 >= 0
		   AND available_seats - $3 >= 0`,
		classID, seatsDelta, availableDelta,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotEnoughSeats)
	}

	return nil
}

// Release is the inverse of Commit.
func (r *InventoryRepo) Release(ctx context.Context, classID int64, seatsDelta, availableDelta int) error {
	const op = "postgres.InventoryRepo.Release"

	tag, err := r.handle().Exec(ctx,
		`UPDATE classes
		 SET seats = seats + $2, available_seats = available_seats + $3
		 WHERE id = $1 AND NOT deleted`,
		classID, seatsDelta, availableDelta,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// ExpireHolds deletes holds past their TTL and returns how many were
// reaped.
func (r *InventoryRepo) ExpireHolds(ctx context.Context) (int64, error) {
	const op = "postgres.InventoryRepo.ExpireHolds"

	tag, err := r.handle().Exec(ctx, `DELETE FROM seat_holds WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}
