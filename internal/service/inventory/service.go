package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skyfare/skyfare/internal/repository"
	postgresrepo "github.com/skyfare/skyfare/internal/repository/postgres"
)

type Config struct {
	HoldTTL time.Duration
}

// Service tracks seat counters and holds. Every method takes the
// caller's transaction handle so availability checks and the writes
// that depend on them share one Serializable transaction; a nil handle
// runs against the pool.
type Service struct {
	store *postgresrepo.Store
	cfg   Config
}

func New(store *postgresrepo.Store, cfg Config) *Service {
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = 30 * time.Minute
	}

	return &Service{store: store, cfg: cfg}
}

func (s *Service) repo(tx postgresrepo.DB) *postgresrepo.InventoryRepo {
	r := s.store.Inventory()
	if tx != nil {
		r = r.With(tx)
	}
	return r
}

// Available is the number of seats of a class that can still be held:
// the class's available counter minus seats claimed by unexpired holds.
func (s *Service) Available(ctx context.Context, tx postgresrepo.DB, classID int64) (int, error) {
	const op = "service.inventory.Available"

	flights := s.store.Flights()
	if tx != nil {
		flights = flights.With(tx)
	}

	class, err := flights.GetClass(ctx, classID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%s:%w", op, ErrClassNotFound)
		}
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	held, err := s.repo(tx).ActiveHoldSeats(ctx, classID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return class.AvailableSeats - held, nil
}

// CheckAvailability fails with ErrNotEnoughSeats when the class cannot
// absorb the requested seats.
func (s *Service) CheckAvailability(ctx context.Context, tx postgresrepo.DB, classID int64, requested int) error {
	const op = "service.inventory.CheckAvailability"

	available, err := s.Available(ctx, tx, classID)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if available < requested {
		return fmt.Errorf("%s:%w", op, ErrNotEnoughSeats)
	}

	return nil
}

func (s *Service) PlaceHold(ctx context.Context, tx postgresrepo.DB, pnr string, classID int64, seats int) error {
	const op = "service.inventory.PlaceHold"

	if err := s.repo(tx).PlaceHold(ctx, pnr, classID, seats, s.cfg.HoldTTL); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Service) ReleaseHolds(ctx context.Context, tx postgresrepo.DB, pnr string) error {
	const op = "service.inventory.ReleaseHolds"

	if err := s.repo(tx).ReleaseHolds(ctx, pnr); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Commit permanently consumes seats on order confirmation.
func (s *Service) Commit(ctx context.Context, tx postgresrepo.DB, classID int64, seatsDelta, availableDelta int) error {
	const op = "service.inventory.Commit"

	if err := s.repo(tx).Commit(ctx, classID, seatsDelta, availableDelta); err != nil {
		if errors.Is(err, repository.ErrNotEnoughSeats) {
			return fmt.Errorf("%s:%w", op, ErrNotEnoughSeats)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Release gives seats back on cancellation or refund.
func (s *Service) Release(ctx context.Context, tx postgresrepo.DB, classID int64, seatsDelta, availableDelta int) error {
	const op = "service.inventory.Release"

	if err := s.repo(tx).Release(ctx, classID, seatsDelta, availableDelta); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrClassNotFound)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Transfer moves consumed seats from one class to another on refund:
// the original class gives up capacity, the receiver gains capacity
// and sellable seats. Classes may be equal, in which case the seats
// simply become sellable again.
func (s *Service) Transfer(ctx context.Context, tx postgresrepo.DB, fromClassID, toClassID int64, seats int) error {
	const op = "service.inventory.Transfer"

	if err := s.Commit(ctx, tx, fromClassID, seats, 0); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.Release(ctx, tx, toClassID, seats, seats); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Expire reaps holds past their TTL. The app runs it on a ticker.
func (s *Service) Expire(ctx context.Context) (int64, error) {
	const op = "service.inventory.Expire"

	released, err := s.store.Inventory().ExpireHolds(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return released, nil
}

// HeldSeats reports the outstanding hold total for a class, used by
// the class capacity checks.
func (s *Service) HeldSeats(ctx context.Context, tx postgresrepo.DB, classID int64) (int, error) {
	const op = "service.inventory.HeldSeats"

	held, err := s.repo(tx).ActiveHoldSeats(ctx, classID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return held, nil
}
