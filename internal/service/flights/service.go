package flights

import (
	"context"
	"errors"
	"fmt"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/repository"
	postgresrepo "github.com/skyfare/skyfare/internal/repository/postgres"
	redisrepo "github.com/skyfare/skyfare/internal/repository/redis"
	"github.com/skyfare/skyfare/internal/service/inventory"
	"github.com/skyfare/skyfare/internal/uow"
)

// Service is the admin surface for flights and their fare classes. It
// owns the capacity invariants: class seats of a flight never exceed
// the flight's capacity, and a class can never shrink below what is
// already sold or held.
type Service struct {
	store     *postgresrepo.Store
	cache     *redisrepo.Cache
	inventory *inventory.Service
	uow       *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, inv *inventory.Service) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		inventory: inv,
		uow:       uow.NewUoW(store),
	}
}

func validTravelType(tt domain.TravelType) bool {
	switch tt {
	case domain.OneWay, domain.RoundTrip, domain.MultiDestination:
		return true
	}
	return false
}

// checkCapacity enforces the flight-level invariant: the seats of all
// classes together never exceed the flight's capacity.
func checkCapacity(flightSeats, otherClassSeats, classSeats int) error {
	if otherClassSeats+classSeats > flightSeats {
		return ErrCapacityExceeded
	}
	return nil
}

// checkResize refuses shrinking a class below what is already sold or
// held.
func checkResize(newSeats, sold, held int) error {
	if newSeats < sold+held {
		return ErrSeatsBelowInUse
	}
	return nil
}

func (s *Service) CreateFlight(ctx context.Context, actor *domain.Agent, f *domain.Flight) (int64, error) {
	const op = "service.flights.CreateFlight"

	if !actor.IsAdmin() {
		return 0, fmt.Errorf("%s:%w", op, ErrAdminOnly)
	}

	id, err := s.store.Flights().CreateFlight(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	s.audit(ctx, actor.ID, "flight.create", nil, f)

	return id, nil
}

// EditFlight rejects a capacity below the summed seats of the flight's
// classes.
func (s *Service) EditFlight(ctx context.Context, actor *domain.Agent, f *domain.Flight) error {
	const op = "service.flights.EditFlight"

	if !actor.IsAdmin() {
		return fmt.Errorf("%s:%w", op, ErrAdminOnly)
	}

	var old *domain.Flight

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		repo := s.store.Flights().With(tx)

		cur, err := repo.GetFlight(ctx, f.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrFlightNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}
		old = cur

		classSeats, err := repo.SumClassSeats(ctx, f.ID, 0)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if err := checkCapacity(f.Seats, classSeats, 0); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := repo.UpdateFlight(ctx, f); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateFlight(ctx, f.ID)
		})

		return nil
	})
	if err != nil {
		return err
	}

	s.audit(ctx, actor.ID, "flight.edit", old, f)

	return nil
}

func (s *Service) RemoveFlight(ctx context.Context, actor *domain.Agent, id int64) error {
	const op = "service.flights.RemoveFlight"

	if !actor.IsAdmin() {
		return fmt.Errorf("%s:%w", op, ErrAdminOnly)
	}

	if err := s.store.Flights().SoftDeleteFlight(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrFlightNotFound)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	_ = s.cache.InvalidateFlight(ctx, id)
	s.audit(ctx, actor.ID, "flight.remove", id, nil)

	return nil
}

// CreateClass checks the flight capacity and name uniqueness inside
// one transaction. A new class starts with every seat available.
func (s *Service) CreateClass(ctx context.Context, actor *domain.Agent, c *domain.Class) (int64, error) {
	const op = "service.flights.CreateClass"

	if !actor.IsAdmin() {
		return 0, fmt.Errorf("%s:%w", op, ErrAdminOnly)
	}

	if !validTravelType(c.TravelType) {
		return 0, fmt.Errorf("%s:%w", op, ErrInvalidTravelType)
	}

	var id int64

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		repo := s.store.Flights().With(tx)

		flight, err := repo.GetFlight(ctx, c.FlightID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrFlightNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		classes, err := repo.ClassesByFlight(ctx, c.FlightID, true)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		seats := 0
		for _, existing := range classes {
			if existing.Name == c.Name {
				return fmt.Errorf("%s:%w", op, ErrClassNameTaken)
			}
			seats += existing.Seats
		}
		if err := checkCapacity(flight.Seats, seats, c.Seats); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		c.AvailableSeats = c.Seats
		c.Currency = flight.Currency

		cid, err := repo.CreateClass(ctx, c)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		id = cid

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateFlight(ctx, c.FlightID, cid)
		})

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.audit(ctx, actor.ID, "class.create", nil, c)

	return id, nil
}

// EditClass recomputes available seats as the new capacity minus seats
// already sold, and refuses a capacity below sold plus held seats.
func (s *Service) EditClass(ctx context.Context, actor *domain.Agent, c *domain.Class) error {
	const op = "service.flights.EditClass"

	if !actor.IsAdmin() {
		return fmt.Errorf("%s:%w", op, ErrAdminOnly)
	}

	if !validTravelType(c.TravelType) {
		return fmt.Errorf("%s:%w", op, ErrInvalidTravelType)
	}

	var old *domain.Class

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		repo := s.store.Flights().With(tx)

		cur, err := repo.GetClass(ctx, c.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrClassNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}
		old = cur

		held, err := s.inventory.HeldSeats(ctx, tx, c.ID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		sold := cur.Sold()
		if err := checkResize(c.Seats, sold, held); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		flight, err := repo.GetFlight(ctx, cur.FlightID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		otherSeats, err := repo.SumClassSeats(ctx, cur.FlightID, c.ID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if err := checkCapacity(flight.Seats, otherSeats, c.Seats); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		c.FlightID = cur.FlightID
		c.Currency = cur.Currency
		c.AvailableSeats = c.Seats - sold

		if err := repo.UpdateClass(ctx, c); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateFlight(ctx, cur.FlightID, c.ID)
		})

		return nil
	})
	if err != nil {
		return err
	}

	s.audit(ctx, actor.ID, "class.edit", old, c)

	return nil
}

func (s *Service) RemoveClass(ctx context.Context, actor *domain.Agent, id int64) error {
	const op = "service.flights.RemoveClass"

	if !actor.IsAdmin() {
		return fmt.Errorf("%s:%w", op, ErrAdminOnly)
	}

	class, err := s.store.Flights().GetClass(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrClassNotFound)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.store.Flights().SoftDeleteClass(ctx, id); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	_ = s.cache.InvalidateFlight(ctx, class.FlightID, id)
	s.audit(ctx, actor.ID, "class.remove", class, nil)

	return nil
}

// audit appends a log row outside the primary transaction; failures
// never block the operation.
func (s *Service) audit(ctx context.Context, actorID int64, action string, oldData, newData any) {
	_ = s.store.Audit().Append(ctx, actorID, action, oldData, newData)
}
