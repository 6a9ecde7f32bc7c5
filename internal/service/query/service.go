package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/redisx"
	"github.com/skyfare/skyfare/internal/repository"
	postgresrepo "github.com/skyfare/skyfare/internal/repository/postgres"
	redisrepo "github.com/skyfare/skyfare/internal/repository/redis"
	"github.com/skyfare/skyfare/internal/service/inventory"
)

type Config struct {
	FlightSummaryTTL time.Duration
	ClassesTTL       time.Duration
	AvailabilityTTL  time.Duration
	RatesTTL         time.Duration
}

// Service is the read side: cached flight and class views, order
// lookups, exchange rates.
type Service struct {
	store     *postgresrepo.Store
	cache     *redisrepo.Cache
	inventory *inventory.Service
	cfg       Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, inv *inventory.Service, cfg Config) *Service {
	if cfg.FlightSummaryTTL <= 0 {
		cfg.FlightSummaryTTL = 60 * time.Second
	}

	if cfg.ClassesTTL <= 0 {
		cfg.ClassesTTL = 30 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 10 * time.Second
	}

	if cfg.RatesTTL <= 0 {
		cfg.RatesTTL = 10 * time.Minute
	}

	return &Service{
		store:     store,
		cache:     cache,
		inventory: inv,
		cfg:       cfg,
	}
}

// Flight retrieves a flight by ID through the cache.
func (s *Service) Flight(ctx context.Context, id int64) (*domain.Flight, error) {
	const op = "service.query.Flight"

	key := redisx.KeyFlightSummary(id)

	flight, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.FlightSummaryTTL,
		func(ctx context.Context) (domain.Flight, error) {
			f, err := s.store.Flights().GetFlight(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Flight{}, ErrFlightNotFound
				}
				return domain.Flight{}, err
			}
			return *f, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &flight, nil
}

func (s *Service) Flights(
	ctx context.Context,
	origin, destination string,
	from time.Time,
	limit, offset int,
) ([]domain.Flight, error) {
	const op = "service.query.Flights"

	flights, err := s.store.Flights().ListFlights(ctx, origin, destination, from, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return flights, nil
}

// Classes lists a flight's classes. The non-admin view hides
// admin-only classes and is the one worth caching; the admin view
// always reads through.
func (s *Service) Classes(ctx context.Context, flightID int64, includeAdminOnly bool) ([]domain.Class, error) {
	const op = "service.query.Classes"

	if includeAdminOnly {
		classes, err := s.store.Flights().ClassesByFlight(ctx, flightID, true)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return classes, nil
	}

	key := redisx.KeyFlightClasses(flightID)

	classes, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.ClassesTTL,
		func(ctx context.Context) ([]domain.Class, error) {
			return s.store.Flights().ClassesByFlight(ctx, flightID, false)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return classes, nil
}

// Availability is the holds-adjusted free seat count of a class.
func (s *Service) Availability(ctx context.Context, classID int64) (int, error) {
	const op = "service.query.Availability"

	key := redisx.KeyClassAvailability(classID)

	available, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (int, error) {
			n, err := s.inventory.Available(ctx, nil, classID)
			if err != nil {
				if errors.Is(err, inventory.ErrClassNotFound) {
					return 0, ErrClassNotFound
				}
				return 0, err
			}
			return n, nil
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return available, nil
}

// OrderByPNR returns an order; agents only see their own, admins any.
func (s *Service) OrderByPNR(ctx context.Context, actor *domain.Agent, pnr string) (*domain.Order, error) {
	const op = "service.query.OrderByPNR"

	o, err := s.store.Orders().GetOrder(ctx, pnr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if o.AgentID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	return o, nil
}

// OrderByPNRAndSurname is the public itinerary lookup: no agent
// context, the surname of any passenger acts as the shared secret.
func (s *Service) OrderByPNRAndSurname(ctx context.Context, pnr, surname string) (*domain.Order, error) {
	const op = "service.query.OrderByPNRAndSurname"

	o, err := s.store.Orders().GetOrder(ctx, pnr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	for _, p := range o.Passengers {
		if strings.EqualFold(p.LastName, surname) {
			return o, nil
		}
	}

	return nil, fmt.Errorf("%s:%w", op, ErrOrderNotFound)
}

func (s *Service) Orders(ctx context.Context, actor *domain.Agent, status domain.TicketStatus, limit, offset int) ([]domain.Order, error) {
	const op = "service.query.Orders"

	filter := postgresrepo.OrderFilter{
		AgentID: actor.ID,
		Status:  status,
		Limit:   limit,
		Offset:  offset,
	}
	if actor.IsAdmin() {
		filter.AgentID = 0
	}

	orders, err := s.store.Orders().ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return orders, nil
}

func (s *Service) PreOrders(ctx context.Context, actor *domain.Agent) ([]domain.PreOrder, error) {
	const op = "service.query.PreOrders"

	agentID := actor.ID
	if actor.IsAdmin() {
		agentID = 0
	}

	preOrders, err := s.store.Orders().ListPreOrders(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return preOrders, nil
}

func (s *Service) RateFor(ctx context.Context, code string, day time.Time) (domain.Rate, error) {
	const op = "service.query.RateFor"

	rate, err := s.store.Rates().RateFor(ctx, code, day)
	if err != nil {
		if errors.Is(err, repository.ErrRateUnavailable) {
			return domain.Rate{}, fmt.Errorf("%s:%w", op, ErrRateUnavailable)
		}
		return domain.Rate{}, fmt.Errorf("%s:%w", op, err)
	}

	return rate, nil
}

// RatesByRange returns the daily rate table rows of a date range,
// cached per single-day ranges since today's table is the hot read.
func (s *Service) RatesByRange(ctx context.Context, from, to time.Time) ([]domain.Rate, error) {
	const op = "service.query.RatesByRange"

	if from.Equal(to) {
		key := redisx.KeyRatesDay(from.UTC().Format("2006-01-02"))
		rates, err := redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			key,
			s.cfg.RatesTTL,
			func(ctx context.Context) ([]domain.Rate, error) {
				return s.store.Rates().RatesByRange(ctx, from, to)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return rates, nil
	}

	rates, err := s.store.Rates().RatesByRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return rates, nil
}

// UpsertRate sets a currency's rate for a day and drops the cached
// table for that day.
func (s *Service) UpsertRate(ctx context.Context, actor *domain.Agent, day time.Time, code string, rate decimal.Decimal) error {
	const op = "service.query.UpsertRate"

	if !actor.IsAdmin() {
		return fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	if err := s.store.Rates().UpsertRate(ctx, day, code, rate); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	_ = s.cache.Del(ctx, redisx.KeyRatesDay(day.UTC().Format("2006-01-02")))

	return nil
}
