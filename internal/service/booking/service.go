package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/pricing"
	"github.com/skyfare/skyfare/internal/redisx"
	"github.com/skyfare/skyfare/internal/repository"
	postgresrepo "github.com/skyfare/skyfare/internal/repository/postgres"
	redisrepo "github.com/skyfare/skyfare/internal/repository/redis"
	"github.com/skyfare/skyfare/internal/service/inventory"
	"github.com/skyfare/skyfare/internal/service/ledger"
	"github.com/skyfare/skyfare/internal/uow"
)

// MaxPassengers caps the party size of a single reservation.
const MaxPassengers = 9

const (
	seqPNR    = "pnr"
	seqTicket = "ticket"
)

type Config struct {
	// LedgerCurrency is the currency every balance operates in.
	LedgerCurrency string
}

// Service drives the order lifecycle. Every multi-entity mutation runs
// in one Serializable transaction through the unit of work; cache
// invalidation and order events fire only after commit.
type Service struct {
	store     *postgresrepo.Store
	cache     *redisrepo.Cache
	pubsub    *redisx.OrdersPubSub
	limiter   *redisrepo.SlidingWindowLimiter
	inventory *inventory.Service
	ledger    *ledger.Service
	uow       *uow.UoW
	cfg       Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.OrdersPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	inv *inventory.Service,
	led *ledger.Service,
	cfg Config,
) *Service {
	if cfg.LedgerCurrency == "" {
		cfg.LedgerCurrency = "USD"
	}

	return &Service{
		store:     store,
		cache:     cache,
		pubsub:    pubsub,
		limiter:   limiter,
		inventory: inv,
		ledger:    led,
		uow:       uow.NewUoW(store),
		cfg:       cfg,
	}
}

type LegInput struct {
	FlightID int64
	ClassID  int64
}

type PreOrderInput struct {
	AgentID    int64
	TravelType domain.TravelType
	Adults     int
	Children   int
	Infants    int
	Legs       []LegInput
}

func (in PreOrderInput) counts() pricing.Counts {
	return pricing.Counts{Adults: in.Adults, Children: in.Children, Infants: in.Infants}
}

// PreOrder quotes the itinerary, allocates a PNR, places seat holds
// and persists the draft, all in one transaction with the availability
// check, so two racing pre-orders can never oversubscribe a class.
func (s *Service) PreOrder(ctx context.Context, in PreOrderInput, rlKey string) (*domain.PreOrder, error) {
	const op = "service.booking.PreOrder"

	counts := in.counts()
	if counts.Total() == 0 || in.Adults < 1 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidItinerary)
	}
	if counts.Total() > MaxPassengers {
		return nil, fmt.Errorf("%s:%w", op, ErrTooManyPassengers)
	}
	if err := validateLegCount(in.TravelType, len(in.Legs)); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, _, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w", op, ErrRateLimited)
		}
	}

	agent, err := s.ledger.Agent(ctx, in.AgentID)
	if err != nil {
		if errors.Is(err, ledger.ErrAgentNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrAgentNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var po *domain.PreOrder

	err = s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		flightsRepo := s.store.Flights().With(tx)

		legs := make([]domain.Leg, 0, len(in.Legs))
		classes := make([]domain.Class, 0, len(in.Legs))

		for _, legIn := range in.Legs {
			flight, err := flightsRepo.GetFlight(ctx, legIn.FlightID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%s:%w", op, ErrFlightNotFound)
				}
				return fmt.Errorf("%s:%w", op, err)
			}

			class, err := flightsRepo.GetClass(ctx, legIn.ClassID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%s:%w", op, ErrClassNotFound)
				}
				return fmt.Errorf("%s:%w", op, err)
			}

			if class.FlightID != flight.ID {
				return fmt.Errorf("%s:%w", op, ErrClassMismatch)
			}
			if class.AdminOnly && !agent.IsAdmin() {
				return fmt.Errorf("%s:%w", op, ErrClassNotFound)
			}

			legs = append(legs, domain.Leg{
				FlightID:    flight.ID,
				ClassID:     class.ID,
				Origin:      flight.Origin,
				Destination: flight.Destination,
				DepartsAt:   flight.StartsAt,
				ArrivesAt:   flight.EndsAt,
				Airline:     flight.Airline,
				AirlineCode: flight.AirlineCode,
				ClassName:   class.Name,
				Currency:    flight.Currency,
			})
			classes = append(classes, *class)
		}

		if err := validateLegRoute(in.TravelType, legs); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		days := tripDays(legs)
		today := time.Now().UTC()

		quotes := make([]pricing.Quote, 0, len(legs))
		for i := range legs {
			rate, err := s.store.Rates().With(tx).RateFor(ctx, legs[i].Currency, today)
			if err != nil {
				if errors.Is(err, repository.ErrRateUnavailable) {
					return fmt.Errorf("%s:%w", op, ErrRateUnavailable)
				}
				return fmt.Errorf("%s:%w", op, err)
			}

			q, err := pricing.Compute(pricing.Input{
				Class:      classes[i],
				Counts:     counts,
				TravelType: in.TravelType,
				TripDays:   days,
				Rate:       rate,
			})
			if err != nil {
				if errors.Is(err, pricing.ErrInvalidTravelType) {
					return fmt.Errorf("%s:%w", op, ErrInvalidTravelType)
				}
				return fmt.Errorf("%s:%w", op, err)
			}
			quotes = append(quotes, q)
		}

		usedSeats := counts.Seats()
		for i := range legs {
			if err := s.inventory.CheckAvailability(ctx, tx, legs[i].ClassID, usedSeats); err != nil {
				if errors.Is(err, inventory.ErrNotEnoughSeats) {
					return fmt.Errorf("%s:%w", op, ErrNotEnoughSeats)
				}
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		pnr, err := s.nextPNR(ctx, tx)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		for i := range legs {
			if err := s.inventory.PlaceHold(ctx, tx, pnr, legs[i].ClassID, usedSeats); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		po = &domain.PreOrder{
			PNR:        pnr,
			AgentID:    in.AgentID,
			TravelType: in.TravelType,
			Adults:     in.Adults,
			Children:   in.Children,
			Infants:    in.Infants,
			UsedSeats:  usedSeats,
			Legs:       legs,
			Price:      pricing.TicketPrice(quotes, counts, pricing.ViewPassenger),
			PriceCost:  pricing.TicketPrice(quotes, counts, pricing.ViewCost),
			CreatedAt:  time.Now().UTC(),
		}

		if err := s.store.Orders().With(tx).CreatePreOrder(ctx, po); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.invalidateLegs(ctx, legs)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return po, nil
}

// CancelPreOrder drops the draft and releases its holds.
func (s *Service) CancelPreOrder(ctx context.Context, actor *domain.Agent, pnr string) error {
	const op = "service.booking.CancelPreOrder"

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		po, err := s.store.Orders().With(tx).GetPreOrder(ctx, pnr)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrPreOrderNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if po.AgentID != actor.ID && !actor.IsAdmin() {
			return fmt.Errorf("%s:%w", op, ErrForbidden)
		}

		if err := s.inventory.ReleaseHolds(ctx, tx, pnr); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Orders().With(tx).DeletePreOrder(ctx, pnr); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.invalidateLegs(ctx, po.Legs)
		})

		return nil
	})
}

// ExpireHolds reaps stale seat holds; the app calls it periodically.
func (s *Service) ExpireHolds(ctx context.Context) (int64, error) {
	return s.inventory.Expire(ctx)
}

func (s *Service) nextPNR(ctx context.Context, tx postgresrepo.DB) (string, error) {
	n, err := s.store.Sequences().With(tx).Next(ctx, seqPNR)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("F%d", n), nil
}

func (s *Service) nextTicketNumber(ctx context.Context, tx postgresrepo.DB) (string, error) {
	n, err := s.store.Sequences().With(tx).Next(ctx, seqTicket)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FT%d", n), nil
}

func (s *Service) invalidateLegs(ctx context.Context, legs []domain.Leg) {
	byFlight := make(map[int64][]int64, len(legs))
	for _, l := range legs {
		byFlight[l.FlightID] = append(byFlight[l.FlightID], l.ClassID)
	}
	for flightID, classIDs := range byFlight {
		_ = s.cache.InvalidateFlight(ctx, flightID, classIDs...)
	}
}

func (s *Service) publish(ctx context.Context, pnr string, status domain.TicketStatus) {
	_ = s.pubsub.PublishOrderChanged(ctx, pnr, string(status))
}

// audit appends a log entry after commit; failures never block the
// primary operation.
func (s *Service) audit(ctx context.Context, actorID int64, action string, oldData, newData any) {
	_ = s.store.Audit().Append(ctx, actorID, action, oldData, newData)
}
