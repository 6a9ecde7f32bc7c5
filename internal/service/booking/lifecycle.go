package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/pricing"
	"github.com/skyfare/skyfare/internal/repository"
	postgresrepo "github.com/skyfare/skyfare/internal/repository/postgres"
	"github.com/skyfare/skyfare/internal/service/ledger"
	"github.com/skyfare/skyfare/internal/uow"
)

func (s *Service) getOwnedOrder(
	ctx context.Context,
	tx postgresrepo.DB,
	actor *domain.Agent,
	pnr string,
) (*domain.Order, error) {
	o, err := s.store.Orders().With(tx).GetOrder(ctx, pnr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if o.AgentID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	return o, nil
}

// CancelOrder is allowed only while the order is still an unpaid
// Booking. The seats go back to their classes.
func (s *Service) CancelOrder(ctx context.Context, actor *domain.Agent, pnr string) error {
	const op = "service.booking.CancelOrder"

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		o, err := s.getOwnedOrder(ctx, tx, actor, pnr)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := requireStatus(o, domain.StatusBooking); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		for classID, seats := range releasePlan(o) {
			if err := s.inventory.Release(ctx, tx, classID, 0, seats); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		prev := *o
		o.TicketStatus = domain.StatusCanceled
		if err := s.store.Orders().With(tx).UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.invalidateLegs(ctx, o.Legs)
			s.publish(ctx, pnr, domain.StatusCanceled)
			s.audit(ctx, actor.ID, "order.cancel", prev, o)
		})

		return nil
	})
}

// BookingToTicketing captures the deferred payment and promotes the
// order.
func (s *Service) BookingToTicketing(ctx context.Context, actor *domain.Agent, pnr, paymentType string) error {
	const op = "service.booking.BookingToTicketing"

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		o, err := s.getOwnedOrder(ctx, tx, actor, pnr)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := requireStatus(o, domain.StatusBooking); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		err = s.ledger.Use(ctx, tx, o.AgentID, o.Price.Total, ledger.Entry{
			Currency:    s.cfg.LedgerCurrency,
			Rate:        o.Price.Rate,
			PaymentType: paymentType,
			Description: "ticketing " + pnr,
		})
		if err != nil {
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				return fmt.Errorf("%s:%w", op, ErrInsufficientFunds)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		prev := *o
		o.TicketStatus = domain.StatusTicketing
		o.PaymentStatus = domain.PaymentPaid
		o.PaymentType = paymentType

		if err := s.store.Orders().With(tx).UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.publish(ctx, pnr, domain.StatusTicketing)
			s.audit(ctx, actor.ID, "order.ticketing", prev, o)
		})

		return nil
	})
}

// Refund reverses a ticketed order: the agent gets the ticket price
// minus the commission, the admin collects the commission, and the
// consumed seats move to admin-chosen replacement classes (which may
// be the originals). Admin only, Ticketing only.
func (s *Service) Refund(ctx context.Context, actor *domain.Agent, pnr string, replacementClassIDs []int64) error {
	const op = "service.booking.Refund"

	if !actor.IsAdmin() {
		return fmt.Errorf("%s:%w", op, ErrForbidden)
	}

	return s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		o, err := s.store.Orders().With(tx).GetOrder(ctx, pnr)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrOrderNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := requireStatus(o, domain.StatusTicketing); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if len(replacementClassIDs) != len(o.Legs) {
			return fmt.Errorf("%s:%w", op, ErrClassMismatch)
		}

		flightsRepo := s.store.Flights().With(tx)

		for i, leg := range o.Legs {
			replacement, err := flightsRepo.GetClass(ctx, replacementClassIDs[i])
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%s:%w", op, ErrClassNotFound)
				}
				return fmt.Errorf("%s:%w", op, err)
			}
			if replacement.FlightID != leg.FlightID {
				return fmt.Errorf("%s:%w", op, ErrClassMismatch)
			}
		}

		// the commission was frozen into the price at confirmation;
		// class commission edits after the sale never change it
		agentRefund, commission, err := refundAmounts(o.Price)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if agentRefund.IsPositive() {
			err := s.ledger.Increase(ctx, tx, o.AgentID, agentRefund, ledger.Entry{
				Currency:    s.cfg.LedgerCurrency,
				Rate:        o.Price.Rate,
				Description: "refund " + pnr,
			})
			if err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		if commission.IsPositive() {
			admin, err := s.store.Ledger().With(tx).AdminAgent(ctx)
			if err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
			err = s.ledger.Increase(ctx, tx, admin.ID, commission, ledger.Entry{
				Currency:    s.cfg.LedgerCurrency,
				Rate:        o.Price.Rate,
				Description: "refund commission " + pnr,
			})
			if err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		for i, leg := range o.Legs {
			if err := s.inventory.Transfer(ctx, tx, leg.ClassID, replacementClassIDs[i], o.UsedSeats); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		prev := *o
		o.TicketStatus = domain.StatusRefunded
		if err := s.store.Orders().With(tx).UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.invalidateLegs(ctx, o.Legs)
			s.publish(ctx, pnr, domain.StatusRefunded)
			s.audit(ctx, actor.ID, "order.refund", prev, o)
		})

		return nil
	})
}

// Split carves one passenger out of a ticketed order into its own
// child order. Both children get fresh PNRs; the parent becomes
// terminal with back-references. Seat and ledger totals are untouched:
// the children together own exactly what the parent owned.
func (s *Service) Split(ctx context.Context, actor *domain.Agent, pnr, ticketNumber string) (splitPNR, mainPNR string, err error) {
	const op = "service.booking.Split"

	err = s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		o, err := s.getOwnedOrder(ctx, tx, actor, pnr)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := requireStatus(o, domain.StatusTicketing); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if len(o.Passengers) < 2 {
			return fmt.Errorf("%s:%w", op, ErrCannotSplit)
		}

		target := o.PassengerByTicket(ticketNumber)
		if target == nil {
			return fmt.Errorf("%s:%w", op, ErrPassengerNotFound)
		}

		splitPrice, mainPrice := pricing.SplitTicketPrice(o.Price, target.Type)

		sp, err := s.nextPNR(ctx, tx)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		mp, err := s.nextPNR(ctx, tx)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		splitPNR, mainPNR = sp, mp

		splitSeats := 1
		if target.Type == domain.Infant {
			// infants use no seat
			splitSeats = 0
		}

		rest := make([]domain.Passenger, 0, len(o.Passengers)-1)
		for _, p := range o.Passengers {
			if p.TicketNumber != ticketNumber {
				rest = append(rest, p)
			}
		}

		now := time.Now().UTC()
		ordersRepo := s.store.Orders().With(tx)

		splitOrder := &domain.Order{
			PNR:           sp,
			AgentID:       o.AgentID,
			PaymentStatus: o.PaymentStatus,
			PaymentType:   o.PaymentType,
			TicketStatus:  domain.StatusTicketing,
			TravelType:    o.TravelType,
			Legs:          o.Legs,
			Price:         splitPrice,
			Contact:       o.Contact,
			Passengers:    []domain.Passenger{*target},
			Comment:       o.Comment,
			UsedSeats:     splitSeats,
			ParentPNR:     o.PNR,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		mainOrder := &domain.Order{
			PNR:           mp,
			AgentID:       o.AgentID,
			PaymentStatus: o.PaymentStatus,
			PaymentType:   o.PaymentType,
			TicketStatus:  domain.StatusTicketing,
			TravelType:    o.TravelType,
			Legs:          o.Legs,
			Price:         mainPrice,
			Contact:       o.Contact,
			Passengers:    rest,
			Comment:       o.Comment,
			UsedSeats:     o.UsedSeats - splitSeats,
			ParentPNR:     o.PNR,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := ordersRepo.CreateOrder(ctx, splitOrder); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if err := ordersRepo.CreateOrder(ctx, mainOrder); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		prev := *o
		o.TicketStatus = domain.StatusSplit
		o.ChildSplitPNR = sp
		o.ChildMainPNR = mp
		if err := ordersRepo.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.publish(ctx, pnr, domain.StatusSplit)
			s.audit(ctx, actor.ID, "order.split", prev, o)
		})

		return nil
	})
	if err != nil {
		return "", "", err
	}

	return splitPNR, mainPNR, nil
}

type PassengerEdit struct {
	TicketNumber   string
	FirstName      string
	LastName       string
	Gender         string
	DocumentNumber string
}

type EditInput struct {
	Contact    *domain.Contact
	Comment    *string
	Passengers []PassengerEdit
}

// EditOrder updates contact, comment and passenger identity fields.
// Booking orders are editable by their owner; once ticketed, only an
// admin may touch them. Ticket numbers, dates of birth and passenger
// types are immutable.
func (s *Service) EditOrder(ctx context.Context, actor *domain.Agent, pnr string, in EditInput) (*domain.Order, error) {
	const op = "service.booking.EditOrder"

	var out *domain.Order

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		o, err := s.getOwnedOrder(ctx, tx, actor, pnr)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		switch o.TicketStatus {
		case domain.StatusBooking:
		case domain.StatusTicketing:
			if !actor.IsAdmin() {
				return fmt.Errorf("%s:%w", op, ErrForbidden)
			}
		default:
			return fmt.Errorf("%s:%w", op, ErrStateConflict)
		}

		prev := *o

		if in.Contact != nil {
			o.Contact = *in.Contact
		}
		if in.Comment != nil {
			o.Comment = *in.Comment
		}
		for _, pe := range in.Passengers {
			p := o.PassengerByTicket(pe.TicketNumber)
			if p == nil {
				return fmt.Errorf("%s:%w", op, ErrPassengerNotFound)
			}
			p.FirstName = pe.FirstName
			p.LastName = pe.LastName
			p.Gender = pe.Gender
			p.DocumentNumber = pe.DocumentNumber
		}

		if err := s.store.Orders().With(tx).UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		out = o

		after(func(ctx context.Context) {
			s.audit(ctx, actor.ID, "order.edit", prev, o)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
