package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/repository"
	postgresrepo "github.com/skyfare/skyfare/internal/repository/postgres"
	"github.com/skyfare/skyfare/internal/service/ledger"
	"github.com/skyfare/skyfare/internal/uow"
)

type PassengerInput struct {
	FirstName      string
	LastName       string
	Gender         string
	Type           domain.PassengerType
	DateOfBirth    time.Time
	DocumentNumber string
}

type ConfirmInput struct {
	PNR        string
	Passengers []PassengerInput
	Contact    domain.Contact
	// PayNow captures payment immediately and lands the order in
	// Ticketing; otherwise it is created as an unpaid Booking.
	PayNow      bool
	PaymentType string
	Comment     string
}

// Confirm promotes a pre-order into an order. Ledger debit, seat
// commit, hold release and draft deletion all happen in one
// Serializable transaction: a failed debit aborts before any seat is
// touched, and nothing can observe a half-confirmed order.
func (s *Service) Confirm(ctx context.Context, actor *domain.Agent, in ConfirmInput) (*domain.Order, error) {
	const op = "service.booking.Confirm"

	var order *domain.Order

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		orders := s.store.Orders().With(tx)

		po, err := orders.GetPreOrder(ctx, in.PNR)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrPreOrderNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if po.AgentID != actor.ID && !actor.IsAdmin() {
			return fmt.Errorf("%s:%w", op, ErrForbidden)
		}
		if actor.Status != domain.AgentApproved {
			return fmt.Errorf("%s:%w", op, ErrAgentNotApproved)
		}

		used, err := orders.OrderExists(ctx, in.PNR)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if used {
			return fmt.Errorf("%s:%w", op, ErrPNRUsed)
		}

		holds, err := s.store.Inventory().With(tx).HoldsByPNR(ctx, in.PNR)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if len(holds) == 0 {
			return fmt.Errorf("%s:%w", op, ErrHoldExpired)
		}

		adults, children, infants := countByType(in.Passengers)
		if adults != po.Adults || children != po.Children || infants != po.Infants {
			return fmt.Errorf("%s:%w", op, ErrPassengerCountMismatch)
		}

		for _, p := range in.Passengers {
			if !passengerAgeOK(p.Type, p.DateOfBirth, po.Legs) {
				return fmt.Errorf("%s:%w", op, ErrPassengerAge)
			}
		}

		passengers := make([]domain.Passenger, 0, len(in.Passengers))
		for _, p := range in.Passengers {
			ticket, err := s.nextTicketNumber(ctx, tx)
			if err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
			passengers = append(passengers, domain.Passenger{
				ID:             uuid.New(),
				FirstName:      p.FirstName,
				LastName:       p.LastName,
				Gender:         p.Gender,
				Type:           p.Type,
				DateOfBirth:    p.DateOfBirth,
				TicketNumber:   ticket,
				DocumentNumber: p.DocumentNumber,
			})
		}

		// admins buy at agent cost, commission stripped
		price := po.Price
		if actor.IsAdmin() {
			price = po.PriceCost
		}

		status := domain.StatusBooking
		payment := domain.PaymentUnpaid
		if in.PayNow {
			status = domain.StatusTicketing
			payment = domain.PaymentPaid

			err := s.ledger.Use(ctx, tx, po.AgentID, price.Total, ledger.Entry{
				Currency:    s.cfg.LedgerCurrency,
				Rate:        price.Rate,
				PaymentType: in.PaymentType,
				Description: "ticketing " + in.PNR,
			})
			if err != nil {
				if errors.Is(err, ledger.ErrInsufficientFunds) {
					return fmt.Errorf("%s:%w", op, ErrInsufficientFunds)
				}
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		now := time.Now().UTC()
		order = &domain.Order{
			PNR:           in.PNR,
			AgentID:       po.AgentID,
			PaymentStatus: payment,
			PaymentType:   in.PaymentType,
			TicketStatus:  status,
			TravelType:    po.TravelType,
			Legs:          po.Legs,
			Price:         price,
			Contact:       in.Contact,
			Passengers:    passengers,
			Comment:       in.Comment,
			UsedSeats:     po.UsedSeats,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := orders.CreateOrder(ctx, order); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s:%w", op, ErrPNRUsed)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		for _, leg := range po.Legs {
			if err := s.inventory.Commit(ctx, tx, leg.ClassID, 0, po.UsedSeats); err != nil {
				return fmt.Errorf("%s:%w", op, translateCommitErr(err))
			}
		}

		if err := s.inventory.ReleaseHolds(ctx, tx, in.PNR); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
		if err := orders.DeletePreOrder(ctx, in.PNR); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			s.invalidateLegs(ctx, po.Legs)
			s.publish(ctx, in.PNR, status)
			s.audit(ctx, actor.ID, "order.confirm", po, order)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
