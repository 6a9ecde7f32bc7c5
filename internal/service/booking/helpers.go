package booking

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/service/inventory"
)

const (
	maxChildAge  = 12
	maxInfantAge = 2
)

func validateLegCount(tt domain.TravelType, legs int) error {
	switch tt {
	case domain.OneWay:
		if legs != 1 {
			return ErrInvalidItinerary
		}
	case domain.RoundTrip, domain.MultiDestination:
		if legs != 2 {
			return ErrInvalidItinerary
		}
	default:
		return ErrInvalidTravelType
	}
	return nil
}

// validateLegRoute checks leg ordering and, for two-leg itineraries,
// that both legs are flown by the same airline.
func validateLegRoute(tt domain.TravelType, legs []domain.Leg) error {
	if len(legs) == 2 {
		if legs[0].AirlineCode != legs[1].AirlineCode {
			return ErrInvalidItinerary
		}
		if !legs[1].DepartsAt.After(legs[0].ArrivesAt) {
			return ErrInvalidItinerary
		}
	}
	if tt == domain.RoundTrip && len(legs) == 2 {
		if legs[0].Origin != legs[1].Destination || legs[0].Destination != legs[1].Origin {
			return ErrInvalidItinerary
		}
	}
	return nil
}

// tripDays is the whole-day span between the first and last departure.
func tripDays(legs []domain.Leg) int {
	if len(legs) < 2 {
		return 0
	}
	first := legs[0].DepartsAt
	last := legs[len(legs)-1].DepartsAt
	return int(last.Sub(first).Hours() / 24)
}

func yearsAt(dob, at time.Time) int {
	years := at.Year() - dob.Year()
	if at.YearDay() < dob.YearDay() {
		years--
	}
	return years
}

// passengerAgeOK verifies the passenger type against the age the
// passenger will have at every boundary of the itinerary. A child must
// still be a child on arrival of the last leg.
func passengerAgeOK(ptype domain.PassengerType, dob time.Time, legs []domain.Leg) bool {
	for _, leg := range legs {
		for _, at := range []time.Time{leg.DepartsAt, leg.ArrivesAt} {
			age := yearsAt(dob, at)
			switch ptype {
			case domain.Child:
				if age > maxChildAge {
					return false
				}
			case domain.Infant:
				if age > maxInfantAge {
					return false
				}
			}
		}
	}
	return true
}

// requireStatus guards a lifecycle transition: the order must still be
// in the given state to leave it.
func requireStatus(o *domain.Order, want domain.TicketStatus) error {
	if o.TicketStatus != want {
		return ErrStateConflict
	}
	return nil
}

// refundAmounts splits an order's frozen price into the agent's refund
// and the admin's commission credit. The two sum to the order total
// exactly. A snapshot whose commission exceeds its total cannot be
// settled coherently and is rejected.
func refundAmounts(price domain.TicketPrice) (agent, commission decimal.Decimal, err error) {
	if price.Commission.GreaterThan(price.Total) {
		return decimal.Zero, decimal.Zero, ErrCommissionExceedsTotal
	}
	return price.Total.Sub(price.Commission), price.Commission, nil
}

// releasePlan lists, per class, the seats a cancellation gives back.
func releasePlan(o *domain.Order) map[int64]int {
	out := make(map[int64]int, len(o.Legs))
	for _, leg := range o.Legs {
		out[leg.ClassID] += o.UsedSeats
	}
	return out
}

// translateCommitErr keeps the capacity sentinel and lets everything
// else pass through as-is.
func translateCommitErr(err error) error {
	if errors.Is(err, inventory.ErrNotEnoughSeats) {
		return ErrNotEnoughSeats
	}
	return err
}

func countByType(passengers []PassengerInput) (adults, children, infants int) {
	for _, p := range passengers {
		switch p.Type {
		case domain.Adult:
			adults++
		case domain.Child:
			children++
		case domain.Infant:
			infants++
		}
	}
	return adults, children, infants
}
