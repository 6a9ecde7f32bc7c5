package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/skyfare/skyfare/internal/domain"
)

var ErrInvalidTravelType = errors.New("invalid travel type")

// View selects the charging basis. ViewPassenger charges the full
// passenger-facing price (commission included); ViewCost charges the
// agent cost with the commission stripped, used for admin purchases.
type View string

const (
	ViewPassenger View = "passenger"
	ViewCost      View = "cost"
)

// Round-trip itineraries shorter than MinTripDays pick up the
// short-range surcharge, longer than MaxTripDays the long-range one.
const (
	MinTripDays = 3
	MaxTripDays = 15
)

type Counts struct {
	Adults   int
	Children int
	Infants  int
}

func (c Counts) Total() int { return c.Adults + c.Children + c.Infants }

// Seats is the number of physical seats the party occupies. Infants
// travel on a lap and use none.
func (c Counts) Seats() int { return c.Adults + c.Children }

// TypePrice is the computed price for one passenger type on one leg.
// Unit fields are per passenger; Converted fields are in the ledger
// currency, rounded to a whole unit. Flight-currency totals are
// rounded to 2 decimal places.
type TypePrice struct {
	Count                   int             `json:"count"`
	UnitAgent               decimal.Decimal `json:"unit_agent"`
	UnitPassenger           decimal.Decimal `json:"unit_passenger"`
	UnitAgentConverted      decimal.Decimal `json:"unit_agent_converted"`
	UnitPassengerConverted  decimal.Decimal `json:"unit_passenger_converted"`
	TotalAgent              decimal.Decimal `json:"total_agent"`
	TotalPassenger          decimal.Decimal `json:"total_passenger"`
	TotalAgentConverted     decimal.Decimal `json:"total_agent_converted"`
	TotalPassengerConverted decimal.Decimal `json:"total_passenger_converted"`
}

// Quote is the full price breakdown of one leg for a party.
type Quote struct {
	Currency                string          `json:"currency"`
	Rate                    domain.Rate     `json:"rate"`
	Adult                   TypePrice       `json:"adult"`
	Child                   TypePrice       `json:"child"`
	Infant                  TypePrice       `json:"infant"`
	TotalAgentConverted     decimal.Decimal `json:"total_agent_converted"`
	TotalPassengerConverted decimal.Decimal `json:"total_passenger_converted"`
}

// Input is everything Compute needs. TripDays is the whole-day length
// of the itinerary; it only matters for round trips.
type Input struct {
	Class      domain.Class
	Counts     Counts
	TravelType domain.TravelType
	TripDays   int
	Rate       domain.Rate
}

// Compute prices one leg. It is deterministic: the same input always
// yields the same quote.
func Compute(in Input) (Quote, error) {
	const op = "pricing.Compute"

	surcharge, err := surchargeFor(in.Class, in.TravelType, in.TripDays)
	if err != nil {
		return Quote{}, fmt.Errorf("%s: %w", op, err)
	}

	c := in.Class

	adultAgent := c.FareAdult.Add(c.TaxAdult).Add(c.CatFee).Sub(c.CommAdult).Add(surcharge)
	childAgent := c.FareChild.Add(c.TaxChild).Add(c.CatFee).Sub(c.CommChild).Add(surcharge)

	q := Quote{
		Currency: c.Currency,
		Rate:     in.Rate,
		Adult:    typePrice(in.Counts.Adults, adultAgent, adultAgent.Add(c.CommAdult), in.Rate),
		Child:    typePrice(in.Counts.Children, childAgent, childAgent.Add(c.CommChild), in.Rate),
		Infant:   typePrice(in.Counts.Infants, c.FareInfant, c.FareInfant, in.Rate),
	}

	q.TotalAgentConverted = q.Adult.TotalAgentConverted.
		Add(q.Child.TotalAgentConverted).
		Add(q.Infant.TotalAgentConverted)
	q.TotalPassengerConverted = q.Adult.TotalPassengerConverted.
		Add(q.Child.TotalPassengerConverted).
		Add(q.Infant.TotalPassengerConverted)

	return q, nil
}

func surchargeFor(c domain.Class, tt domain.TravelType, tripDays int) (decimal.Decimal, error) {
	switch tt {
	case domain.OneWay:
		return decimal.Zero, nil
	case domain.RoundTrip:
		if tripDays < MinTripDays {
			return c.SurchargeShort, nil
		}
		if tripDays > MaxTripDays {
			return c.SurchargeLong, nil
		}
		return decimal.Zero, nil
	case domain.MultiDestination:
		return c.SurchargeMulti, nil
	default:
		return decimal.Zero, ErrInvalidTravelType
	}
}

func typePrice(count int, unitAgent, unitPassenger decimal.Decimal, rate domain.Rate) TypePrice {
	n := decimal.NewFromInt(int64(count))

	agentConv := unitAgent.Mul(rate.Value).Round(0)
	passengerConv := unitPassenger.Mul(rate.Value).Round(0)

	return TypePrice{
		Count:                   count,
		UnitAgent:               unitAgent,
		UnitPassenger:           unitPassenger,
		UnitAgentConverted:      agentConv,
		UnitPassengerConverted:  passengerConv,
		TotalAgent:              unitAgent.Mul(n).Round(2),
		TotalPassenger:          unitPassenger.Mul(n).Round(2),
		TotalAgentConverted:     agentConv.Mul(n),
		TotalPassengerConverted: passengerConv.Mul(n),
	}
}

func unitFor(tp TypePrice, view View) decimal.Decimal {
	if view == ViewCost {
		return tp.UnitAgentConverted
	}
	return tp.UnitPassengerConverted
}

// TicketPrice folds per-leg quotes into the ledger-currency price
// snapshot frozen onto the order. The per-passenger price of a type is
// the sum of its converted unit prices across legs. The commission
// inside the charged price is frozen with it, so refunds never depend
// on the class's commission fields at refund time; a cost-view price
// carries no commission because none was charged.
func TicketPrice(quotes []Quote, counts Counts, view View) domain.TicketPrice {
	tp := domain.TicketPrice{}
	if len(quotes) == 0 {
		return tp
	}

	tp.Currency = quotes[0].Currency
	tp.Rate = quotes[0].Rate.Value
	tp.RateDate = quotes[0].Rate.Date

	adultEach := decimal.Zero
	childEach := decimal.Zero
	infantEach := decimal.Zero
	adultCost := decimal.Zero
	childCost := decimal.Zero
	infantCost := decimal.Zero
	for _, q := range quotes {
		adultEach = adultEach.Add(unitFor(q.Adult, view))
		childEach = childEach.Add(unitFor(q.Child, view))
		infantEach = infantEach.Add(unitFor(q.Infant, view))
		adultCost = adultCost.Add(q.Adult.UnitAgentConverted)
		childCost = childCost.Add(q.Child.UnitAgentConverted)
		infantCost = infantCost.Add(q.Infant.UnitAgentConverted)
	}

	tp.Adult = party(counts.Adults, adultEach, adultEach.Sub(adultCost))
	tp.Child = party(counts.Children, childEach, childEach.Sub(childCost))
	tp.Infant = party(counts.Infants, infantEach, infantEach.Sub(infantCost))
	tp.Commission = partyCommission(tp.Adult).
		Add(partyCommission(tp.Child)).
		Add(partyCommission(tp.Infant))
	tp.Total = tp.Adult.Total.Add(tp.Child.Total).Add(tp.Infant.Total)

	return tp
}

func party(count int, each, commissionEach decimal.Decimal) domain.PartyPrice {
	return domain.PartyPrice{
		Count:          count,
		Each:           each,
		CommissionEach: commissionEach,
		Total:          each.Mul(decimal.NewFromInt(int64(count))),
	}
}

func partyCommission(p domain.PartyPrice) decimal.Decimal {
	return p.CommissionEach.Mul(decimal.NewFromInt(int64(p.Count)))
}

// SplitTicketPrice carves the price of one passenger of the given type
// out of a ticket price. The split part gets exactly that passenger's
// per-type price and commission, the main part gets the original minus
// the split, so the two always sum back to the original on every
// field, commission included.
func SplitTicketPrice(orig domain.TicketPrice, ptype domain.PassengerType) (split, main domain.TicketPrice) {
	split = domain.TicketPrice{
		Currency: orig.Currency,
		Rate:     orig.Rate,
		RateDate: orig.RateDate,
	}

	switch ptype {
	case domain.Adult:
		split.Adult = carveOne(orig.Adult)
	case domain.Child:
		split.Child = carveOne(orig.Child)
	case domain.Infant:
		split.Infant = carveOne(orig.Infant)
	}
	split.Total = split.Adult.Total.Add(split.Child.Total).Add(split.Infant.Total)
	split.Commission = partyCommission(split.Adult).
		Add(partyCommission(split.Child)).
		Add(partyCommission(split.Infant))

	main = domain.TicketPrice{
		Currency:   orig.Currency,
		Rate:       orig.Rate,
		RateDate:   orig.RateDate,
		Adult:      subtractParty(orig.Adult, split.Adult),
		Child:      subtractParty(orig.Child, split.Child),
		Infant:     subtractParty(orig.Infant, split.Infant),
		Commission: orig.Commission.Sub(split.Commission),
		Total:      orig.Total.Sub(split.Total),
	}

	return split, main
}

func carveOne(p domain.PartyPrice) domain.PartyPrice {
	return domain.PartyPrice{
		Count:          1,
		Each:           p.Each,
		CommissionEach: p.CommissionEach,
		Total:          p.Each,
	}
}

func subtractParty(orig, split domain.PartyPrice) domain.PartyPrice {
	p := domain.PartyPrice{
		Count:          orig.Count - split.Count,
		Each:           orig.Each,
		CommissionEach: orig.CommissionEach,
		Total:          orig.Total.Sub(split.Total),
	}
	if p.Count == 0 {
		p.Each = decimal.Zero
		p.CommissionEach = decimal.Zero
	}
	return p
}
