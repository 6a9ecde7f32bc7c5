package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	StatusBooking   TicketStatus = "Booking"
	StatusTicketing TicketStatus = "Ticketing"
	StatusCanceled  TicketStatus = "Canceled"
	StatusRefunded  TicketStatus = "Refunded"
	StatusSplit     TicketStatus = "Split"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "Unpaid"
	PaymentPaid   PaymentStatus = "Paid"
)

type Passenger struct {
	ID             uuid.UUID     `json:"id"`
	FirstName      string        `json:"first_name"`
	LastName       string        `json:"last_name"`
	Gender         string        `json:"gender"`
	Type           PassengerType `json:"type"`
	DateOfBirth    time.Time     `json:"date_of_birth"`
	TicketNumber   string        `json:"ticket_number"`
	DocumentNumber string        `json:"document_number,omitempty"`
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PartyPrice is the charged price for all passengers of one type.
// Each is the converted per-passenger price rounded to a whole unit,
// Total is Each multiplied by Count. CommissionEach is the commission
// share inside Each; refunds settle against it, never against the
// class's current commission fields.
type PartyPrice struct {
	Count          int             `json:"count"`
	Each           decimal.Decimal `json:"each"`
	CommissionEach decimal.Decimal `json:"commission_each"`
	Total          decimal.Decimal `json:"total"`
}

// TicketPrice is the frozen, ledger-currency price of an order.
// Later fare changes on the class never touch it. Commission is the
// commission share of Total, frozen alongside it.
type TicketPrice struct {
	Currency   string          `json:"currency"`
	Rate       decimal.Decimal `json:"rate"`
	RateDate   time.Time       `json:"rate_date"`
	Adult      PartyPrice      `json:"adult"`
	Child      PartyPrice      `json:"child"`
	Infant     PartyPrice      `json:"infant"`
	Commission decimal.Decimal `json:"commission"`
	Total      decimal.Decimal `json:"total"`
}

type Order struct {
	PNR           string        `json:"pnr"`
	AgentID       int64         `json:"agent_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentType   string        `json:"payment_type,omitempty"`
	TicketStatus  TicketStatus  `json:"ticket_status"`
	TravelType    TravelType    `json:"travel_type"`
	Legs          []Leg         `json:"legs"`
	Price         TicketPrice   `json:"price"`
	Contact       Contact       `json:"contact"`
	Passengers    []Passenger   `json:"passengers"`
	Comment       string        `json:"comment,omitempty"`
	UsedSeats     int           `json:"used_seats"`
	ParentPNR     string        `json:"parent_pnr,omitempty"`
	ChildSplitPNR string        `json:"child_split_pnr,omitempty"`
	ChildMainPNR  string        `json:"child_main_pnr,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// PassengerByTicket returns the passenger holding the given ticket
// number, or nil.
func (o *Order) PassengerByTicket(ticketNumber string) *Passenger {
	for i := range o.Passengers {
		if o.Passengers[i].TicketNumber == ticketNumber {
			return &o.Passengers[i]
		}
	}
	return nil
}
