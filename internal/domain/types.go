package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TravelType string

const (
	OneWay           TravelType = "oneWay"
	RoundTrip        TravelType = "roundTrip"
	MultiDestination TravelType = "multiDestination"
)

type PassengerType string

const (
	Adult  PassengerType = "Adult"
	Child  PassengerType = "Child"
	Infant PassengerType = "Infant"
)

type FlightStatus string

const (
	FlightUpcoming FlightStatus = "upcoming"
	FlightDeleted  FlightStatus = "deleted"
)

type Flight struct {
	ID          int64        `json:"id"`
	Origin      string       `json:"origin"`
	Destination string       `json:"destination"`
	StartsAt    time.Time    `json:"starts_at"`
	EndsAt      time.Time    `json:"ends_at"`
	Airline     string       `json:"airline"`
	AirlineCode string       `json:"airline_code"`
	Seats       int          `json:"seats"`
	Currency    string       `json:"currency"`
	Status      FlightStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Class is a fare class of a flight. Money fields are in the flight's
// currency.
type Class struct {
	ID             int64           `json:"id"`
	FlightID       int64           `json:"flight_id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	TravelType     TravelType      `json:"travel_type"`
	AdminOnly      bool            `json:"admin_only"`
	Seats          int             `json:"seats"`
	AvailableSeats int             `json:"available_seats"`
	FareAdult      decimal.Decimal `json:"fare_adult"`
	FareChild      decimal.Decimal `json:"fare_child"`
	FareInfant     decimal.Decimal `json:"fare_infant"`
	TaxAdult       decimal.Decimal `json:"tax_adult"`
	TaxChild       decimal.Decimal `json:"tax_child"`
	CatFee         decimal.Decimal `json:"cat_fee"`
	SurchargeShort decimal.Decimal `json:"surcharge_short_range"`
	SurchargeLong  decimal.Decimal `json:"surcharge_long_range"`
	SurchargeMulti decimal.Decimal `json:"surcharge_multi_destination"`
	CommAdult      decimal.Decimal `json:"comm_adult"`
	CommChild      decimal.Decimal `json:"comm_child"`
	FareRules      string          `json:"fare_rules"`
	Deleted        bool            `json:"deleted"`
}

// Sold is the number of seats already committed to orders.
func (c Class) Sold() int {
	return c.Seats - c.AvailableSeats
}

// SeatHold is a provisional claim on seats of a class, keyed by the PNR
// of the pre-order that placed it. It reduces effective availability
// without touching the class counters.
type SeatHold struct {
	ID        int64     `json:"id"`
	PNR       string    `json:"pnr"`
	ClassID   int64     `json:"class_id"`
	Seats     int       `json:"seats"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Leg is one flight+class segment of an itinerary, snapshotted at
// pre-order time.
type Leg struct {
	FlightID    int64     `json:"flight_id"`
	ClassID     int64     `json:"class_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	DepartsAt   time.Time `json:"departs_at"`
	ArrivesAt   time.Time `json:"arrives_at"`
	Airline     string    `json:"airline"`
	AirlineCode string    `json:"airline_code"`
	ClassName   string    `json:"class_name"`
	Currency    string    `json:"currency"`
}

type PreOrder struct {
	PNR        string     `json:"pnr"`
	AgentID    int64      `json:"agent_id"`
	TravelType TravelType `json:"travel_type"`
	Adults     int        `json:"adults"`
	Children   int        `json:"children"`
	Infants    int        `json:"infants"`
	UsedSeats  int        `json:"used_seats"`
	Legs       []Leg      `json:"legs"`
	// Price is the passenger-facing basis regular confirmations charge;
	// PriceCost is the commission-free basis admins buy at.
	Price     TicketPrice `json:"price"`
	PriceCost TicketPrice `json:"price_cost"`
	CreatedAt time.Time   `json:"created_at"`
}

// Rate converts one unit of a flight currency into the ledger currency
// for a given day.
type Rate struct {
	Currency string          `json:"currency"`
	Value    decimal.Decimal `json:"value"`
	Date     time.Time       `json:"date"`
}
