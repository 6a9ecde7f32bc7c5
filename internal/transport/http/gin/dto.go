package httpgin

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/skyfare/skyfare/internal/domain"
	"github.com/skyfare/skyfare/internal/service/booking"
)

type LegRequest struct {
	FlightID int64 `json:"flight_id" binding:"required"`
	ClassID  int64 `json:"class_id" binding:"required"`
}

type CreatePreOrderRequest struct {
	TravelType string       `json:"travel_type" binding:"required,oneof=oneWay roundTrip multiDestination"`
	Adults     int          `json:"adults" binding:"required,gte=1,lte=9"`
	Children   int          `json:"children" binding:"gte=0,lte=8"`
	Infants    int          `json:"infants" binding:"gte=0,lte=8"`
	Legs       []LegRequest `json:"legs" binding:"required,min=1,max=2,dive"`
}

type PassengerRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	Gender         string `json:"gender" binding:"omitempty,oneof=male female"`
	Type           string `json:"type" binding:"required,oneof=Adult Child Infant"`
	DateOfBirth    string `json:"date_of_birth" binding:"required"`
	DocumentNumber string `json:"document_number" binding:"required"`
}

type ContactRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"required"`
}

type ConfirmOrderRequest struct {
	Passengers  []PassengerRequest `json:"passengers" binding:"required,min=1,max=9,dive"`
	Contact     ContactRequest     `json:"contact" binding:"required"`
	PayNow      bool               `json:"pay_now"`
	PaymentType string             `json:"payment_type" binding:"omitempty,oneof=balance credit"`
	Comment     string             `json:"comment" binding:"max=1000"`
}

type PromoteOrderRequest struct {
	PaymentType string `json:"payment_type" binding:"omitempty,oneof=balance credit"`
}

type RefundOrderRequest struct {
	ReplacementClassIDs []int64 `json:"replacement_class_ids" binding:"required,min=1,dive,required"`
}

type SplitOrderRequest struct {
	TicketNumber string `json:"ticket_number" binding:"required"`
}

type PassengerEditRequest struct {
	TicketNumber   string `json:"ticket_number" binding:"required"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Gender         string `json:"gender" binding:"omitempty,oneof=male female"`
	DocumentNumber string `json:"document_number"`
}

type EditOrderRequest struct {
	Contact    *ContactRequest        `json:"contact"`
	Comment    *string                `json:"comment"`
	Passengers []PassengerEditRequest `json:"passengers" binding:"omitempty,dive"`
}

type FlightRequest struct {
	Origin      string `json:"origin" binding:"required,len=3"`
	Destination string `json:"destination" binding:"required,len=3,nefield=Origin"`
	StartsAt    string `json:"starts_at" binding:"required"`
	EndsAt      string `json:"ends_at" binding:"required"`
	Airline     string `json:"airline" binding:"required"`
	AirlineCode string `json:"airline_code" binding:"required,min=2,max=3"`
	Seats       int    `json:"seats" binding:"required,gt=0"`
	Currency    string `json:"currency" binding:"required,len=3"`
}

type ClassRequest struct {
	Name           string          `json:"name" binding:"required"`
	TravelType     string          `json:"travel_type" binding:"required,oneof=oneWay roundTrip multiDestination"`
	AdminOnly      bool            `json:"admin_only"`
	Seats          int             `json:"seats" binding:"required,gt=0"`
	FareAdult      decimal.Decimal `json:"fare_adult" binding:"required"`
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
}

type UpsertRateRequest struct {
	Currency string          `json:"currency" binding:"required,len=3"`
	Rate     decimal.Decimal `json:"rate" binding:"required"`
	Date     string          `json:"date" binding:"required"`
}

type SetCreditLimitRequest struct {
	Limit decimal.Decimal `json:"limit" binding:"required"`
}

type IncreaseBalanceRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=500"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SplitOrderResponse struct {
	SplitPNR string `json:"split_pnr"`
	MainPNR  string `json:"main_pnr"`
}

type CreateFlightResponse struct {
	FlightID int64 `json:"flight_id"`
}

type CreateClassResponse struct {
	ClassID int64 `json:"class_id"`
}

type AvailabilityResponse struct {
	ClassID   int64 `json:"class_id"`
	Available int   `json:"available"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func (r PassengerRequest) toInput() (booking.PassengerInput, error) {
	dob, err := parseDate(r.DateOfBirth)
	if err != nil {
		return booking.PassengerInput{}, err
	}
	return booking.PassengerInput{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Gender:         r.Gender,
		Type:           domain.PassengerType(r.Type),
		DateOfBirth:    dob,
		DocumentNumber: r.DocumentNumber,
	}, nil
}

func (r ContactRequest) toDomain() domain.Contact {
	return domain.Contact{Name: r.Name, Email: r.Email, Phone: r.Phone}
}
