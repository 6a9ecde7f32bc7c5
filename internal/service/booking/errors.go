package booking

import "errors"

var (
	ErrPreOrderNotFound       = errors.New("pre-order not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrFlightNotFound         = errors.New("flight not found")
	ErrClassNotFound          = errors.New("class not found")
	ErrAgentNotFound          = errors.New("agent not found")
	ErrAgentNotApproved       = errors.New("agent is not approved")
	ErrForbidden              = errors.New("operation not allowed for this agent")
	ErrHoldExpired            = errors.New("seat hold expired")
	ErrPNRUsed                = errors.New("pnr already confirmed")
	ErrNotEnoughSeats         = errors.New("not enough seats")
	ErrStateConflict          = errors.New("order state does not allow this transition")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrRateUnavailable        = errors.New("exchange rate unavailable")
	ErrInvalidItinerary       = errors.New("invalid itinerary")
	ErrInvalidTravelType      = errors.New("invalid travel type")
	ErrTooManyPassengers      = errors.New("too many passengers")
	ErrPassengerCountMismatch = errors.New("passenger counts do not match the pre-order")
	ErrPassengerAge           = errors.New("passenger age does not fit its type")
	ErrPassengerNotFound      = errors.New("passenger not found")
	ErrClassMismatch          = errors.New("class does not belong to the leg's flight")
	ErrCannotSplit            = errors.New("order cannot be split")
	ErrCommissionExceedsTotal = errors.New("commission exceeds the refundable total")
	ErrRateLimited            = errors.New("rate limited")
)
