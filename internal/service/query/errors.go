package query

import "errors"

var (
	ErrFlightNotFound   = errors.New("flight not found")
	ErrClassNotFound    = errors.New("class not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrPreOrderNotFound = errors.New("pre-order not found")
	ErrRateUnavailable  = errors.New("exchange rate unavailable")
	ErrForbidden        = errors.New("operation not allowed for this agent")
)
