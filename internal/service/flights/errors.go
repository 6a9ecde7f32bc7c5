package flights

import "errors"

var (
	ErrFlightNotFound    = errors.New("flight not found")
	ErrClassNotFound     = errors.New("class not found")
	ErrClassNameTaken    = errors.New("class name already used on this flight")
	ErrCapacityExceeded  = errors.New("class seats exceed flight capacity")
	ErrSeatsBelowInUse   = errors.New("seat count below seats sold or held")
	ErrAdminOnly         = errors.New("admin role required")
	ErrInvalidTravelType = errors.New("invalid travel type")
)
