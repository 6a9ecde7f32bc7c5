package inventory

import "errors"

var (
	ErrClassNotFound  = errors.New("class not found")
	ErrNotEnoughSeats = errors.New("not enough seats")
)
