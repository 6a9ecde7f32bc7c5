package repository

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrNotEnoughSeats  = errors.New("not enough seats")
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)
