package model

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidEvent  = errors.New("invalid release event")
	ErrInvalidPeriod = errors.New("invalid incarceration period")
)
