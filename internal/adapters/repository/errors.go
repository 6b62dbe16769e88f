package repository

import "errors"

// Sentinel kinds for aggregation store errors.
var (
	ErrInvalidValue = errors.New("indicator value must be 0 or 1")
)
