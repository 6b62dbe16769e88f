package metric

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownType = errors.New("unknown metric type")
)
