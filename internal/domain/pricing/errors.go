package pricing

import "errors"

var (
	// ErrNoPrices marks the empty-aggregation case: a valid terminal state
	// for summaries, a not-found result for best/average lookups.
	ErrNoPrices = errors.New("no prices available")

	// ErrInvalidPrice rejects non-positive prices before persistence.
	ErrInvalidPrice = errors.New("price must be positive")
)
