package models

import "errors"

// Custom errors
var (
	ErrInvalidStake     = errors.New("total stake must be positive")
	ErrNotArbitrage     = errors.New("total inverse odds >= 1, not an arbitrage")
	ErrIncompleteMarket = errors.New("event has fewer than 2 distinct labels")
)
