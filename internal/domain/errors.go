package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoHoldings      = errors.New("no stocks in ledger")
	ErrNoValidTicker   = errors.New("no valid ticker found")
	ErrCorruptPosition = errors.New("corrupt position record")
	ErrRateLimited     = errors.New("rate limited")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrLockHeld        = errors.New("lock already held")
)
