package ledger

import "errors"

var (
	ErrInvalidOrderRequest = errors.New("invalid order request")
	ErrPriceUnavailable    = errors.New("price unavailable")
	ErrNotFound            = errors.New("balance not found")
)
