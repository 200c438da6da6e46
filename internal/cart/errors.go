package cart

import "errors"

var (
	ErrInvalidAmount    = errors.New("invalid donation amount")
	ErrInvalidFrequency = errors.New("frequency must be one of onetime, monthly, yearly")
	ErrNoSession        = errors.New("cart store accessed outside of a cart session")
)
