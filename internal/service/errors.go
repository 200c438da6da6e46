package service

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrInvalidCheckout    = errors.New("invalid checkout request")
	ErrCheckoutInProgress = errors.New("checkout already in progress for this session")
)
