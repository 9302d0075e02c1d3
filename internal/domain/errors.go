package domain

import "errors"

var (
	ErrUnknownItem       = errors.New("unknown catalog item")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOrderNotFound     = errors.New("order not found")
	ErrTopUpNotFound     = errors.New("top-up not found")
	ErrAlreadyResolved   = errors.New("already resolved")

	ErrPromoNotFound  = errors.New("promo code not found")
	ErrPromoUsed      = errors.New("promo code already used by this user")
	ErrPromoExhausted = errors.New("promo code exhausted or expired")

	ErrBadDeliveryID = errors.New("invalid delivery identifier")
	ErrBadAmount     = errors.New("invalid amount")
)
