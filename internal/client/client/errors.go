package client

import "errors"

var (
	ErrUnavailable = errors.New("catalog unavailable")
	ErrNotFound    = errors.New("product not found")
	ErrInvalidID   = errors.New("product id is required")
	ErrBadResponse = errors.New("unexpected catalog response")
)
