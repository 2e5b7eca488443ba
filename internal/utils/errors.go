package utils

import "errors"

// ErrUnsupportedChain is returned when a chain id is outside the
// configured registry. The payment flow fails fast on it before any
// on-chain call is made.
var ErrUnsupportedChain = errors.New("unsupported chain")

// ErrInvalidAmountFormat is returned when a price string cannot be
// parsed into an integer token amount.
var ErrInvalidAmountFormat = errors.New("invalid amount format")
