package models

import "errors"

var (
	ErrInvalidSymbol    = errors.New("invalid symbol")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidBar       = errors.New("invalid bar (prices outside high/low range)")
	ErrInvalidVolume    = errors.New("invalid volume")
	ErrInvalidQuote     = errors.New("invalid quote (bid/ask not positive)")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
	ErrOutOfOrderEvent  = errors.New("event timestamp regressed")
	ErrUnknownIndicator = errors.New("unknown indicator")
	ErrUnsupportedInput = errors.New("unsupported input projection")
	ErrInvalidLength    = errors.New("indicator length must be at least 1")
	ErrSubscriptionGone = errors.New("subscription already unregistered")
)
