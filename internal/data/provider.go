// Package data defines the market-data provider contract the engine is fed
// from, plus a websocket implementation and a deterministic mock generator.
package data

import (
	"context"
	"errors"

	"github.com/mohamedkhairy/streamta/internal/models"
)

var (
	// ErrProviderNotStarted is returned when operations need a running provider
	ErrProviderNotStarted = errors.New("provider is not started")
	// ErrProviderAlreadyStarted is returned when starting a running provider
	ErrProviderAlreadyStarted = errors.New("provider is already started")
	// ErrInvalidSymbol is returned when an invalid symbol is provided
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// TradeCallback receives trades.
type TradeCallback func(*models.Trade)

// QuoteCallback receives quotes.
type QuoteCallback func(*models.Quote)

// BarCallback receives provider-aggregated bars.
type BarCallback func(*models.Bar)

// Provider is the market-data collaborator. Subscriptions are declared
// before Start; callbacks fire from the provider's read loop until Stop.
type Provider interface {
	// SubscribeTrades routes trades for the symbols to the callback.
	SubscribeTrades(symbols []string, callback TradeCallback) error

	// SubscribeQuotes routes quotes for the symbols to the callback.
	SubscribeQuotes(symbols []string, callback QuoteCallback) error

	// SubscribeBars routes provider-aggregated bars to the callback.
	SubscribeBars(symbols []string, timeframes []models.Timeframe, callback BarCallback) error

	// Start begins delivering events.
	Start(ctx context.Context) error

	// Stop halts delivery and releases resources.
	Stop() error

	// Name returns the provider type, e.g. "mock" or "websocket".
	Name() string
}
