package data

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/mohamedkhairy/streamta/internal/models"
)

// MockProvider generates a seeded random-walk trade stream with occasional
// quotes. Used for development and tests.
type MockProvider struct {
	mu        sync.Mutex
	started   bool
	interval  time.Duration
	seed      int64
	tradeSubs map[string]TradeCallback
	quoteSubs map[string]QuoteCallback
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewMockProvider creates a mock provider emitting one trade per symbol per
// interval.
func NewMockProvider(interval time.Duration, seed int64) *MockProvider {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &MockProvider{
		interval:  interval,
		seed:      seed,
		tradeSubs: make(map[string]TradeCallback),
		quoteSubs: make(map[string]QuoteCallback),
	}
}

func (m *MockProvider) Name() string { return "mock" }

// SubscribeTrades routes generated trades for the symbols to the callback.
func (m *MockProvider) SubscribeTrades(symbols []string, callback TradeCallback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, symbol := range symbols {
		if symbol == "" {
			return ErrInvalidSymbol
		}
		m.tradeSubs[symbol] = callback
	}
	return nil
}

// SubscribeQuotes routes generated quotes for the symbols to the callback.
func (m *MockProvider) SubscribeQuotes(symbols []string, callback QuoteCallback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, symbol := range symbols {
		if symbol == "" {
			return ErrInvalidSymbol
		}
		m.quoteSubs[symbol] = callback
	}
	return nil
}

// SubscribeBars is accepted but the mock generates raw trades only; bar
// aggregation belongs to the engine.
func (m *MockProvider) SubscribeBars(symbols []string, timeframes []models.Timeframe, callback BarCallback) error {
	for _, symbol := range symbols {
		if symbol == "" {
			return ErrInvalidSymbol
		}
	}
	return nil
}

// Start launches the generator loop.
func (m *MockProvider) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return ErrProviderAlreadyStarted
	}
	m.started = true

	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.generate(ctx)
	return nil
}

func (m *MockProvider) generate(ctx context.Context) {
	defer m.wg.Done()

	rng := rand.New(rand.NewSource(m.seed))
	prices := make(map[string]float64)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.mu.Lock()
			tradeSubs := make(map[string]TradeCallback, len(m.tradeSubs))
			for s, cb := range m.tradeSubs {
				tradeSubs[s] = cb
			}
			quoteSubs := make(map[string]QuoteCallback, len(m.quoteSubs))
			for s, cb := range m.quoteSubs {
				quoteSubs[s] = cb
			}
			m.mu.Unlock()

			for symbol, cb := range tradeSubs {
				price, ok := prices[symbol]
				if !ok {
					price = 50 + rng.Float64()*200
				}
				price += rng.NormFloat64() * 0.1
				if price < 1 {
					price = 1
				}
				prices[symbol] = price

				cb(&models.Trade{
					Symbol:    symbol,
					Timestamp: now,
					Price:     price,
					Size:      float64(rng.Intn(500) + 1),
				})

				if qcb, ok := quoteSubs[symbol]; ok && rng.Intn(4) == 0 {
					spread := 0.01 + rng.Float64()*0.05
					qcb(&models.Quote{
						Symbol:    symbol,
						Timestamp: now,
						Bid:       price - spread/2,
						Ask:       price + spread/2,
						BidSize:   float64(rng.Intn(1000) + 100),
						AskSize:   float64(rng.Intn(1000) + 100),
					})
				}
			}
		}
	}
}

// Stop halts the generator.
func (m *MockProvider) Stop() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return ErrProviderNotStarted
	}
	m.started = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	return nil
}
