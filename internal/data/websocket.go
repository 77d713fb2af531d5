package data

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/pkg/logger"
)

// WebSocketConfig holds configuration for the websocket provider
type WebSocketConfig struct {
	URL               string
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	ReadTimeout       time.Duration
}

// DefaultWebSocketConfig returns a default websocket configuration
func DefaultWebSocketConfig(url string) WebSocketConfig {
	return WebSocketConfig{
		URL:               url,
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
	}
}

// wsMessage is the wire envelope of the JSON feed.
type wsMessage struct {
	Type      string    `json:"type"` // "trade", "quote", "bar"
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`

	// trade
	Price float64 `json:"price,omitempty"`
	Size  float64 `json:"size,omitempty"`

	// quote
	Bid     float64 `json:"bid,omitempty"`
	Ask     float64 `json:"ask,omitempty"`
	BidSize float64 `json:"bid_size,omitempty"`
	AskSize float64 `json:"ask_size,omitempty"`

	// bar
	Timeframe string  `json:"timeframe,omitempty"`
	Open      float64 `json:"open,omitempty"`
	High      float64 `json:"high,omitempty"`
	Low       float64 `json:"low,omitempty"`
	Close     float64 `json:"close,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
	End       time.Time `json:"end,omitempty"`
}

// WebSocketProvider consumes a JSON market-data feed over a websocket with
// automatic reconnection and exponential backoff.
type WebSocketProvider struct {
	config WebSocketConfig

	mu        sync.Mutex
	started   bool
	tradeSubs map[string]TradeCallback
	quoteSubs map[string]QuoteCallback
	barSubs   map[string]BarCallback

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWebSocketProvider creates a websocket provider.
func NewWebSocketProvider(config WebSocketConfig) *WebSocketProvider {
	return &WebSocketProvider{
		config:    config,
		tradeSubs: make(map[string]TradeCallback),
		quoteSubs: make(map[string]QuoteCallback),
		barSubs:   make(map[string]BarCallback),
	}
}

func (w *WebSocketProvider) Name() string { return "websocket" }

// SubscribeTrades routes trades for the symbols to the callback.
func (w *WebSocketProvider) SubscribeTrades(symbols []string, callback TradeCallback) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, symbol := range symbols {
		if symbol == "" {
			return ErrInvalidSymbol
		}
		w.tradeSubs[symbol] = callback
	}
	return nil
}

// SubscribeQuotes routes quotes for the symbols to the callback.
func (w *WebSocketProvider) SubscribeQuotes(symbols []string, callback QuoteCallback) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, symbol := range symbols {
		if symbol == "" {
			return ErrInvalidSymbol
		}
		w.quoteSubs[symbol] = callback
	}
	return nil
}

// SubscribeBars routes provider-aggregated bars to the callback.
func (w *WebSocketProvider) SubscribeBars(symbols []string, timeframes []models.Timeframe, callback BarCallback) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, symbol := range symbols {
		if symbol == "" {
			return ErrInvalidSymbol
		}
		w.barSubs[symbol] = callback
	}
	return nil
}

// Start launches the read loop with reconnection.
func (w *WebSocketProvider) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrProviderAlreadyStarted
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.readLoop(ctx)
	return nil
}

func (w *WebSocketProvider) readLoop(ctx context.Context) {
	defer w.wg.Done()

	delay := w.config.ReconnectDelay
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.config.URL, nil)
		if err != nil {
			logger.Warn("WebSocket dial failed",
				logger.ErrorField(err),
				logger.String("url", w.config.URL),
				logger.Duration("retry_in", delay),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > w.config.MaxReconnectDelay {
				delay = w.config.MaxReconnectDelay
			}
			continue
		}

		logger.Info("WebSocket connected", logger.String("url", w.config.URL))
		delay = w.config.ReconnectDelay

		w.consume(ctx, conn)
		_ = conn.Close()
	}
}

func (w *WebSocketProvider) consume(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}
		if w.config.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			logger.Warn("WebSocket read failed", logger.ErrorField(err))
			return
		}
		w.handleMessage(payload)
	}
}

func (w *WebSocketProvider) handleMessage(payload []byte) {
	var msg wsMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		logger.Warn("Dropping malformed message", logger.ErrorField(err))
		return
	}

	w.mu.Lock()
	tradeCB := w.tradeSubs[msg.Symbol]
	quoteCB := w.quoteSubs[msg.Symbol]
	barCB := w.barSubs[msg.Symbol]
	w.mu.Unlock()

	switch msg.Type {
	case "trade":
		if tradeCB != nil {
			tradeCB(&models.Trade{
				Symbol:    msg.Symbol,
				Timestamp: msg.Timestamp,
				Price:     msg.Price,
				Size:      msg.Size,
			})
		}
	case "quote":
		if quoteCB != nil {
			quoteCB(&models.Quote{
				Symbol:    msg.Symbol,
				Timestamp: msg.Timestamp,
				Bid:       msg.Bid,
				Ask:       msg.Ask,
				BidSize:   msg.BidSize,
				AskSize:   msg.AskSize,
			})
		}
	case "bar":
		if barCB != nil {
			bar := &models.Bar{
				Symbol:  msg.Symbol,
				Start:   msg.Timestamp,
				End:     msg.End,
				Open:    msg.Open,
				High:    msg.High,
				Low:     msg.Low,
				Close:   msg.Close,
				Volume:  msg.Volume,
				IsFinal: true,
			}
			if tf, err := models.ParseTimeframe(msg.Timeframe); err == nil {
				bar.Timeframe = tf
			}
			barCB(bar)
		}
	default:
		logger.Debug("Ignoring message type", logger.String("type", msg.Type))
	}
}

// Stop halts the read loop and closes the connection.
func (w *WebSocketProvider) Stop() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return ErrProviderNotStarted
	}
	w.started = false
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	return nil
}
