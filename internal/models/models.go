package models

import (
	"time"
)

// Trade represents a single executed trade.
type Trade struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
}

// Validate validates a Trade.
func (t *Trade) Validate() error {
	if t.Symbol == "" {
		return ErrInvalidSymbol
	}
	if t.Price <= 0 {
		return ErrInvalidPrice
	}
	if t.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	if t.Size < 0 {
		return ErrInvalidVolume
	}
	return nil
}

// Quote represents a top-of-book quote.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	BidSize   float64   `json:"bid_size"`
	AskSize   float64   `json:"ask_size"`
}

// Validate validates a Quote.
func (q *Quote) Validate() error {
	if q.Symbol == "" {
		return ErrInvalidSymbol
	}
	if q.Bid <= 0 || q.Ask <= 0 {
		return ErrInvalidQuote
	}
	if q.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}
	return nil
}

// Mid returns the quote midpoint.
func (q *Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

// ToSyntheticTrade converts the quote to a zero-size trade at the midpoint
// for aggregation purposes.
func (q *Quote) ToSyntheticTrade() *Trade {
	return &Trade{
		Symbol:    q.Symbol,
		Timestamp: q.Timestamp,
		Price:     q.Mid(),
		Size:      0,
	}
}

// Bar is an OHLCV aggregate over one timeframe bucket. A provisional bar
// (IsFinal=false) may be re-emitted many times within [Start, End) as more
// events arrive; a final bar is emitted exactly once per window and is
// immutable afterwards.
type Bar struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	IsFinal   bool      `json:"is_final"`
}

// Validate validates a Bar.
func (b *Bar) Validate() error {
	if b.Symbol == "" {
		return ErrInvalidSymbol
	}
	if b.Start.IsZero() || b.End.Before(b.Start) {
		return ErrInvalidTimestamp
	}
	if b.High < b.Low || b.Open > b.High || b.Open < b.Low || b.Close > b.High || b.Close < b.Low {
		return ErrInvalidBar
	}
	if b.Volume < 0 {
		return ErrInvalidVolume
	}
	return nil
}
