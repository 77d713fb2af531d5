// Package bars converts per-symbol trade, quote, and bar events into OHLCV
// bars at a configured timeframe. Each input event yields zero or more
// emissions: a provisional snapshot of the open bucket, or, when the event
// crosses a bucket boundary, the closed bucket as final followed by the
// provisional of the new bucket.
package bars

import (
	"time"

	"github.com/mohamedkhairy/streamta/internal/models"
)

// accumulator is the open bucket being built.
type accumulator struct {
	start  time.Time
	end    time.Time
	open   float64
	high   float64
	low    float64
	close  float64
	volume float64
	events int
}

func (acc *accumulator) update(price, size float64) {
	if acc.events == 0 {
		acc.open = price
		acc.high = price
		acc.low = price
	}
	if price > acc.high {
		acc.high = price
	}
	if price < acc.low {
		acc.low = price
	}
	acc.close = price
	acc.volume += size
	acc.events++
}

// Aggregator aggregates one symbol's events into bars of one timeframe.
// Input must arrive in non-decreasing timestamp order; a regressed event is
// rejected without mutating the accumulator.
type Aggregator struct {
	symbol  string
	tf      models.Timeframe
	acc     *accumulator
	lastTS  time.Time
	hasLast bool
}

// NewAggregator creates an aggregator for one (symbol, timeframe) pair.
func NewAggregator(symbol string, tf models.Timeframe) (*Aggregator, error) {
	if symbol == "" {
		return nil, models.ErrInvalidSymbol
	}
	if err := tf.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{symbol: symbol, tf: tf}, nil
}

// Timeframe returns the aggregation timeframe.
func (a *Aggregator) Timeframe() models.Timeframe { return a.tf }

func (a *Aggregator) checkOrder(ts time.Time) error {
	if a.hasLast && ts.Before(a.lastTS) {
		return models.ErrOutOfOrderEvent
	}
	return nil
}

func (a *Aggregator) snapshot(isFinal bool) models.Bar {
	return models.Bar{
		Symbol:    a.symbol,
		Timeframe: a.tf,
		Start:     a.acc.start,
		End:       a.acc.end,
		Open:      a.acc.open,
		High:      a.acc.high,
		Low:       a.acc.low,
		Close:     a.acc.close,
		Volume:    a.acc.volume,
		IsFinal:   isFinal,
	}
}

// ProcessTrade feeds one trade and returns the resulting emissions in
// dispatch order.
func (a *Aggregator) ProcessTrade(t *models.Trade) ([]models.Bar, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := a.checkOrder(t.Timestamp); err != nil {
		return nil, err
	}
	a.lastTS = t.Timestamp
	a.hasLast = true

	if a.tf.IsTick() {
		return []models.Bar{{
			Symbol:    a.symbol,
			Timeframe: a.tf,
			Start:     t.Timestamp,
			End:       t.Timestamp,
			Open:      t.Price,
			High:      t.Price,
			Low:       t.Price,
			Close:     t.Price,
			Volume:    t.Size,
			IsFinal:   true,
		}}, nil
	}
	return a.accumulate(t.Timestamp, t.Price, t.Size), nil
}

// ProcessQuote feeds one quote as a synthetic zero-size trade at the
// midpoint. Suppression of quotes is an engine-level policy.
func (a *Aggregator) ProcessQuote(q *models.Quote) ([]models.Bar, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return a.ProcessTrade(q.ToSyntheticTrade())
}

// ProcessBar merges an upstream bar as a single event: open/high/low/close
// fold into the open bucket and volume accumulates. A tick aggregator
// re-emits the bar as an immediately-final tick bar.
func (a *Aggregator) ProcessBar(b *models.Bar) ([]models.Bar, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := a.checkOrder(b.Start); err != nil {
		return nil, err
	}
	a.lastTS = b.Start
	a.hasLast = true

	if a.tf.IsTick() {
		out := *b
		out.Timeframe = a.tf
		out.IsFinal = true
		return []models.Bar{out}, nil
	}

	bucketStart := a.tf.Truncate(b.Start)
	var emissions []models.Bar
	if a.acc != nil && bucketStart.After(a.acc.start) {
		emissions = append(emissions, a.snapshot(true))
		a.acc = nil
	}
	if a.acc == nil {
		a.acc = &accumulator{start: bucketStart, end: bucketStart.Add(a.tf.Duration())}
	}
	if a.acc.events == 0 {
		a.acc.open = b.Open
		a.acc.high = b.High
		a.acc.low = b.Low
	}
	if b.High > a.acc.high {
		a.acc.high = b.High
	}
	if b.Low < a.acc.low {
		a.acc.low = b.Low
	}
	a.acc.close = b.Close
	a.acc.volume += b.Volume
	a.acc.events++

	return append(emissions, a.snapshot(false)), nil
}

func (a *Aggregator) accumulate(ts time.Time, price, size float64) []models.Bar {
	bucketStart := a.tf.Truncate(ts)

	var emissions []models.Bar
	if a.acc != nil && bucketStart.After(a.acc.start) {
		emissions = append(emissions, a.snapshot(true))
		a.acc = nil
	}
	if a.acc == nil {
		a.acc = &accumulator{start: bucketStart, end: bucketStart.Add(a.tf.Duration())}
	}
	a.acc.update(price, size)

	return append(emissions, a.snapshot(false))
}

// Current returns a copy of the open provisional bar, or nil when no bucket
// is open.
func (a *Aggregator) Current() *models.Bar {
	if a.acc == nil {
		return nil
	}
	bar := a.snapshot(false)
	return &bar
}

// FlushOpen finalizes and clears the open bucket, so the last partial
// bucket is not lost on shutdown. Returns nil when no bucket is open.
func (a *Aggregator) FlushOpen() *models.Bar {
	if a.acc == nil {
		return nil
	}
	bar := a.snapshot(true)
	a.acc = nil
	return &bar
}
