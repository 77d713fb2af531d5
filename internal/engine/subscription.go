package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/pkg/indicator"
)

// SubscriptionOptions is the per-subscription policy: which update kinds to
// emit, whether named outputs ride along, and which bar projection feeds
// the indicator.
type SubscriptionOptions struct {
	// IncludeUpdates permits provisional (in-progress bar) emissions.
	IncludeUpdates bool
	// IncludeOutputs includes the named sub-outputs in callbacks.
	IncludeOutputs bool
	// Input selects the bar projection for single-input indicators.
	Input indicator.InputName
}

// DefaultSubscriptionOptions emits provisional and final updates on the
// close price without named outputs.
func DefaultSubscriptionOptions() SubscriptionOptions {
	return SubscriptionOptions{IncludeUpdates: true, Input: indicator.InputClose}
}

// Update is the callback payload.
type Update struct {
	Symbol    string
	Timeframe models.Timeframe
	BarStart  time.Time
	BarEnd    time.Time
	IsFinal   bool
	Value     float64
	Outputs   map[string]float64
}

// Callback receives indicator updates. Callbacks run inline on the
// dispatching goroutine and must not call back into the engine for the same
// symbol.
type Callback func(Update)

// subscription is one registered (indicator × symbol × timeframe) route.
// While live it exclusively owns its indicator state.
type subscription struct {
	id       uuid.UUID
	symbol   string
	tf       models.Timeframe
	state    indicator.Indicator
	callback Callback
	opts     SubscriptionOptions
	cost     indicator.Cost
}

// Handle identifies a registration and unregisters it on Close. One handle
// covers one indicator across the timeframes it was registered for.
type Handle struct {
	id     uuid.UUID
	engine *Engine
	subs   []*subscription
	once   sync.Once
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string { return h.id.String() }

// Symbol returns the subscribed symbol.
func (h *Handle) Symbol() string { return h.subs[0].symbol }

// IndicatorName returns the name of the underlying indicator instance.
func (h *Handle) IndicatorName() string { return h.subs[0].state.Name() }

// Timeframes returns the timeframes this handle covers.
func (h *Handle) Timeframes() []models.Timeframe {
	tfs := make([]models.Timeframe, len(h.subs))
	for i, sub := range h.subs {
		tfs[i] = sub.tf
	}
	return tfs
}

// Close unregisters the subscription. Safe to call more than once.
func (h *Handle) Close() error {
	var err error = models.ErrSubscriptionGone
	h.once.Do(func() {
		err = h.engine.Unregister(h)
	})
	if err == models.ErrSubscriptionGone {
		return nil
	}
	return err
}
