// Package engine holds the streaming registry: per-(symbol, timeframe)
// aggregators, the subscription multi-map, and the fan-out dispatch path.
// All aggregation, indicator updates, and callbacks execute inline on the
// caller of OnTrade/OnQuote/OnBar; the engine spawns no goroutines.
// Distinct symbols have disjoint mutation paths, so two symbols may be
// driven from two goroutines as long as no subscription or callback is
// shared between them.
package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mohamedkhairy/streamta/internal/bars"
	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/pkg/indicator"
	"github.com/mohamedkhairy/streamta/pkg/logger"
)

// PanicPolicy controls what happens when a subscriber callback panics.
type PanicPolicy int

const (
	// PanicPolicyLog recovers, logs, and keeps dispatching.
	PanicPolicyLog PanicPolicy = iota
	// PanicPolicyPropagate re-raises after the remaining subscriptions of
	// the event have been served.
	PanicPolicyPropagate
)

// Options configures the engine.
type Options struct {
	// EmitProvisionalUpdates globally enables provisional dispatch.
	// Subscriptions opt out individually via IncludeUpdates.
	EmitProvisionalUpdates bool
	// SuppressQuotes drops quotes instead of aggregating them as synthetic
	// midpoint trades.
	SuppressQuotes bool
	// Panics selects the callback panic policy.
	Panics PanicPolicy
}

// DefaultOptions emits provisional updates and aggregates quotes.
func DefaultOptions() Options {
	return Options{EmitProvisionalUpdates: true}
}

// symbolRoutes is one symbol's slice of the routing tables. Subscription
// slices are copy-on-write: registration publishes a new slice under the
// engine lock, so the hot path can iterate a snapshot without holding it.
type symbolRoutes struct {
	order []models.Timeframe
	aggs  map[models.Timeframe]*bars.Aggregator
	subs  map[models.Timeframe][]*subscription
}

// Engine is the streaming engine. Registration is rare and takes the
// exclusive lock; dispatch is hot and reads a consistent snapshot.
type Engine struct {
	opts    Options
	mu      sync.RWMutex
	symbols map[string]*symbolRoutes
}

// New creates an engine.
func New(opts Options) *Engine {
	return &Engine{
		opts:    opts,
		symbols: make(map[string]*symbolRoutes),
	}
}

// Register creates one fresh indicator state per timeframe and routes
// matching bars to it. Construction failures surface before any engine
// state is touched.
func (e *Engine) Register(
	symbol string,
	timeframes []models.Timeframe,
	factory indicator.Factory,
	callback Callback,
	opts SubscriptionOptions,
) (*Handle, error) {
	if symbol == "" {
		return nil, models.ErrInvalidSymbol
	}
	if len(timeframes) == 0 {
		return nil, models.ErrInvalidTimeframe
	}
	if factory == nil {
		return nil, fmt.Errorf("register %s: nil factory", symbol)
	}

	// Build everything fallible first so a bad configuration cannot leave
	// a half-registered subscription behind.
	handle := &Handle{id: uuid.New(), engine: e}
	for _, tf := range timeframes {
		if err := tf.Validate(); err != nil {
			return nil, fmt.Errorf("register %s %s: %w", symbol, tf, err)
		}
		state, err := factory()
		if err != nil {
			return nil, fmt.Errorf("register %s %s: %w", symbol, tf, err)
		}
		handle.subs = append(handle.subs, &subscription{
			id:       handle.id,
			symbol:   symbol,
			tf:       tf,
			state:    state,
			callback: callback,
			opts:     opts,
		})
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	routes, ok := e.symbols[symbol]
	if !ok {
		routes = &symbolRoutes{
			aggs: make(map[models.Timeframe]*bars.Aggregator),
			subs: make(map[models.Timeframe][]*subscription),
		}
		e.symbols[symbol] = routes
	}
	for _, sub := range handle.subs {
		if _, ok := routes.aggs[sub.tf]; !ok {
			agg, err := bars.NewAggregator(symbol, sub.tf)
			if err != nil {
				return nil, err
			}
			routes.aggs[sub.tf] = agg
			routes.order = append(routes.order, sub.tf)
		}
		current := routes.subs[sub.tf]
		next := make([]*subscription, len(current), len(current)+1)
		copy(next, current)
		routes.subs[sub.tf] = append(next, sub)
		logger.ActiveSubscriptions.Inc()
	}

	logger.Debug("Subscription registered",
		logger.String("symbol", symbol),
		logger.String("indicator", handle.subs[0].state.Name()),
		logger.Int("timeframes", len(timeframes)),
	)
	return handle, nil
}

// RegisterAll bulk-registers every catalog entry surviving the filter, one
// handle per (indicator, timeframe) pair.
func (e *Engine) RegisterAll(
	symbol string,
	timeframes []models.Timeframe,
	callback Callback,
	opts SubscriptionOptions,
	filter *indicator.Filter,
) ([]*Handle, error) {
	input, err := indicator.ResolveInput(opts.Input)
	if err != nil {
		return nil, err
	}

	var handles []*Handle
	for _, spec := range indicator.Select(filter) {
		for _, tf := range timeframes {
			h, err := e.Register(symbol, []models.Timeframe{tf}, spec.Factory(input), callback, opts)
			if err != nil {
				for _, prev := range handles {
					_ = prev.Close()
				}
				return nil, fmt.Errorf("register_all %s %s: %w", spec.Name, tf, err)
			}
			for _, sub := range h.subs {
				sub.cost = spec.Cost
			}
			handles = append(handles, h)
		}
	}
	return handles, nil
}

// Unregister removes the handle's subscriptions. Dispatches already in
// flight complete; no new dispatch targets the handle after this returns.
func (e *Engine) Unregister(h *Handle) error {
	if h == nil {
		return models.ErrSubscriptionGone
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	routes, ok := e.symbols[h.subs[0].symbol]
	if !ok {
		return models.ErrSubscriptionGone
	}
	removed := false
	for _, sub := range h.subs {
		current := routes.subs[sub.tf]
		next := make([]*subscription, 0, len(current))
		for _, s := range current {
			if s != sub {
				next = append(next, s)
			}
		}
		if len(next) != len(current) {
			removed = true
			routes.subs[sub.tf] = next
			logger.ActiveSubscriptions.Dec()
		}
	}
	if !removed {
		return models.ErrSubscriptionGone
	}
	return nil
}

// routesFor snapshots one symbol's aggregators and subscription slices.
func (e *Engine) routesFor(symbol string) (order []models.Timeframe, aggs map[models.Timeframe]*bars.Aggregator, subs map[models.Timeframe][]*subscription) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	routes, ok := e.symbols[symbol]
	if !ok {
		return nil, nil, nil
	}
	order = routes.order
	aggs = make(map[models.Timeframe]*bars.Aggregator, len(routes.aggs))
	for tf, agg := range routes.aggs {
		aggs[tf] = agg
	}
	subs = make(map[models.Timeframe][]*subscription, len(routes.subs))
	for tf, list := range routes.subs {
		subs[tf] = list
	}
	return order, aggs, subs
}

// OnTrade feeds a trade into every aggregator registered for its symbol
// and fans the emissions out to subscribers.
func (e *Engine) OnTrade(t *models.Trade) error {
	order, aggs, subs := e.routesFor(t.Symbol)
	var firstErr error
	for _, tf := range order {
		emissions, err := aggs[tf].ProcessTrade(t)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		e.dispatch(emissions, subs[tf])
	}
	return firstErr
}

// OnQuote feeds a quote as a synthetic midpoint trade, unless quotes are
// suppressed.
func (e *Engine) OnQuote(q *models.Quote) error {
	if e.opts.SuppressQuotes {
		return nil
	}
	order, aggs, subs := e.routesFor(q.Symbol)
	var firstErr error
	for _, tf := range order {
		emissions, err := aggs[tf].ProcessQuote(q)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		e.dispatch(emissions, subs[tf])
	}
	return firstErr
}

// OnBar feeds an externally aggregated bar.
func (e *Engine) OnBar(b *models.Bar) error {
	order, aggs, subs := e.routesFor(b.Symbol)
	var firstErr error
	for _, tf := range order {
		emissions, err := aggs[tf].ProcessBar(b)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		e.dispatch(emissions, subs[tf])
	}
	return firstErr
}

// Flush finalizes every open bucket for the symbol and dispatches the
// resulting final bars. Used on shutdown so partial buckets are not lost.
func (e *Engine) Flush(symbol string) {
	order, aggs, subs := e.routesFor(symbol)
	for _, tf := range order {
		if bar := aggs[tf].FlushOpen(); bar != nil {
			e.dispatch([]models.Bar{*bar}, subs[tf])
		}
	}
}

// Symbols returns the symbols with registered routes.
func (e *Engine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.symbols))
	for sym := range e.symbols {
		out = append(out, sym)
	}
	return out
}

// SubscriptionCount returns the number of live subscriptions across all
// symbols and timeframes.
func (e *Engine) SubscriptionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	count := 0
	for _, routes := range e.symbols {
		for _, list := range routes.subs {
			count += len(list)
		}
	}
	return count
}

func (e *Engine) dispatch(emissions []models.Bar, subs []*subscription) {
	var panicked any
	for i := range emissions {
		bar := &emissions[i]
		if !bar.IsFinal && !e.opts.EmitProvisionalUpdates {
			continue
		}
		if bar.IsFinal {
			logger.BarsFinalized.WithLabelValues(bar.Symbol, bar.Timeframe.String()).Inc()
		}
		for _, sub := range subs {
			if !bar.IsFinal && !sub.opts.IncludeUpdates {
				continue
			}
			value := sub.state.Update(bar, bar.IsFinal, sub.opts.IncludeOutputs)
			if sub.callback == nil {
				continue
			}
			if p := e.notify(sub, bar, value); p != nil {
				panicked = p
			}
		}
	}
	if panicked != nil && e.opts.Panics == PanicPolicyPropagate {
		panic(panicked)
	}
}

// notify runs one callback, isolating panics so one bad subscriber cannot
// starve the rest of the event's subscriptions.
func (e *Engine) notify(sub *subscription, bar *models.Bar, value indicator.Value) (panicked any) {
	defer func() {
		if r := recover(); r != nil {
			panicked = r
			logger.Error("Subscriber callback panicked",
				logger.String("symbol", sub.symbol),
				logger.String("indicator", sub.state.Name()),
				logger.String("timeframe", sub.tf.String()),
				logger.Any("panic", r),
			)
		}
	}()

	kind := "final"
	if !bar.IsFinal {
		kind = "provisional"
	}
	logger.UpdatesDispatched.WithLabelValues(kind).Inc()

	sub.callback(Update{
		Symbol:    sub.symbol,
		Timeframe: sub.tf,
		BarStart:  bar.Start,
		BarEnd:    bar.End,
		IsFinal:   bar.IsFinal,
		Value:     value.Value,
		Outputs:   value.Outputs,
	})
	return nil
}
