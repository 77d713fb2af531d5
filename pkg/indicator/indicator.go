// Package indicator implements the incremental indicator state machines and
// the catalog they are registered through. Every indicator consumes one
// OHLCV bar at a time: an update with isFinal=false is a pure preview
// computed against current state, and only isFinal=true commits.
package indicator

import (
	"github.com/mohamedkhairy/streamta/internal/models"
)

// Value is the result of a single update. Outputs carries the named
// sub-series (signal lines, bands) and is populated only when the caller
// asked for it, keeping the hot path allocation-free.
type Value struct {
	Value   float64
	Outputs map[string]float64
}

// Indicator is the contract every state machine implements.
//
// Update with isFinal=false must not mutate persistent state: it may read
// preview values from rolling primitives and call owned smoothers with
// isFinal=false, so repeating it with the same or a refined bar yields the
// same result. Update with isFinal=true commits at most once per owned
// primitive, in construction order. For any monotone sequence of final bars
// the produced series matches the batch reference within 1e-10.
type Indicator interface {
	// Name returns the instance name including parameters, e.g. "rsi_14".
	Name() string

	// Update processes a bar and returns the current indicator value.
	Update(bar *models.Bar, isFinal, includeOutputs bool) Value

	// Reset returns the instance to its construction-time state.
	Reset()
}

// Factory creates a fresh indicator instance. The engine invokes it once
// per (subscription, timeframe) so no state is ever shared.
type Factory func() (Indicator, error)

func one(includeOutputs bool, v float64, key string) Value {
	out := Value{Value: v}
	if includeOutputs {
		out.Outputs = map[string]float64{key: v}
	}
	return out
}
