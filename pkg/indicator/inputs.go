package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/streamta/internal/models"
)

// Input projects a bar to the scalar an indicator consumes. Callers may
// supply their own projection instead of resolving one by name.
type Input func(*models.Bar) float64

// InputName selects one of the closed-form bar projections.
type InputName int

const (
	InputClose InputName = iota
	InputOpen
	InputHigh
	InputLow
	InputTypical     // (h+l+c)/3
	InputWeighted    // (h+l+2c)/4
	InputFullTypical // (o+h+l+c)/4
	InputMedian      // (h+l)/2
	InputMidpoint    // cross-bar; rejected by the resolver
)

// String returns the name used in configuration and metadata.
func (n InputName) String() string {
	switch n {
	case InputClose:
		return "close"
	case InputOpen:
		return "open"
	case InputHigh:
		return "high"
	case InputLow:
		return "low"
	case InputTypical:
		return "typical"
	case InputWeighted:
		return "weighted"
	case InputFullTypical:
		return "full_typical"
	case InputMedian:
		return "median"
	case InputMidpoint:
		return "midpoint"
	default:
		return "unknown"
	}
}

// ResolveInput maps a name to its pointwise projection. Midpoint needs
// cross-bar lookback and is not supported at this layer; requesting it (or
// an unknown name) fails at construction time, never on the update path.
func ResolveInput(name InputName) (Input, error) {
	switch name {
	case InputClose:
		return func(b *models.Bar) float64 { return b.Close }, nil
	case InputOpen:
		return func(b *models.Bar) float64 { return b.Open }, nil
	case InputHigh:
		return func(b *models.Bar) float64 { return b.High }, nil
	case InputLow:
		return func(b *models.Bar) float64 { return b.Low }, nil
	case InputTypical:
		return func(b *models.Bar) float64 { return (b.High + b.Low + b.Close) / 3 }, nil
	case InputWeighted:
		return func(b *models.Bar) float64 { return (b.High + b.Low + 2*b.Close) / 4 }, nil
	case InputFullTypical:
		return func(b *models.Bar) float64 { return (b.Open + b.High + b.Low + b.Close) / 4 }, nil
	case InputMedian:
		return func(b *models.Bar) float64 { return (b.High + b.Low) / 2 }, nil
	default:
		return nil, fmt.Errorf("resolve input %q: %w", name, models.ErrUnsupportedInput)
	}
}
