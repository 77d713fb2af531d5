package indicator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sdcoffey/techan"

	"github.com/mohamedkhairy/streamta/internal/models"
)

// Tolerance is the absolute bound for batch–stream parity.
const Tolerance = 1e-10

// BatchFunc is the batch reference: the full output series for a fixture of
// closed bars, index-aligned with the input.
type BatchFunc func(bars []*models.Bar) []float64

// Mismatch reports the first index where the streaming value diverged from
// the batch reference.
type Mismatch struct {
	Name     string
	Index    int
	Expected float64
	Actual   float64
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("parity mismatch for %s at index %d: expected %v, got %v",
		m.Name, m.Index, m.Expected, m.Actual)
}

func withinTolerance(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= Tolerance
}

// RunParity builds the batch reference once, then drives a fresh streaming
// instance over the fixture bar-by-bar with isFinal=true and reports the
// first divergence.
func RunParity(bars []*models.Bar, factory Factory, batch BatchFunc) error {
	expected := batch(bars)
	if len(expected) != len(bars) {
		return fmt.Errorf("batch reference returned %d values for %d bars", len(expected), len(bars))
	}

	ind, err := factory()
	if err != nil {
		return fmt.Errorf("parity factory: %w", err)
	}
	for i, bar := range bars {
		got := ind.Update(bar, true, false).Value
		if !withinTolerance(got, expected[i]) {
			return &Mismatch{Name: ind.Name(), Index: i, Expected: expected[i], Actual: got}
		}
	}
	return nil
}

// TechanBatch adapts a techan indicator into a batch reference: the series
// grows one candle per index and the indicator is evaluated at each step.
func TechanBatch(build TechanBuilder) BatchFunc {
	return func(bars []*models.Bar) []float64 {
		series := techan.NewTimeSeries()
		out := make([]float64, len(bars))
		for i, bar := range bars {
			series.AddCandle(toCandle(bar))
			out[i] = build(series).Calculate(series.LastIndex()).Float()
		}
		return out
	}
}

// Fixture produces a deterministic series of n closed one-minute bars: a
// seeded random walk with plausible intrabar ranges and volumes.
func Fixture(n int) []*models.Bar {
	rng := rand.New(rand.NewSource(42))
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	tf := models.Minutes(1)

	bars := make([]*models.Bar, n)
	price := 100.0
	for i := 0; i < n; i++ {
		open := price
		drift := rng.NormFloat64() * 0.8
		close := open + drift
		if close <= 1 {
			close = 1
		}
		high := math.Max(open, close) + rng.Float64()*0.5
		low := math.Min(open, close) - rng.Float64()*0.5
		if low <= 0.5 {
			low = 0.5
		}
		barStart := start.Add(time.Duration(i) * time.Minute)
		bars[i] = &models.Bar{
			Symbol:    "TEST",
			Timeframe: tf,
			Start:     barStart,
			End:       barStart.Add(time.Minute),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    float64(100 + rng.Intn(900)),
			IsFinal:   true,
		}
		price = close
	}
	return bars
}
