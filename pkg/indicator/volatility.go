package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/pkg/rolling"
	"github.com/mohamedkhairy/streamta/pkg/smooth"
)

// ATR is the Wilders-smoothed average true range. The first bar's true
// range is high − low.
type ATR struct {
	name      string
	tr        smooth.Smoother
	prevClose float64
	havePrev  bool
}

// NewATR creates an average true range.
func NewATR(length int) (*ATR, error) {
	if length < 1 {
		return nil, fmt.Errorf("atr length %d: %w", length, models.ErrInvalidLength)
	}
	tr, _ := smooth.New(smooth.Wilders, length)
	return &ATR{
		name: fmt.Sprintf("atr_%d", length),
		tr:   tr,
	}, nil
}

func (a *ATR) Name() string { return a.name }

func (a *ATR) trueRange(bar *models.Bar) float64 {
	tr := bar.High - bar.Low
	if a.havePrev {
		tr = math.Max(tr, math.Max(math.Abs(bar.High-a.prevClose), math.Abs(a.prevClose-bar.Low)))
	}
	return tr
}

func (a *ATR) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	tr := a.trueRange(bar)
	atr := a.tr.Next(tr, isFinal)
	if isFinal {
		a.prevClose = bar.Close
		a.havePrev = true
	}

	out := Value{Value: atr}
	if includeOutputs {
		out.Outputs = map[string]float64{"Atr": atr, "Tr": tr}
	}
	return out
}

func (a *ATR) Reset() {
	a.tr.Reset()
	a.prevClose = 0
	a.havePrev = false
}

// stddevWindow maintains rolling sum and sum-of-squares over the input
// window and reports the population standard deviation of the k observed
// values.
type stddevWindow struct {
	sum   *rolling.Sum
	sumSq *rolling.Sum
}

func newStddevWindow(n int) *stddevWindow {
	return &stddevWindow{sum: rolling.NewSum(n), sumSq: rolling.NewSum(n)}
}

func (w *stddevWindow) meanStd(v float64, commit bool) (mean, std float64) {
	var s, sq float64
	var k int
	if commit {
		w.sum.Add(v)
		w.sumSq.Add(v * v)
		s, sq, k = w.sum.Total(), w.sumSq.Total(), w.sum.Len()
	} else {
		s, sq, k = w.sum.Preview(v), w.sumSq.Preview(v*v), w.sum.PreviewLen()
	}
	mean = s / float64(k)
	variance := sq/float64(k) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

func (w *stddevWindow) Reset() {
	w.sum.Reset()
	w.sumSq.Reset()
}

// Bollinger reports the middle band as primary value with upper and lower
// bands as named outputs.
type Bollinger struct {
	name   string
	input  Input
	window *stddevWindow
	mult   float64
}

// NewBollinger creates Bollinger bands with the given width multiplier.
func NewBollinger(length int, mult float64, input Input) (*Bollinger, error) {
	if length < 1 {
		return nil, fmt.Errorf("bollinger length %d: %w", length, models.ErrInvalidLength)
	}
	return &Bollinger{
		name:   fmt.Sprintf("bollinger_%d", length),
		input:  input,
		window: newStddevWindow(length),
		mult:   mult,
	}, nil
}

func (b *Bollinger) Name() string { return b.name }

func (b *Bollinger) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	mean, std := b.window.meanStd(b.input(bar), isFinal)

	out := Value{Value: mean}
	if includeOutputs {
		out.Outputs = map[string]float64{
			"Upper":  mean + b.mult*std,
			"Middle": mean,
			"Lower":  mean - b.mult*std,
		}
	}
	return out
}

func (b *Bollinger) Reset() { b.window.Reset() }

// StdDev reports the rolling population standard deviation of its input.
type StdDev struct {
	name   string
	input  Input
	window *stddevWindow
}

// NewStdDev creates a rolling standard deviation.
func NewStdDev(length int, input Input) (*StdDev, error) {
	if length < 1 {
		return nil, fmt.Errorf("stddev length %d: %w", length, models.ErrInvalidLength)
	}
	return &StdDev{
		name:   fmt.Sprintf("stddev_%d", length),
		input:  input,
		window: newStddevWindow(length),
	}, nil
}

func (s *StdDev) Name() string { return s.name }

func (s *StdDev) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	_, std := s.window.meanStd(s.input(bar), isFinal)
	return one(includeOutputs, std, "StdDev")
}

func (s *StdDev) Reset() { s.window.Reset() }
