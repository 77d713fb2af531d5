package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/pkg/smooth"
)

// smoothed wraps a single smoother over one input projection. SMA, EMA,
// WMA, MMA (Wilders), the windowed families, and the Ehlers super smoother
// are all instances of it.
type smoothed struct {
	name   string
	key    string
	input  Input
	ma     smooth.Smoother
}

func newSmoothed(kind smooth.Kind, length int, key string, input Input) (*smoothed, error) {
	if length < 1 {
		return nil, fmt.Errorf("%s length %d: %w", key, length, models.ErrInvalidLength)
	}
	ma, err := smooth.New(kind, length)
	if err != nil {
		return nil, err
	}
	return &smoothed{
		name:  fmt.Sprintf("%s_%d", kind, length),
		key:   key,
		input: input,
		ma:    ma,
	}, nil
}

// NewSMA creates a simple moving average over the given input.
func NewSMA(length int, input Input) (Indicator, error) {
	return newSmoothed(smooth.SMA, length, "Sma", input)
}

// NewEMA creates an exponential moving average.
func NewEMA(length int, input Input) (Indicator, error) {
	return newSmoothed(smooth.EMA, length, "Ema", input)
}

// NewWMA creates a linearly weighted moving average.
func NewWMA(length int, input Input) (Indicator, error) {
	return newSmoothed(smooth.WMA, length, "Wma", input)
}

// NewMMA creates a Wilders (modified) moving average.
func NewMMA(length int, input Input) (Indicator, error) {
	s, err := newSmoothed(smooth.Wilders, length, "Mma", input)
	if err != nil {
		return nil, err
	}
	s.name = fmt.Sprintf("mma_%d", length)
	return s, nil
}

// NewTriangularMA creates a triangular weighted moving average.
func NewTriangularMA(length int, input Input) (Indicator, error) {
	return newSmoothed(smooth.Triangular, length, "Trima", input)
}

// NewSuperSmoother creates an Ehlers two-pole super smoother.
func NewSuperSmoother(length int, input Input) (Indicator, error) {
	s, err := newSmoothed(smooth.SuperSmoother, length, "SuperSmoother", input)
	if err != nil {
		return nil, err
	}
	s.name = fmt.Sprintf("supersmoother_%d", length)
	return s, nil
}

func (s *smoothed) Name() string { return s.name }

func (s *smoothed) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	v := s.ma.Next(s.input(bar), isFinal)
	return one(includeOutputs, v, s.key)
}

func (s *smoothed) Reset() { s.ma.Reset() }

// DEMA is the double exponential moving average 2·ema1 − ema2.
type DEMA struct {
	name  string
	input Input
	ema1  smooth.Smoother
	ema2  smooth.Smoother
}

// NewDEMA creates a double exponential moving average.
func NewDEMA(length int, input Input) (*DEMA, error) {
	if length < 1 {
		return nil, fmt.Errorf("dema length %d: %w", length, models.ErrInvalidLength)
	}
	ema1, _ := smooth.New(smooth.EMA, length)
	ema2, _ := smooth.New(smooth.EMA, length)
	return &DEMA{
		name:  fmt.Sprintf("dema_%d", length),
		input: input,
		ema1:  ema1,
		ema2:  ema2,
	}, nil
}

func (d *DEMA) Name() string { return d.name }

func (d *DEMA) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	e1 := d.ema1.Next(d.input(bar), isFinal)
	e2 := d.ema2.Next(e1, isFinal)
	return one(includeOutputs, 2*e1-e2, "Dema")
}

func (d *DEMA) Reset() {
	d.ema1.Reset()
	d.ema2.Reset()
}

// TEMA is the triple exponential moving average 3·ema1 − 3·ema2 + ema3.
type TEMA struct {
	name  string
	input Input
	ema1  smooth.Smoother
	ema2  smooth.Smoother
	ema3  smooth.Smoother
}

// NewTEMA creates a triple exponential moving average.
func NewTEMA(length int, input Input) (*TEMA, error) {
	if length < 1 {
		return nil, fmt.Errorf("tema length %d: %w", length, models.ErrInvalidLength)
	}
	ema1, _ := smooth.New(smooth.EMA, length)
	ema2, _ := smooth.New(smooth.EMA, length)
	ema3, _ := smooth.New(smooth.EMA, length)
	return &TEMA{
		name:  fmt.Sprintf("tema_%d", length),
		input: input,
		ema1:  ema1,
		ema2:  ema2,
		ema3:  ema3,
	}, nil
}

func (t *TEMA) Name() string { return t.name }

func (t *TEMA) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	e1 := t.ema1.Next(t.input(bar), isFinal)
	e2 := t.ema2.Next(e1, isFinal)
	e3 := t.ema3.Next(e2, isFinal)
	return one(includeOutputs, 3*e1-3*e2+e3, "Tema")
}

func (t *TEMA) Reset() {
	t.ema1.Reset()
	t.ema2.Reset()
	t.ema3.Reset()
}
