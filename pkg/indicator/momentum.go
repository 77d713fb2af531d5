package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/pkg/rolling"
	"github.com/mohamedkhairy/streamta/pkg/smooth"
)

// RSI is the Wilders-smoothed relative strength index. 50 until a first
// price change exists; 100 when the smoothed loss is zero.
type RSI struct {
	name      string
	input     Input
	avgGain   smooth.Smoother
	avgLoss   smooth.Smoother
	prev      float64
	havePrev  bool
}

// NewRSI creates a relative strength index.
func NewRSI(length int, input Input) (*RSI, error) {
	if length < 1 {
		return nil, fmt.Errorf("rsi length %d: %w", length, models.ErrInvalidLength)
	}
	avgGain, _ := smooth.New(smooth.Wilders, length)
	avgLoss, _ := smooth.New(smooth.Wilders, length)
	return &RSI{
		name:    fmt.Sprintf("rsi_%d", length),
		input:   input,
		avgGain: avgGain,
		avgLoss: avgLoss,
	}, nil
}

func (r *RSI) Name() string { return r.name }

func (r *RSI) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	v := r.input(bar)

	var gain, loss float64
	if r.havePrev {
		if diff := v - r.prev; diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
	}
	ag := r.avgGain.Next(gain, isFinal)
	al := r.avgLoss.Next(loss, isFinal)

	var rsi float64
	switch {
	case ag == 0 && al == 0:
		rsi = 50
	case al == 0:
		rsi = 100
	default:
		rsi = 100 - 100/(1+ag/al)
	}

	if isFinal {
		r.prev = v
		r.havePrev = true
	}
	return one(includeOutputs, rsi, "Rsi")
}

func (r *RSI) Reset() {
	r.avgGain.Reset()
	r.avgLoss.Reset()
	r.prev = 0
	r.havePrev = false
}

// lagged keeps the last n committed inputs so an update can reference the
// value n bars back. Before the window fills, the oldest observed value is
// used.
type lagged struct {
	ring *rolling.Ring[float64]
}

func newLagged(n int) *lagged {
	return &lagged{ring: rolling.NewRing[float64](n)}
}

// ref returns the value n bars back, or the oldest observed, or the current
// value when nothing has been committed yet.
func (l *lagged) ref(current float64) float64 {
	if l.ring.Len() == 0 {
		return current
	}
	return l.ring.At(0)
}

// ROC is the rate of change 100·(v − v₋ₙ)/v₋ₙ.
type ROC struct {
	name  string
	input Input
	lag   *lagged
}

// NewROC creates a rate-of-change indicator.
func NewROC(length int, input Input) (*ROC, error) {
	if length < 1 {
		return nil, fmt.Errorf("roc length %d: %w", length, models.ErrInvalidLength)
	}
	return &ROC{
		name:  fmt.Sprintf("roc_%d", length),
		input: input,
		lag:   newLagged(length),
	}, nil
}

func (r *ROC) Name() string { return r.name }

func (r *ROC) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	v := r.input(bar)
	ref := r.lag.ref(v)
	var roc float64
	if ref != 0 {
		roc = 100 * (v - ref) / ref
	}
	if isFinal {
		r.lag.ring.Push(v)
	}
	return one(includeOutputs, roc, "Roc")
}

func (r *ROC) Reset() { r.lag.ring.Reset() }

// Momentum is the absolute change v − v₋ₙ.
type Momentum struct {
	name  string
	input Input
	lag   *lagged
}

// NewMomentum creates a momentum indicator.
func NewMomentum(length int, input Input) (*Momentum, error) {
	if length < 1 {
		return nil, fmt.Errorf("momentum length %d: %w", length, models.ErrInvalidLength)
	}
	return &Momentum{
		name:  fmt.Sprintf("momentum_%d", length),
		input: input,
		lag:   newLagged(length),
	}, nil
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	v := m.input(bar)
	mom := v - m.lag.ref(v)
	if isFinal {
		m.lag.ring.Push(v)
	}
	return one(includeOutputs, mom, "Momentum")
}

func (m *Momentum) Reset() { m.lag.ring.Reset() }

// Stochastic is the %K/%D oscillator: raw %K over the high/low window,
// smoothed by smoothK into K, and K smoothed by dLength into D. A flat
// window reports 50.
type Stochastic struct {
	name    string
	highs   *rolling.Max
	lows    *rolling.Min
	kSmooth smooth.Smoother
	dSmooth smooth.Smoother
}

// NewStochastic creates a stochastic oscillator.
func NewStochastic(kLength, smoothK, dLength int) (*Stochastic, error) {
	if kLength < 1 || smoothK < 1 || dLength < 1 {
		return nil, fmt.Errorf("stoch lengths %d/%d/%d: %w", kLength, smoothK, dLength, models.ErrInvalidLength)
	}
	ks, _ := smooth.New(smooth.SMA, smoothK)
	ds, _ := smooth.New(smooth.SMA, dLength)
	return &Stochastic{
		name:    fmt.Sprintf("stoch_%d_%d_%d", kLength, smoothK, dLength),
		highs:   rolling.NewMax(kLength),
		lows:    rolling.NewMin(kLength),
		kSmooth: ks,
		dSmooth: ds,
	}, nil
}

func (s *Stochastic) Name() string { return s.name }

func (s *Stochastic) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	var hh, ll float64
	if isFinal {
		s.highs.Add(bar.High)
		s.lows.Add(bar.Low)
		hh = s.highs.Value()
		ll = s.lows.Value()
	} else {
		hh = s.highs.Preview(bar.High)
		ll = s.lows.Preview(bar.Low)
	}

	fastK := 50.0
	if hh != ll {
		fastK = 100 * (bar.Close - ll) / (hh - ll)
	}
	k := s.kSmooth.Next(fastK, isFinal)
	d := s.dSmooth.Next(k, isFinal)

	out := Value{Value: k}
	if includeOutputs {
		out.Outputs = map[string]float64{"FastK": fastK, "K": k, "D": d}
	}
	return out
}

func (s *Stochastic) Reset() {
	s.highs.Reset()
	s.lows.Reset()
	s.kSmooth.Reset()
	s.dSmooth.Reset()
}

// WilliamsR is %R = −100·(hh − c)/(hh − ll); −50 on a flat window.
type WilliamsR struct {
	name  string
	highs *rolling.Max
	lows  *rolling.Min
}

// NewWilliamsR creates a Williams %R oscillator.
func NewWilliamsR(length int) (*WilliamsR, error) {
	if length < 1 {
		return nil, fmt.Errorf("williams_r length %d: %w", length, models.ErrInvalidLength)
	}
	return &WilliamsR{
		name:  fmt.Sprintf("williams_r_%d", length),
		highs: rolling.NewMax(length),
		lows:  rolling.NewMin(length),
	}, nil
}

func (w *WilliamsR) Name() string { return w.name }

func (w *WilliamsR) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	var hh, ll float64
	if isFinal {
		w.highs.Add(bar.High)
		w.lows.Add(bar.Low)
		hh = w.highs.Value()
		ll = w.lows.Value()
	} else {
		hh = w.highs.Preview(bar.High)
		ll = w.lows.Preview(bar.Low)
	}

	r := -50.0
	if hh != ll {
		r = -100 * (hh - bar.Close) / (hh - ll)
	}
	return one(includeOutputs, r, "WilliamsR")
}

func (w *WilliamsR) Reset() {
	w.highs.Reset()
	w.lows.Reset()
}

// CCI is the commodity channel index (tp − sma)/(0.015·meanDeviation) over
// the typical-price window. Zero when the deviation is zero. The mean
// deviation needs the whole window each update, so the cost class is medium.
type CCI struct {
	name string
	ring *rolling.Ring[float64]
}

// NewCCI creates a commodity channel index.
func NewCCI(length int) (*CCI, error) {
	if length < 1 {
		return nil, fmt.Errorf("cci length %d: %w", length, models.ErrInvalidLength)
	}
	return &CCI{
		name: fmt.Sprintf("cci_%d", length),
		ring: rolling.NewRing[float64](length),
	}, nil
}

func (c *CCI) Name() string { return c.name }

func (c *CCI) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	tp := (bar.High + bar.Low + bar.Close) / 3

	// Effective window: the last length−1 committed values plus tp.
	n := c.ring.Cap()
	k := c.ring.Len() + 1
	if k > n {
		k = n
	}
	sum := tp
	for i := 0; i < k-1; i++ {
		sum += c.ring.At(c.ring.Len() - 1 - i)
	}
	mean := sum / float64(k)

	dev := math.Abs(tp - mean)
	for i := 0; i < k-1; i++ {
		dev += math.Abs(c.ring.At(c.ring.Len()-1-i) - mean)
	}
	md := dev / float64(k)

	var cci float64
	if md != 0 {
		cci = (tp - mean) / (0.015 * md)
	}

	if isFinal {
		c.ring.Push(tp)
	}
	return one(includeOutputs, cci, "Cci")
}

func (c *CCI) Reset() { c.ring.Reset() }
