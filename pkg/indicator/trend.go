package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/pkg/smooth"
)

// MACD is the moving-average convergence/divergence: fast EMA minus slow
// EMA, with an EMA signal line over the difference.
type MACD struct {
	name   string
	input  Input
	fast   smooth.Smoother
	slow   smooth.Smoother
	signal smooth.Smoother
}

// NewMACD creates a MACD indicator.
func NewMACD(fastLength, slowLength, signalLength int, input Input) (*MACD, error) {
	if fastLength < 1 || slowLength < 1 || signalLength < 1 {
		return nil, fmt.Errorf("macd lengths %d/%d/%d: %w", fastLength, slowLength, signalLength, models.ErrInvalidLength)
	}
	fast, _ := smooth.New(smooth.EMA, fastLength)
	slow, _ := smooth.New(smooth.EMA, slowLength)
	signal, _ := smooth.New(smooth.EMA, signalLength)
	return &MACD{
		name:   fmt.Sprintf("macd_%d_%d_%d", fastLength, slowLength, signalLength),
		input:  input,
		fast:   fast,
		slow:   slow,
		signal: signal,
	}, nil
}

func (m *MACD) Name() string { return m.name }

func (m *MACD) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	v := m.input(bar)
	macd := m.fast.Next(v, isFinal) - m.slow.Next(v, isFinal)
	signal := m.signal.Next(macd, isFinal)

	out := Value{Value: macd}
	if includeOutputs {
		out.Outputs = map[string]float64{
			"Macd":      macd,
			"Signal":    signal,
			"Histogram": macd - signal,
		}
	}
	return out
}

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
}

// ADX is the Wilders average directional index with +DI/−DI sub-outputs.
type ADX struct {
	name     string
	trS      smooth.Smoother
	plusS    smooth.Smoother
	minusS   smooth.Smoother
	adxS     smooth.Smoother
	prevHigh  float64
	prevLow   float64
	prevClose float64
	havePrev  bool
}

// NewADX creates an average directional index.
func NewADX(length int) (*ADX, error) {
	if length < 1 {
		return nil, fmt.Errorf("adx length %d: %w", length, models.ErrInvalidLength)
	}
	trS, _ := smooth.New(smooth.Wilders, length)
	plusS, _ := smooth.New(smooth.Wilders, length)
	minusS, _ := smooth.New(smooth.Wilders, length)
	adxS, _ := smooth.New(smooth.Wilders, length)
	return &ADX{
		name:   fmt.Sprintf("adx_%d", length),
		trS:    trS,
		plusS:  plusS,
		minusS: minusS,
		adxS:   adxS,
	}, nil
}

func (a *ADX) Name() string { return a.name }

func (a *ADX) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	tr := bar.High - bar.Low
	var plusDM, minusDM float64
	if a.havePrev {
		tr = math.Max(tr, math.Max(math.Abs(bar.High-a.prevClose), math.Abs(a.prevClose-bar.Low)))
		up := bar.High - a.prevHigh
		down := a.prevLow - bar.Low
		if up > down && up > 0 {
			plusDM = up
		}
		if down > up && down > 0 {
			minusDM = down
		}
	}

	atr := a.trS.Next(tr, isFinal)
	plus := a.plusS.Next(plusDM, isFinal)
	minus := a.minusS.Next(minusDM, isFinal)

	var plusDI, minusDI float64
	if atr != 0 {
		plusDI = 100 * plus / atr
		minusDI = 100 * minus / atr
	}
	var dx float64
	if sum := plusDI + minusDI; sum != 0 {
		dx = 100 * math.Abs(plusDI-minusDI) / sum
	}
	adx := a.adxS.Next(dx, isFinal)

	if isFinal {
		a.prevHigh = bar.High
		a.prevLow = bar.Low
		a.prevClose = bar.Close
		a.havePrev = true
	}

	out := Value{Value: adx}
	if includeOutputs {
		out.Outputs = map[string]float64{
			"Adx":     adx,
			"PlusDi":  plusDI,
			"MinusDi": minusDI,
		}
	}
	return out
}

func (a *ADX) Reset() {
	a.trS.Reset()
	a.plusS.Reset()
	a.minusS.Reset()
	a.adxS.Reset()
	a.prevHigh, a.prevLow, a.prevClose = 0, 0, 0
	a.havePrev = false
}
