// Package smooth implements the incremental moving-average family shared by
// the indicator state machines. Every smoother is single-input,
// single-output: Next(v, isFinal) returns the smoothed value, and a call
// with isFinal=false never advances persistent state, so the same
// provisional input can be refined any number of times.
package smooth

import "fmt"

// Kind selects a concrete smoother family.
type Kind int

const (
	SMA Kind = iota
	EMA
	WMA
	Wilders
	Triangular
	Hann
	Hamming
	SuperSmoother
	SuperSmoother3
)

// String returns the short name used in indicator metadata.
func (k Kind) String() string {
	switch k {
	case SMA:
		return "sma"
	case EMA:
		return "ema"
	case WMA:
		return "wma"
	case Wilders:
		return "wilders"
	case Triangular:
		return "trima"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case SuperSmoother:
		return "ss2"
	case SuperSmoother3:
		return "ss3"
	default:
		return "unknown"
	}
}

// Smoother is the incremental filter contract. Next with isFinal=false is a
// pure function of current state and v; only isFinal=true commits.
type Smoother interface {
	Next(v float64, isFinal bool) float64
	Reset()
}

// New builds a smoother of the given kind. Lengths below 1 are clamped to 1;
// a length-1 smoother passes input through unchanged.
func New(kind Kind, length int) (Smoother, error) {
	if length < 1 {
		length = 1
	}
	switch kind {
	case SMA:
		return newSMA(length), nil
	case EMA:
		return newEMA(2.0/float64(length+1), length), nil
	case Wilders:
		return newEMA(1.0/float64(length), length), nil
	case WMA:
		return newWindowed(linearWeights(length)), nil
	case Triangular:
		return newWindowed(triangularWeights(length)), nil
	case Hann:
		return newWindowed(hannWeights(length)), nil
	case Hamming:
		return newWindowed(hammingWeights(length)), nil
	case SuperSmoother:
		if length == 1 {
			return newEMA(1, 1), nil
		}
		return newSuperSmoother2(length), nil
	case SuperSmoother3:
		if length == 1 {
			return newEMA(1, 1), nil
		}
		return newSuperSmoother3(length), nil
	default:
		return nil, fmt.Errorf("smooth: unknown kind %d", int(kind))
	}
}
