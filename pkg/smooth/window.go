package smooth

import (
	"math"

	"github.com/mohamedkhairy/streamta/pkg/rolling"
)

// smaSmoother is the O(1) simple moving average. While fewer than N inputs
// have been observed it averages the k observed values.
type smaSmoother struct {
	sum *rolling.Sum
}

func newSMA(length int) *smaSmoother {
	return &smaSmoother{sum: rolling.NewSum(length)}
}

func (s *smaSmoother) Next(v float64, isFinal bool) float64 {
	if !isFinal {
		return s.sum.Preview(v) / float64(s.sum.PreviewLen())
	}
	s.sum.Add(v)
	return s.sum.Total() / float64(s.sum.Len())
}

func (s *smaSmoother) Reset() { s.sum.Reset() }

// windowed is the shared FIR machinery for the weighted families. weights[0]
// applies to the oldest slot of a full window; during warm-up the newest-side
// weights cover the k observed values and the output is normalised by the
// weights actually used.
type windowed struct {
	ring    *rolling.Ring[float64]
	weights []float64
}

func newWindowed(weights []float64) *windowed {
	return &windowed{
		ring:    rolling.NewRing[float64](len(weights)),
		weights: weights,
	}
}

func (w *windowed) calc(v float64) float64 {
	n := len(w.weights)
	num := w.weights[n-1] * v
	den := w.weights[n-1]
	slot := n - 2
	for i := w.ring.Len() - 1; i >= 0 && slot >= 0; i-- {
		num += w.weights[slot] * w.ring.At(i)
		den += w.weights[slot]
		slot--
	}
	if den == 0 {
		return v
	}
	return num / den
}

func (w *windowed) Next(v float64, isFinal bool) float64 {
	out := w.calc(v)
	if isFinal {
		w.ring.Push(v)
	}
	return out
}

func (w *windowed) Reset() { w.ring.Reset() }

func linearWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = float64(i + 1)
	}
	return weights
}

func triangularWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		w := float64(i + 1)
		if mirror := float64(n - i); mirror < w {
			w = mirror
		}
		weights[i] = w
	}
	return weights
}

func hannWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 - math.Cos(2*math.Pi*float64(i+1)/float64(n+1))
	}
	return weights
}

func hammingWeights(n int) []float64 {
	if n == 1 {
		return []float64{1}
	}
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return weights
}
