package rolling

// Sum maintains a rolling sum over a window of the last N contributions.
// Add is O(1): the running total gains the new value and loses the evicted
// one.
type Sum struct {
	ring  *Ring[float64]
	total float64
}

// NewSum creates a rolling sum over a window of n values.
func NewSum(n int) *Sum {
	return &Sum{ring: NewRing[float64](n)}
}

// Add commits v into the window and returns the value it evicted (zero when
// the window was not yet full).
func (s *Sum) Add(v float64) (evicted float64) {
	evicted, wasFull := s.ring.Push(v)
	s.total += v
	if wasFull {
		s.total -= evicted
	}
	return evicted
}

// Preview returns the total the window would have after Add(v), without
// mutating any state.
func (s *Sum) Preview(v float64) float64 {
	if s.ring.Full() {
		return s.total + v - s.ring.Oldest()
	}
	return s.total + v
}

// PreviewLen returns the element count the window would have after Add(v).
func (s *Sum) PreviewLen() int {
	if s.ring.Full() {
		return s.ring.Len()
	}
	return s.ring.Len() + 1
}

// Total returns the current window sum.
func (s *Sum) Total() float64 { return s.total }

// Len returns the number of committed values in the window.
func (s *Sum) Len() int { return s.ring.Len() }

// Cap returns the window size N.
func (s *Sum) Cap() int { return s.ring.Cap() }

// At returns the i-th committed value, 0 = oldest.
func (s *Sum) At(i int) float64 { return s.ring.At(i) }

// Reset empties the window.
func (s *Sum) Reset() {
	s.ring.Reset()
	s.total = 0
}
