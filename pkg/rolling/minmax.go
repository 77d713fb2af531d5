package rolling

// extremum is a monotonic deque tracking the window extreme over the last N
// samples. For a max window the deque values are non-increasing head to
// tail; for a min window non-decreasing.
type extremum struct {
	window int
	keeps  func(kept, incoming float64) bool // kept stays ahead of incoming
	idx    []int
	val    []float64
	n      int // samples committed so far
}

func newExtremum(n int, keeps func(kept, incoming float64) bool) *extremum {
	if n < 1 {
		n = 1
	}
	return &extremum{
		window: n,
		keeps:  keeps,
		idx:    make([]int, 0, n),
		val:    make([]float64, 0, n),
	}
}

// Add commits sample v into the window.
func (e *extremum) Add(v float64) {
	for len(e.val) > 0 && !e.keeps(e.val[len(e.val)-1], v) {
		e.val = e.val[:len(e.val)-1]
		e.idx = e.idx[:len(e.idx)-1]
	}
	e.val = append(e.val, v)
	e.idx = append(e.idx, e.n)
	e.n++
	if e.idx[0] <= e.n-1-e.window {
		e.val = e.val[1:]
		e.idx = e.idx[1:]
	}
}

// Value returns the current window extreme. The window must be non-empty.
func (e *extremum) Value() float64 {
	return e.val[0]
}

// Len returns the number of samples committed, capped at the window size.
func (e *extremum) Len() int {
	if e.n < e.window {
		return e.n
	}
	return e.window
}

// Preview returns the extreme the window would report after Add(v), without
// mutating the deque.
func (e *extremum) Preview(v float64) float64 {
	for i := 0; i < len(e.val); i++ {
		if e.idx[i] <= e.n-e.window {
			continue // would age out once v lands at index n
		}
		if e.keeps(e.val[i], v) {
			return e.val[i]
		}
		break
	}
	return v
}

// Reset empties the window.
func (e *extremum) Reset() {
	e.idx = e.idx[:0]
	e.val = e.val[:0]
	e.n = 0
}

// Max tracks the maximum over a sliding window of N samples.
type Max struct{ extremum }

// NewMax creates a rolling maximum over a window of n samples.
func NewMax(n int) *Max {
	return &Max{*newExtremum(n, func(kept, incoming float64) bool { return kept > incoming })}
}

// Min tracks the minimum over a sliding window of N samples.
type Min struct{ extremum }

// NewMin creates a rolling minimum over a window of n samples.
func NewMin(n int) *Min {
	return &Min{*newExtremum(n, func(kept, incoming float64) bool { return kept < incoming })}
}
