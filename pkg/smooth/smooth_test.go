package smooth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var series = []float64{10, 20, 30, 25, 15, 40, 35, 30, 45, 50}

func allKinds() []Kind {
	return []Kind{SMA, EMA, WMA, Wilders, Triangular, Hann, Hamming, SuperSmoother, SuperSmoother3}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(Kind(99), 5)
	assert.Error(t, err)
}

func TestSMA_WarmupUsesObservedValues(t *testing.T) {
	s, err := New(SMA, 3)
	require.NoError(t, err)

	assert.Equal(t, 10.0, s.Next(10, true))
	assert.Equal(t, 15.0, s.Next(20, true))
	assert.Equal(t, 20.0, s.Next(30, true))
	assert.Equal(t, 25.0, s.Next(25, true)) // (20+30+25)/3
}

func TestEMA_SeedAndRecurrence(t *testing.T) {
	s, err := New(EMA, 9)
	require.NoError(t, err)

	assert.Equal(t, 10.0, s.Next(10, true))
	alpha := 2.0 / 10.0
	want := 10 + alpha*(20-10)
	assert.InDelta(t, want, s.Next(20, true), 1e-12)
}

func TestWilders_Alpha(t *testing.T) {
	s, err := New(Wilders, 4)
	require.NoError(t, err)

	s.Next(10, true)
	got := s.Next(20, true)
	assert.InDelta(t, 10+0.25*(20-10), got, 1e-12)
}

func TestWMA_FullWindow(t *testing.T) {
	s, err := New(WMA, 3)
	require.NoError(t, err)

	s.Next(10, true)
	s.Next(20, true)
	got := s.Next(30, true)
	// (1*10 + 2*20 + 3*30) / 6
	assert.InDelta(t, 140.0/6.0, got, 1e-12)
}

func TestLengthOne_PassesThrough(t *testing.T) {
	for _, kind := range allKinds() {
		s, err := New(kind, 1)
		require.NoError(t, err, "kind %s", kind)
		for _, v := range series {
			assert.Equal(t, v, s.Next(v, true), "kind %s", kind)
		}
	}
}

func TestLengthClampedToOne(t *testing.T) {
	s, err := New(SMA, 0)
	require.NoError(t, err)
	assert.Equal(t, 42.0, s.Next(42, true))
}

func TestProvisional_DoesNotAdvanceState(t *testing.T) {
	for _, kind := range allKinds() {
		s, err := New(kind, 4)
		require.NoError(t, err, "kind %s", kind)

		shadow, _ := New(kind, 4)
		for _, v := range series {
			// Repeated provisional calls return the same value.
			p1 := s.Next(v, false)
			p2 := s.Next(v, false)
			assert.Equal(t, p1, p2, "kind %s", kind)

			// Provisional equals the value the final commit reports.
			final := s.Next(v, true)
			assert.Equal(t, p1, final, "kind %s", kind)

			// And the stream is identical to one that never previewed.
			assert.Equal(t, shadow.Next(v, true), final, "kind %s", kind)
		}
	}
}

func TestReset_EquivalentToFresh(t *testing.T) {
	for _, kind := range allKinds() {
		used, err := New(kind, 5)
		require.NoError(t, err)
		for _, v := range series {
			used.Next(v, true)
		}
		used.Reset()

		fresh, _ := New(kind, 5)
		for _, v := range series {
			assert.Equal(t, fresh.Next(v, true), used.Next(v, true), "kind %s", kind)
		}
	}
}

func TestSuperSmoother_CoefficientsSumToOne(t *testing.T) {
	s := newSuperSmoother2(10)
	assert.InDelta(t, 1.0, s.c1+s.c2+s.c3, 1e-12)

	s3 := newSuperSmoother3(10)
	assert.InDelta(t, 1.0, s3.c1+s3.c2+s3.c3+s3.c4, 1e-12)
}

func TestSuperSmoother_ConvergesToConstant(t *testing.T) {
	s, _ := New(SuperSmoother, 8)
	var got float64
	for i := 0; i < 200; i++ {
		got = s.Next(100, true)
	}
	assert.InDelta(t, 100.0, got, 1e-6)
}
