package indicator

import (
	"math"
	"testing"

	cinar "github.com/cinar/indicator"
	"github.com/sdcoffey/techan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/streamta/internal/models"
)

// The batch references below are independent slice-based calculations,
// index-aligned with the fixture, mirroring the documented seed policies.

func closesOf(bars []*models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func batchSMA(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	total := 0.0
	for i, v := range values {
		total += v
		if i >= n {
			total -= values[i-n]
		}
		count := i + 1
		if count > n {
			count = n
		}
		out[i] = total / float64(count)
	}
	return out
}

func batchRecursive(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = out[i-1] + alpha*(v-out[i-1])
	}
	return out
}

func batchEMA(values []float64, n int) []float64 {
	return batchRecursive(values, 2.0/float64(n+1))
}

func batchWilders(values []float64, n int) []float64 {
	return batchRecursive(values, 1.0/float64(n))
}

func batchTrueRange(bars []*models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			pc := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-pc), math.Abs(pc-b.Low)))
		}
		out[i] = tr
	}
	return out
}

func windowExtremes(bars []*models.Bar, n, i int) (hh, ll float64) {
	lo := i - n + 1
	if lo < 0 {
		lo = 0
	}
	hh, ll = bars[lo].High, bars[lo].Low
	for j := lo + 1; j <= i; j++ {
		if bars[j].High > hh {
			hh = bars[j].High
		}
		if bars[j].Low < ll {
			ll = bars[j].Low
		}
	}
	return hh, ll
}

func TestParity_Smoke(t *testing.T) {
	fixture := Fixture(300)
	input, err := ResolveInput(InputClose)
	require.NoError(t, err)

	cases := []struct {
		name    string
		factory Factory
		batch   BatchFunc
	}{
		{
			name:    "sma_20",
			factory: func() (Indicator, error) { return NewSMA(20, input) },
			batch: func(bars []*models.Bar) []float64 {
				return batchSMA(closesOf(bars), 20)
			},
		},
		{
			name:    "ema_20",
			factory: func() (Indicator, error) { return NewEMA(20, input) },
			batch: func(bars []*models.Bar) []float64 {
				return batchEMA(closesOf(bars), 20)
			},
		},
		{
			name:    "rsi_14",
			factory: func() (Indicator, error) { return NewRSI(14, input) },
			batch: func(bars []*models.Bar) []float64 {
				values := closesOf(bars)
				gains := make([]float64, len(values))
				losses := make([]float64, len(values))
				for i := 1; i < len(values); i++ {
					if diff := values[i] - values[i-1]; diff > 0 {
						gains[i] = diff
					} else {
						losses[i] = -diff
					}
				}
				ag := batchWilders(gains, 14)
				al := batchWilders(losses, 14)
				out := make([]float64, len(values))
				for i := range out {
					switch {
					case ag[i] == 0 && al[i] == 0:
						out[i] = 50
					case al[i] == 0:
						out[i] = 100
					default:
						out[i] = 100 - 100/(1+ag[i]/al[i])
					}
				}
				return out
			},
		},
		{
			name:    "macd_12_26_9",
			factory: func() (Indicator, error) { return NewMACD(12, 26, 9, input) },
			batch: func(bars []*models.Bar) []float64 {
				values := closesOf(bars)
				fast := batchEMA(values, 12)
				slow := batchEMA(values, 26)
				out := make([]float64, len(values))
				for i := range out {
					out[i] = fast[i] - slow[i]
				}
				return out
			},
		},
		{
			name:    "atr_14",
			factory: func() (Indicator, error) { return NewATR(14) },
			batch: func(bars []*models.Bar) []float64 {
				return batchWilders(batchTrueRange(bars), 14)
			},
		},
		{
			name:    "adx_14",
			factory: func() (Indicator, error) { return NewADX(14) },
			batch:   batchADX(14),
		},
		{
			name:    "stoch_14_3_3",
			factory: func() (Indicator, error) { return NewStochastic(14, 3, 3) },
			batch: func(bars []*models.Bar) []float64 {
				fastK := make([]float64, len(bars))
				for i, b := range bars {
					hh, ll := windowExtremes(bars, 14, i)
					if hh == ll {
						fastK[i] = 50
					} else {
						fastK[i] = 100 * (b.Close - ll) / (hh - ll)
					}
				}
				return batchSMA(fastK, 3)
			},
		},
		{
			name:    "mfi_14",
			factory: func() (Indicator, error) { return NewMFI(14) },
			batch: func(bars []*models.Bar) []float64 {
				out := make([]float64, len(bars))
				var posTotal, negTotal float64
				pos := make([]float64, len(bars))
				neg := make([]float64, len(bars))
				var prevTP float64
				for i, b := range bars {
					tp := (b.High + b.Low + b.Close) / 3
					flow := tp * b.Volume
					if i > 0 {
						if tp > prevTP {
							pos[i] = flow
						} else if tp < prevTP {
							neg[i] = flow
						}
					}
					prevTP = tp

					posTotal += pos[i]
					negTotal += neg[i]
					if i >= 14 {
						posTotal -= pos[i-14]
						negTotal -= neg[i-14]
					}
					if total := posTotal + negTotal; total != 0 {
						out[i] = 100 * posTotal / total
					} else {
						out[i] = 50
					}
				}
				return out
			},
		},
		{
			name:    "obv",
			factory: func() (Indicator, error) { return NewOBV() },
			batch: func(bars []*models.Bar) []float64 {
				out := make([]float64, len(bars))
				for i, b := range bars {
					if i == 0 {
						out[i] = 0
						continue
					}
					out[i] = out[i-1]
					if b.Close > bars[i-1].Close {
						out[i] += b.Volume
					} else if b.Close < bars[i-1].Close {
						out[i] -= b.Volume
					}
				}
				return out
			},
		},
		{
			name:    "roc_12",
			factory: func() (Indicator, error) { return NewROC(12, input) },
			batch: func(bars []*models.Bar) []float64 {
				values := closesOf(bars)
				out := make([]float64, len(values))
				for i, v := range values {
					if i == 0 {
						continue
					}
					lo := i - 12
					if lo < 0 {
						lo = 0
					}
					if ref := values[lo]; ref != 0 {
						out[i] = 100 * (v - ref) / ref
					}
				}
				return out
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, RunParity(fixture, tc.factory, tc.batch))
		})
	}
}

// batchADX mirrors the directional-movement pipeline batch-style.
func batchADX(n int) BatchFunc {
	return func(bars []*models.Bar) []float64 {
		tr := batchTrueRange(bars)
		pdm := make([]float64, len(bars))
		mdm := make([]float64, len(bars))
		for i := 1; i < len(bars); i++ {
			up := bars[i].High - bars[i-1].High
			down := bars[i-1].Low - bars[i].Low
			if up > down && up > 0 {
				pdm[i] = up
			}
			if down > up && down > 0 {
				mdm[i] = down
			}
		}
		atr := batchWilders(tr, n)
		plus := batchWilders(pdm, n)
		minus := batchWilders(mdm, n)

		dx := make([]float64, len(bars))
		for i := range bars {
			var plusDI, minusDI float64
			if atr[i] != 0 {
				plusDI = 100 * plus[i] / atr[i]
				minusDI = 100 * minus[i] / atr[i]
			}
			if sum := plusDI + minusDI; sum != 0 {
				dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
			}
		}
		return batchWilders(dx, n)
	}
}

func TestParity_ExtendedCatalog(t *testing.T) {
	fixture := Fixture(250)
	input, err := ResolveInput(InputClose)
	require.NoError(t, err)

	cases := []struct {
		name    string
		factory Factory
		batch   BatchFunc
	}{
		{
			name:    "wma_20",
			factory: func() (Indicator, error) { return NewWMA(20, input) },
			batch: func(bars []*models.Bar) []float64 {
				values := closesOf(bars)
				const n = 20
				out := make([]float64, len(values))
				for i := range values {
					num := float64(n) * values[i]
					den := float64(n)
					slot := n - 1
					for j := i - 1; j >= 0 && slot >= 1; j-- {
						num += float64(slot) * values[j]
						den += float64(slot)
						slot--
					}
					out[i] = num / den
				}
				return out
			},
		},
		{
			name:    "mma_20",
			factory: func() (Indicator, error) { return NewMMA(20, input) },
			batch: func(bars []*models.Bar) []float64 {
				return batchWilders(closesOf(bars), 20)
			},
		},
		{
			name:    "dema_20",
			factory: func() (Indicator, error) { return NewDEMA(20, input) },
			batch: func(bars []*models.Bar) []float64 {
				e1 := batchEMA(closesOf(bars), 20)
				e2 := batchEMA(e1, 20)
				out := make([]float64, len(e1))
				for i := range out {
					out[i] = 2*e1[i] - e2[i]
				}
				return out
			},
		},
		{
			name:    "tema_20",
			factory: func() (Indicator, error) { return NewTEMA(20, input) },
			batch: func(bars []*models.Bar) []float64 {
				e1 := batchEMA(closesOf(bars), 20)
				e2 := batchEMA(e1, 20)
				e3 := batchEMA(e2, 20)
				out := make([]float64, len(e1))
				for i := range out {
					out[i] = 3*e1[i] - 3*e2[i] + e3[i]
				}
				return out
			},
		},
		{
			name:    "williams_r_14",
			factory: func() (Indicator, error) { return NewWilliamsR(14) },
			batch: func(bars []*models.Bar) []float64 {
				out := make([]float64, len(bars))
				for i, b := range bars {
					hh, ll := windowExtremes(bars, 14, i)
					if hh == ll {
						out[i] = -50
					} else {
						out[i] = -100 * (hh - b.Close) / (hh - ll)
					}
				}
				return out
			},
		},
		{
			name:    "cci_20",
			factory: func() (Indicator, error) { return NewCCI(20) },
			batch: func(bars []*models.Bar) []float64 {
				const n = 20
				tps := make([]float64, len(bars))
				for i, b := range bars {
					tps[i] = (b.High + b.Low + b.Close) / 3
				}
				out := make([]float64, len(bars))
				for i := range bars {
					lo := i - n + 1
					if lo < 0 {
						lo = 0
					}
					k := i - lo + 1
					sum := tps[i]
					for j := i - 1; j >= lo; j-- {
						sum += tps[j]
					}
					mean := sum / float64(k)
					dev := math.Abs(tps[i] - mean)
					for j := i - 1; j >= lo; j-- {
						dev += math.Abs(tps[j] - mean)
					}
					md := dev / float64(k)
					if md != 0 {
						out[i] = (tps[i] - mean) / (0.015 * md)
					}
				}
				return out
			},
		},
		{
			name:    "bollinger_20_middle",
			factory: func() (Indicator, error) { return NewBollinger(20, 2.0, input) },
			batch: func(bars []*models.Bar) []float64 {
				return batchSMA(closesOf(bars), 20)
			},
		},
		{
			name:    "stddev_20",
			factory: func() (Indicator, error) { return NewStdDev(20, input) },
			batch: func(bars []*models.Bar) []float64 {
				values := closesOf(bars)
				const n = 20
				out := make([]float64, len(values))
				var total, totalSq float64
				for i, v := range values {
					total += v
					totalSq += v * v
					if i >= n {
						total -= values[i-n]
						totalSq -= values[i-n] * values[i-n]
					}
					k := i + 1
					if k > n {
						k = n
					}
					mean := total / float64(k)
					variance := totalSq/float64(k) - mean*mean
					if variance < 0 {
						variance = 0
					}
					out[i] = math.Sqrt(variance)
				}
				return out
			},
		},
		{
			name:    "cmf_20",
			factory: func() (Indicator, error) { return NewCMF(20) },
			batch: func(bars []*models.Bar) []float64 {
				const n = 20
				out := make([]float64, len(bars))
				flows := make([]float64, len(bars))
				vols := make([]float64, len(bars))
				var flowTotal, volTotal float64
				for i, b := range bars {
					var mult float64
					if span := b.High - b.Low; span != 0 {
						mult = ((b.Close - b.Low) - (b.High - b.Close)) / span
					}
					flows[i] = mult * b.Volume
					vols[i] = b.Volume

					flowTotal += flows[i]
					volTotal += vols[i]
					if i >= n {
						flowTotal -= flows[i-n]
						volTotal -= vols[i-n]
					}
					if volTotal != 0 {
						out[i] = flowTotal / volTotal
					}
				}
				return out
			},
		},
		{
			name:    "vwap_20",
			factory: func() (Indicator, error) { return NewVWAP(20) },
			batch: func(bars []*models.Bar) []float64 {
				const n = 20
				out := make([]float64, len(bars))
				pvs := make([]float64, len(bars))
				vols := make([]float64, len(bars))
				var pvTotal, volTotal float64
				for i, b := range bars {
					tp := (b.High + b.Low + b.Close) / 3
					pvs[i] = tp * b.Volume
					vols[i] = b.Volume

					pvTotal += pvs[i]
					volTotal += vols[i]
					if i >= n {
						pvTotal -= pvs[i-n]
						volTotal -= vols[i-n]
					}
					if volTotal != 0 {
						out[i] = pvTotal / volTotal
					} else {
						out[i] = tp
					}
				}
				return out
			},
		},
		{
			name:    "volume_sma_20",
			factory: func() (Indicator, error) { return NewVolumeSMA(20) },
			batch: func(bars []*models.Bar) []float64 {
				vols := make([]float64, len(bars))
				for i, b := range bars {
					vols[i] = b.Volume
				}
				return batchSMA(vols, 20)
			},
		},
		{
			name:    "momentum_10",
			factory: func() (Indicator, error) { return NewMomentum(10, input) },
			batch: func(bars []*models.Bar) []float64 {
				values := closesOf(bars)
				out := make([]float64, len(values))
				for i, v := range values {
					lo := i - 10
					if lo < 0 {
						lo = 0
					}
					out[i] = v - values[lo]
				}
				return out
			},
		},
		{
			name:    "supersmoother_10",
			factory: func() (Indicator, error) { return NewSuperSmoother(10, input) },
			batch: func(bars []*models.Bar) []float64 {
				return batchSuperSmoother(closesOf(bars), 10)
			},
		},
		{
			name:    "roofing_48_10",
			factory: func() (Indicator, error) { return NewRoofingFilter(48, 10, input) },
			batch: func(bars []*models.Bar) []float64 {
				values := closesOf(bars)
				omega := 0.707 * 2 * math.Pi / 48
				alpha1 := (math.Cos(omega) + math.Sin(omega) - 1) / math.Cos(omega)
				a := 1 - alpha1/2
				hp := make([]float64, len(values))
				for i, v := range values {
					var in1, in2, hp1, hp2 float64
					if i > 0 {
						in1 = values[i-1]
						hp1 = hp[i-1]
					}
					if i > 1 {
						in2 = values[i-2]
						hp2 = hp[i-2]
					}
					hp[i] = a*a*(v-2*in1+in2) + 2*(1-alpha1)*hp1 - (1-alpha1)*(1-alpha1)*hp2
				}
				return batchSuperSmoother(hp, 10)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, RunParity(fixture, tc.factory, tc.batch))
		})
	}
}

// batchSuperSmoother mirrors the two-pole recursion with the same
// coefficient arithmetic the streaming smoother precomputes.
func batchSuperSmoother(values []float64, length int) []float64 {
	a1 := math.Exp(-1.414 * math.Pi / float64(length))
	b1 := 2 * a1 * math.Cos(1.414*math.Pi/float64(length))
	c2 := b1
	c3 := -a1 * a1
	c1 := 1 - c2 - c3

	out := make([]float64, len(values))
	for i, v := range values {
		if i < 2 {
			out[i] = v
			continue
		}
		out[i] = c1*(v+values[i-1])/2 + c2*out[i-1] + c3*out[i-2]
	}
	return out
}

// TestParity_CinarConvergence cross-checks the recursive families against
// the cinar batch catalog. Seed conventions differ in the first bars and
// wash out exponentially, so the comparison starts past the warm-up.
func TestParity_CinarConvergence(t *testing.T) {
	fixture := Fixture(400)
	values := closesOf(fixture)
	input, err := ResolveInput(InputClose)
	require.NoError(t, err)

	t.Run("sma_20", func(t *testing.T) {
		oracle := cinar.Sma(20, values)
		sma, err := NewSMA(20, input)
		require.NoError(t, err)
		for i, bar := range fixture {
			got := sma.Update(bar, true, false).Value
			if i >= 50 {
				assert.InDelta(t, oracle[i], got, 1e-6, "index %d", i)
			}
		}
	})

	t.Run("ema_20", func(t *testing.T) {
		oracle := cinar.Ema(20, values)
		ema, err := NewEMA(20, input)
		require.NoError(t, err)
		for i, bar := range fixture {
			got := ema.Update(bar, true, false).Value
			if i >= 300 {
				assert.InDelta(t, oracle[i], got, 1e-6, "index %d", i)
			}
		}
	})

	t.Run("macd_12_26_9", func(t *testing.T) {
		macdOracle, _ := cinar.Macd(values)
		macd, err := NewMACD(12, 26, 9, input)
		require.NoError(t, err)
		for i, bar := range fixture {
			got := macd.Update(bar, true, false).Value
			if i >= 300 {
				assert.InDelta(t, macdOracle[i], got, 1e-6, "index %d", i)
			}
		}
	})
}

// TestParity_TechanAdapter drives the techan adapter streaming-side and the
// same techan indicator batch-side over the identical series.
func TestParity_TechanAdapter(t *testing.T) {
	fixture := Fixture(120)

	builders := map[string]TechanBuilder{
		"techan_ema_20": func(series *techan.TimeSeries) techan.Indicator {
			return techan.NewEMAIndicator(techan.NewClosePriceIndicator(series), 20)
		},
		"techan_rsi_14": func(series *techan.TimeSeries) techan.Indicator {
			return techan.NewRelativeStrengthIndexIndicator(techan.NewClosePriceIndicator(series), 14)
		},
		"techan_atr_14": func(series *techan.TimeSeries) techan.Indicator {
			return techan.NewAverageTrueRangeIndicator(series, 14)
		},
	}

	for name, build := range builders {
		build := build
		t.Run(name, func(t *testing.T) {
			factory := func() (Indicator, error) { return NewTechan(name, build) }
			assert.NoError(t, RunParity(fixture, factory, TechanBatch(build)))
		})
	}
}

func TestTechan_ProvisionalDoesNotCommit(t *testing.T) {
	fixture := Fixture(30)
	adapter, err := NewTechan("techan_ema_5", func(series *techan.TimeSeries) techan.Indicator {
		return techan.NewEMAIndicator(techan.NewClosePriceIndicator(series), 5)
	})
	require.NoError(t, err)

	shadow, err := NewTechan("techan_ema_5", func(series *techan.TimeSeries) techan.Indicator {
		return techan.NewEMAIndicator(techan.NewClosePriceIndicator(series), 5)
	})
	require.NoError(t, err)

	for i, bar := range fixture {
		p1 := adapter.Update(bar, false, false).Value
		p2 := adapter.Update(bar, false, false).Value
		assert.Equal(t, p1, p2, "bar %d", i)

		final := adapter.Update(bar, true, false).Value
		assert.Equal(t, p1, final, "bar %d", i)
		assert.Equal(t, shadow.Update(bar, true, false).Value, final, "bar %d", i)
	}
}

func TestRunParity_ReportsFirstMismatch(t *testing.T) {
	fixture := Fixture(10)
	input, _ := ResolveInput(InputClose)

	factory := func() (Indicator, error) { return NewSMA(5, input) }
	broken := func(bars []*models.Bar) []float64 {
		out := batchSMA(closesOf(bars), 5)
		out[3] += 1
		return out
	}

	err := RunParity(fixture, factory, broken)
	require.Error(t, err)
	var mismatch *Mismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Index)
	assert.Equal(t, "sma_5", mismatch.Name)
}

func TestRunParity_NaNEqualsNaN(t *testing.T) {
	fixture := Fixture(5)

	factory := func() (Indicator, error) { return nanIndicator{}, nil }
	batch := func(bars []*models.Bar) []float64 {
		out := make([]float64, len(bars))
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	assert.NoError(t, RunParity(fixture, factory, batch))
}

type nanIndicator struct{}

func (nanIndicator) Name() string { return "nan" }
func (nanIndicator) Update(*models.Bar, bool, bool) Value {
	return Value{Value: math.NaN()}
}
func (nanIndicator) Reset() {}
