package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/pkg/rolling"
	"github.com/mohamedkhairy/streamta/pkg/smooth"
)

// RoofingFilter is the Ehlers roofing filter: a two-pole high-pass removing
// cycle components longer than hpLength, followed by a super smoother of
// ssLength. All recursion coefficients are precomputed; state starts at
// zero, so the first outputs carry the usual filter transient.
type RoofingFilter struct {
	name   string
	input  Input
	alpha1 float64
	in1    float64
	in2    float64
	hp1    float64
	hp2    float64
	ss     smooth.Smoother
}

// NewRoofingFilter creates a roofing filter.
func NewRoofingFilter(hpLength, ssLength int, input Input) (*RoofingFilter, error) {
	if hpLength < 1 || ssLength < 1 {
		return nil, fmt.Errorf("roofing lengths %d/%d: %w", hpLength, ssLength, models.ErrInvalidLength)
	}
	omega := 0.707 * 2 * math.Pi / float64(hpLength)
	alpha1 := (math.Cos(omega) + math.Sin(omega) - 1) / math.Cos(omega)
	ss, err := smooth.New(smooth.SuperSmoother, ssLength)
	if err != nil {
		return nil, err
	}
	return &RoofingFilter{
		name:   fmt.Sprintf("roofing_%d_%d", hpLength, ssLength),
		input:  input,
		alpha1: alpha1,
		ss:     ss,
	}, nil
}

func (r *RoofingFilter) Name() string { return r.name }

func (r *RoofingFilter) highpass(v float64) float64 {
	a := 1 - r.alpha1/2
	return a*a*(v-2*r.in1+r.in2) + 2*(1-r.alpha1)*r.hp1 - (1-r.alpha1)*(1-r.alpha1)*r.hp2
}

func (r *RoofingFilter) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	v := r.input(bar)
	hp := r.highpass(v)
	filt := r.ss.Next(hp, isFinal)

	if isFinal {
		r.in2 = r.in1
		r.in1 = v
		r.hp2 = r.hp1
		r.hp1 = hp
	}

	out := Value{Value: filt}
	if includeOutputs {
		out.Outputs = map[string]float64{"Filt": filt, "HighPass": hp}
	}
	return out
}

func (r *RoofingFilter) Reset() {
	r.in1, r.in2, r.hp1, r.hp2 = 0, 0, 0, 0
	r.ss.Reset()
}

// AutocorrPeriodogram estimates the dominant cycle period from the
// autocorrelation spectrum of roofing-filtered prices. Each update computes
// Pearson autocorrelations for every lag up to maxPeriod and a discrete
// spectrum over the candidate periods, which makes it O(maxPeriod²) per
// bar: the catalog's high cost class.
type AutocorrPeriodogram struct {
	name      string
	minPeriod int
	maxPeriod int
	roofing   *RoofingFilter
	filt      *rolling.Ring[float64]
	prevDC    float64
}

// NewAutocorrPeriodogram creates a dominant-cycle estimator over periods in
// [minPeriod, maxPeriod].
func NewAutocorrPeriodogram(minPeriod, maxPeriod int, input Input) (*AutocorrPeriodogram, error) {
	if minPeriod < 2 || maxPeriod <= minPeriod {
		return nil, fmt.Errorf("periodogram range %d..%d: %w", minPeriod, maxPeriod, models.ErrInvalidLength)
	}
	roofing, err := NewRoofingFilter(maxPeriod, 10, input)
	if err != nil {
		return nil, err
	}
	return &AutocorrPeriodogram{
		name:      fmt.Sprintf("autocorr_periodogram_%d_%d", minPeriod, maxPeriod),
		minPeriod: minPeriod,
		maxPeriod: maxPeriod,
		roofing:   roofing,
		filt:      rolling.NewRing[float64](2 * maxPeriod),
		prevDC:    float64(minPeriod+maxPeriod) / 2,
	}, nil
}

func (p *AutocorrPeriodogram) Name() string { return p.name }

// correlation computes the Pearson autocorrelation of series at the given
// lag over at most maxPeriod pairs.
func correlation(series []float64, lag, maxPairs int) float64 {
	count := len(series) - lag
	if count > maxPairs {
		count = maxPairs
	}
	if count < 2 {
		return 0
	}
	var sx, sy, sxx, syy, sxy float64
	for i := len(series) - count; i < len(series); i++ {
		x := series[i]
		y := series[i-lag]
		sx += x
		sy += y
		sxx += x * x
		syy += y * y
		sxy += x * y
	}
	n := float64(count)
	den := (n*sxx - sx*sx) * (n*syy - sy*sy)
	if den <= 0 {
		return 0
	}
	return (n*sxy - sx*sy) / math.Sqrt(den)
}

func (p *AutocorrPeriodogram) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	filt := p.roofing.Update(bar, isFinal, false).Value

	series := make([]float64, 0, p.filt.Len()+1)
	for i := 0; i < p.filt.Len(); i++ {
		series = append(series, p.filt.At(i))
	}
	series = append(series, filt)

	corr := make([]float64, p.maxPeriod+1)
	for lag := 1; lag <= p.maxPeriod && lag < len(series); lag++ {
		corr[lag] = correlation(series, lag, p.maxPeriod)
	}

	var maxPwr float64
	power := make([]float64, p.maxPeriod+1)
	for period := p.minPeriod; period <= p.maxPeriod; period++ {
		var cosPart, sinPart float64
		for lag := 1; lag <= p.maxPeriod; lag++ {
			cosPart += corr[lag] * math.Cos(2*math.Pi*float64(lag)/float64(period))
			sinPart += corr[lag] * math.Sin(2*math.Pi*float64(lag)/float64(period))
		}
		power[period] = cosPart*cosPart + sinPart*sinPart
		if power[period] > maxPwr {
			maxPwr = power[period]
		}
	}

	dc := p.prevDC
	if maxPwr > 0 {
		var num, den float64
		for period := p.minPeriod; period <= p.maxPeriod; period++ {
			if norm := power[period] / maxPwr; norm > 0.5 {
				num += float64(period) * norm
				den += norm
			}
		}
		if den != 0 {
			dc = num / den
		}
	}

	if isFinal {
		p.filt.Push(filt)
		p.prevDC = dc
	}

	out := Value{Value: dc}
	if includeOutputs {
		out.Outputs = map[string]float64{"DominantCycle": dc, "Filt": filt}
	}
	return out
}

func (p *AutocorrPeriodogram) Reset() {
	p.roofing.Reset()
	p.filt.Reset()
	p.prevDC = float64(p.minPeriod+p.maxPeriod) / 2
}
