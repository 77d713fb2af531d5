package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/pkg/rolling"
	"github.com/mohamedkhairy/streamta/pkg/smooth"
)

// OBV is on-balance volume: volume added on up closes, subtracted on down
// closes. The first bar contributes nothing since the previous close seeds
// to the first close.
type OBV struct {
	obv       float64
	prevClose float64
	havePrev  bool
}

// NewOBV creates an on-balance volume indicator.
func NewOBV() (*OBV, error) {
	return &OBV{}, nil
}

func (o *OBV) Name() string { return "obv" }

func (o *OBV) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	var delta float64
	if o.havePrev {
		if bar.Close > o.prevClose {
			delta = bar.Volume
		} else if bar.Close < o.prevClose {
			delta = -bar.Volume
		}
	}
	v := o.obv + delta

	if isFinal {
		o.obv = v
		o.prevClose = bar.Close
		o.havePrev = true
	}
	return one(includeOutputs, v, "Obv")
}

func (o *OBV) Reset() {
	o.obv = 0
	o.prevClose = 0
	o.havePrev = false
}

// MFI is the money flow index: up-flow and down-flow rolling sums over
// typical-price money flow, reported as 100·pos/(pos+neg). 50 when both
// flows are empty.
type MFI struct {
	name    string
	posFlow *rolling.Sum
	negFlow *rolling.Sum
	prevTP  float64
	havePrev bool
}

// NewMFI creates a money flow index.
func NewMFI(length int) (*MFI, error) {
	if length < 1 {
		return nil, fmt.Errorf("mfi length %d: %w", length, models.ErrInvalidLength)
	}
	return &MFI{
		name:    fmt.Sprintf("mfi_%d", length),
		posFlow: rolling.NewSum(length),
		negFlow: rolling.NewSum(length),
	}, nil
}

func (m *MFI) Name() string { return m.name }

func (m *MFI) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	tp := (bar.High + bar.Low + bar.Close) / 3
	flow := tp * bar.Volume

	var pos, neg float64
	if m.havePrev {
		if tp > m.prevTP {
			pos = flow
		} else if tp < m.prevTP {
			neg = flow
		}
	}

	var posSum, negSum float64
	if isFinal {
		m.posFlow.Add(pos)
		m.negFlow.Add(neg)
		posSum, negSum = m.posFlow.Total(), m.negFlow.Total()
		m.prevTP = tp
		m.havePrev = true
	} else {
		posSum, negSum = m.posFlow.Preview(pos), m.negFlow.Preview(neg)
	}

	mfi := 50.0
	if total := posSum + negSum; total != 0 {
		mfi = 100 * posSum / total
	}
	return one(includeOutputs, mfi, "Mfi")
}

func (m *MFI) Reset() {
	m.posFlow.Reset()
	m.negFlow.Reset()
	m.prevTP = 0
	m.havePrev = false
}

// CMF is the Chaikin money flow: the ratio of rolling money-flow volume to
// rolling volume. Zero when the window holds no volume.
type CMF struct {
	name    string
	flowSum *rolling.Sum
	volSum  *rolling.Sum
}

// NewCMF creates a Chaikin money flow indicator.
func NewCMF(length int) (*CMF, error) {
	if length < 1 {
		return nil, fmt.Errorf("cmf length %d: %w", length, models.ErrInvalidLength)
	}
	return &CMF{
		name:    fmt.Sprintf("cmf_%d", length),
		flowSum: rolling.NewSum(length),
		volSum:  rolling.NewSum(length),
	}, nil
}

func (c *CMF) Name() string { return c.name }

func (c *CMF) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	var mult float64
	if span := bar.High - bar.Low; span != 0 {
		mult = ((bar.Close - bar.Low) - (bar.High - bar.Close)) / span
	}
	flow := mult * bar.Volume

	var flowTotal, volTotal float64
	if isFinal {
		c.flowSum.Add(flow)
		c.volSum.Add(bar.Volume)
		flowTotal, volTotal = c.flowSum.Total(), c.volSum.Total()
	} else {
		flowTotal, volTotal = c.flowSum.Preview(flow), c.volSum.Preview(bar.Volume)
	}

	var cmf float64
	if volTotal != 0 {
		cmf = flowTotal / volTotal
	}
	return one(includeOutputs, cmf, "Cmf")
}

func (c *CMF) Reset() {
	c.flowSum.Reset()
	c.volSum.Reset()
}

// VolumeSMA is the simple moving average of bar volume.
type VolumeSMA struct {
	name string
	ma   smooth.Smoother
}

// NewVolumeSMA creates a volume moving average.
func NewVolumeSMA(length int) (*VolumeSMA, error) {
	if length < 1 {
		return nil, fmt.Errorf("volume_sma length %d: %w", length, models.ErrInvalidLength)
	}
	ma, _ := smooth.New(smooth.SMA, length)
	return &VolumeSMA{
		name: fmt.Sprintf("volume_sma_%d", length),
		ma:   ma,
	}, nil
}

func (v *VolumeSMA) Name() string { return v.name }

func (v *VolumeSMA) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	out := v.ma.Next(bar.Volume, isFinal)
	return one(includeOutputs, out, "VolumeSma")
}

func (v *VolumeSMA) Reset() { v.ma.Reset() }

// VWAP is the rolling volume-weighted average price over the last n bars,
// using typical price per bar. Falls back to typical price when the window
// holds no volume.
type VWAP struct {
	name   string
	pvSum  *rolling.Sum
	volSum *rolling.Sum
}

// NewVWAP creates a rolling VWAP.
func NewVWAP(length int) (*VWAP, error) {
	if length < 1 {
		return nil, fmt.Errorf("vwap length %d: %w", length, models.ErrInvalidLength)
	}
	return &VWAP{
		name:   fmt.Sprintf("vwap_%d", length),
		pvSum:  rolling.NewSum(length),
		volSum: rolling.NewSum(length),
	}, nil
}

func (v *VWAP) Name() string { return v.name }

func (v *VWAP) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	tp := (bar.High + bar.Low + bar.Close) / 3
	pv := tp * bar.Volume

	var pvTotal, volTotal float64
	if isFinal {
		v.pvSum.Add(pv)
		v.volSum.Add(bar.Volume)
		pvTotal, volTotal = v.pvSum.Total(), v.volSum.Total()
	} else {
		pvTotal, volTotal = v.pvSum.Preview(pv), v.volSum.Preview(bar.Volume)
	}

	vwap := tp
	if volTotal != 0 {
		vwap = pvTotal / volTotal
	}
	return one(includeOutputs, vwap, "Vwap")
}

func (v *VWAP) Reset() {
	v.pvSum.Reset()
	v.volSum.Reset()
}
