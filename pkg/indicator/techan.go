package indicator

import (
	"fmt"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"github.com/mohamedkhairy/streamta/internal/models"
)

// TechanBuilder constructs a techan indicator bound to the given series.
// The builder runs on every update so techan's internal result caches never
// observe provisional values.
type TechanBuilder func(series *techan.TimeSeries) techan.Indicator

// Techan adapts any techan indicator to the streaming contract. Final bars
// are committed to an owned TimeSeries; a provisional bar is evaluated
// against a throwaway copy of the series, which keeps previews pure at the
// price of an O(n) rebuild — techan-backed indicators are not for the
// low-cost tier.
type Techan struct {
	name   string
	series *techan.TimeSeries
	build  TechanBuilder
}

// NewTechan wraps a techan indicator under the given instance name.
func NewTechan(name string, build TechanBuilder) (*Techan, error) {
	if name == "" {
		return nil, fmt.Errorf("techan adapter: empty name")
	}
	if build == nil {
		return nil, fmt.Errorf("techan adapter %q: nil builder", name)
	}
	return &Techan{
		name:   name,
		series: techan.NewTimeSeries(),
		build:  build,
	}, nil
}

func toCandle(bar *models.Bar) *techan.Candle {
	period := bar.End.Sub(bar.Start)
	if period <= 0 {
		period = time.Second
	}
	candle := techan.NewCandle(techan.NewTimePeriod(bar.Start, period))
	candle.OpenPrice = big.NewDecimal(bar.Open)
	candle.MaxPrice = big.NewDecimal(bar.High)
	candle.MinPrice = big.NewDecimal(bar.Low)
	candle.ClosePrice = big.NewDecimal(bar.Close)
	candle.Volume = big.NewDecimal(bar.Volume)
	return candle
}

func (t *Techan) Name() string { return t.name }

func (t *Techan) Update(bar *models.Bar, isFinal, includeOutputs bool) Value {
	series := t.series
	if !isFinal {
		series = techan.NewTimeSeries()
		for _, c := range t.series.Candles {
			series.AddCandle(c)
		}
	}
	series.AddCandle(toCandle(bar))

	v := t.build(series).Calculate(series.LastIndex()).Float()
	return one(includeOutputs, v, "Value")
}

func (t *Techan) Reset() {
	t.series = techan.NewTimeSeries()
}
