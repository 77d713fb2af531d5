package indicator

import (
	"fmt"
	"strings"

	"github.com/mohamedkhairy/streamta/internal/models"
)

// Category groups catalog entries for filtering and the HTTP surface.
type Category string

const (
	CategoryTrend      Category = "trend"
	CategoryMomentum   Category = "momentum"
	CategoryVolatility Category = "volatility"
	CategoryVolume     Category = "volume"
	CategoryOther      Category = "other"
)

// Cost classifies per-update work: low is constant, medium scans its window,
// high is O(maxLength²) (the Ehlers periodogram family). The zero value
// means "no limit" in a Filter.
type Cost int

const (
	CostLow Cost = iota + 1
	CostMedium
	CostHigh
)

// String returns the label used in metadata and the API.
func (c Cost) String() string {
	switch c {
	case CostLow:
		return "low"
	case CostMedium:
		return "medium"
	case CostHigh:
		return "high"
	default:
		return "unbounded"
	}
}

// Spec is one catalog entry: an indicator family with its default
// parameters, category, and cost class.
type Spec struct {
	Name        string
	Category    Category
	Cost        Cost
	Description string
	build       func(input Input) (Indicator, error)
}

// Factory binds the spec to an input projection, producing the per-instance
// factory the engine calls once per subscription and timeframe.
func (s Spec) Factory(input Input) Factory {
	return func() (Indicator, error) { return s.build(input) }
}

// catalog is the static indicator registry. Order is the registration order
// used by RegisterAll, so it stays deterministic.
var catalog = []Spec{
	{Name: "sma", Category: CategoryTrend, Cost: CostLow, Description: "Simple moving average (20)",
		build: func(in Input) (Indicator, error) { return NewSMA(20, in) }},
	{Name: "ema", Category: CategoryTrend, Cost: CostLow, Description: "Exponential moving average (20)",
		build: func(in Input) (Indicator, error) { return NewEMA(20, in) }},
	{Name: "wma", Category: CategoryTrend, Cost: CostMedium, Description: "Weighted moving average (20)",
		build: func(in Input) (Indicator, error) { return NewWMA(20, in) }},
	{Name: "dema", Category: CategoryTrend, Cost: CostLow, Description: "Double exponential moving average (20)",
		build: func(in Input) (Indicator, error) { return NewDEMA(20, in) }},
	{Name: "tema", Category: CategoryTrend, Cost: CostLow, Description: "Triple exponential moving average (20)",
		build: func(in Input) (Indicator, error) { return NewTEMA(20, in) }},
	{Name: "mma", Category: CategoryTrend, Cost: CostLow, Description: "Wilders modified moving average (20)",
		build: func(in Input) (Indicator, error) { return NewMMA(20, in) }},
	{Name: "trima", Category: CategoryTrend, Cost: CostMedium, Description: "Triangular moving average (20)",
		build: func(in Input) (Indicator, error) { return NewTriangularMA(20, in) }},
	{Name: "supersmoother", Category: CategoryTrend, Cost: CostLow, Description: "Ehlers two-pole super smoother (10)",
		build: func(in Input) (Indicator, error) { return NewSuperSmoother(10, in) }},
	{Name: "macd", Category: CategoryTrend, Cost: CostLow, Description: "MACD (12, 26, 9)",
		build: func(in Input) (Indicator, error) { return NewMACD(12, 26, 9, in) }},
	{Name: "adx", Category: CategoryTrend, Cost: CostLow, Description: "Average directional index (14)",
		build: func(Input) (Indicator, error) { return NewADX(14) }},
	{Name: "rsi", Category: CategoryMomentum, Cost: CostLow, Description: "Relative strength index (14)",
		build: func(in Input) (Indicator, error) { return NewRSI(14, in) }},
	{Name: "roc", Category: CategoryMomentum, Cost: CostLow, Description: "Rate of change (12)",
		build: func(in Input) (Indicator, error) { return NewROC(12, in) }},
	{Name: "momentum", Category: CategoryMomentum, Cost: CostLow, Description: "Momentum (10)",
		build: func(in Input) (Indicator, error) { return NewMomentum(10, in) }},
	{Name: "stoch", Category: CategoryMomentum, Cost: CostLow, Description: "Stochastic oscillator (14, 3, 3)",
		build: func(Input) (Indicator, error) { return NewStochastic(14, 3, 3) }},
	{Name: "williams_r", Category: CategoryMomentum, Cost: CostLow, Description: "Williams %R (14)",
		build: func(Input) (Indicator, error) { return NewWilliamsR(14) }},
	{Name: "cci", Category: CategoryMomentum, Cost: CostMedium, Description: "Commodity channel index (20)",
		build: func(Input) (Indicator, error) { return NewCCI(20) }},
	{Name: "atr", Category: CategoryVolatility, Cost: CostLow, Description: "Average true range (14)",
		build: func(Input) (Indicator, error) { return NewATR(14) }},
	{Name: "bollinger", Category: CategoryVolatility, Cost: CostLow, Description: "Bollinger bands (20, 2.0)",
		build: func(in Input) (Indicator, error) { return NewBollinger(20, 2.0, in) }},
	{Name: "stddev", Category: CategoryVolatility, Cost: CostLow, Description: "Rolling standard deviation (20)",
		build: func(in Input) (Indicator, error) { return NewStdDev(20, in) }},
	{Name: "obv", Category: CategoryVolume, Cost: CostLow, Description: "On-balance volume",
		build: func(Input) (Indicator, error) { return NewOBV() }},
	{Name: "mfi", Category: CategoryVolume, Cost: CostLow, Description: "Money flow index (14)",
		build: func(Input) (Indicator, error) { return NewMFI(14) }},
	{Name: "cmf", Category: CategoryVolume, Cost: CostLow, Description: "Chaikin money flow (20)",
		build: func(Input) (Indicator, error) { return NewCMF(20) }},
	{Name: "volume_sma", Category: CategoryVolume, Cost: CostLow, Description: "Volume moving average (20)",
		build: func(Input) (Indicator, error) { return NewVolumeSMA(20) }},
	{Name: "vwap", Category: CategoryVolume, Cost: CostLow, Description: "Rolling VWAP (20)",
		build: func(Input) (Indicator, error) { return NewVWAP(20) }},
	{Name: "roofing", Category: CategoryOther, Cost: CostLow, Description: "Ehlers roofing filter (48, 10)",
		build: func(in Input) (Indicator, error) { return NewRoofingFilter(48, 10, in) }},
	{Name: "autocorr_periodogram", Category: CategoryOther, Cost: CostHigh, Description: "Ehlers autocorrelation periodogram (10..48)",
		build: func(in Input) (Indicator, error) { return NewAutocorrPeriodogram(10, 48, in) }},
}

// Catalog returns the full static catalog in registration order.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a catalog entry by name (case-insensitive).
func Lookup(name string) (Spec, error) {
	for _, s := range catalog {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("lookup %q: %w", name, models.ErrUnknownIndicator)
}

// Filter narrows the catalog for bulk registration. Zero-value fields do
// not constrain.
type Filter struct {
	IncludeNames      []string
	ExcludeNames      []string
	IncludeCategories []Category
	MaxCost           Cost
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Select returns the catalog entries surviving the filter, in catalog
// order. A nil filter selects everything.
func Select(f *Filter) []Spec {
	if f == nil {
		return Catalog()
	}
	var out []Spec
	for _, s := range catalog {
		if len(f.IncludeNames) > 0 && !containsFold(f.IncludeNames, s.Name) {
			continue
		}
		if containsFold(f.ExcludeNames, s.Name) {
			continue
		}
		if len(f.IncludeCategories) > 0 {
			found := false
			for _, c := range f.IncludeCategories {
				if c == s.Category {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if f.MaxCost != 0 && s.Cost > f.MaxCost {
			continue
		}
		out = append(out, s)
	}
	return out
}
