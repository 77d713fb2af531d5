package tests

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/streamta/internal/engine"
	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/pkg/indicator"
)

// Full pipeline: trades in, per-timeframe aggregation, and fan-out to
// every catalog entry up to medium cost.
func TestPipeline_TradesToIndicators(t *testing.T) {
	eng := engine.New(engine.DefaultOptions())

	var mu sync.Mutex
	updates := make(map[string][]engine.Update)
	callback := func(u engine.Update) {
		mu.Lock()
		updates[u.Timeframe.String()] = append(updates[u.Timeframe.String()], u)
		mu.Unlock()
	}

	opts := engine.DefaultSubscriptionOptions()
	opts.IncludeOutputs = true
	handles, err := eng.RegisterAll(
		"AAPL",
		[]models.Timeframe{models.Tick, models.Seconds(1)},
		callback,
		opts,
		&indicator.Filter{MaxCost: indicator.CostMedium},
	)
	require.NoError(t, err)
	require.NotEmpty(t, handles)

	t0 := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	prices := []float64{100, 101.5, 99.75, 102.25, 103, 101, 104.5, 105, 103.25, 106}
	for i, price := range prices {
		require.NoError(t, eng.OnTrade(&models.Trade{
			Symbol:    "AAPL",
			Timestamp: t0.Add(time.Duration(i) * 400 * time.Millisecond),
			Price:     price,
			Size:      100,
		}))
	}
	eng.Flush("AAPL")

	mu.Lock()
	defer mu.Unlock()

	// Every trade produced one final tick bar per subscribed indicator.
	lowMedium := len(indicator.Select(&indicator.Filter{MaxCost: indicator.CostMedium}))
	assert.Len(t, updates["tick"], len(prices)*lowMedium)
	for _, u := range updates["tick"] {
		assert.True(t, u.IsFinal)
		assert.NotNil(t, u.Outputs)
	}

	// Seconds(1) saw updates, at least one of them final.
	seconds := updates["1s"]
	require.NotEmpty(t, seconds)
	var finals int
	for _, u := range seconds {
		if u.IsFinal {
			finals++
		}
	}
	assert.Greater(t, finals, 0)
}

// The streaming SMA over finalized second-bars matches a batch SMA over
// the same closes.
func TestPipeline_StreamMatchesBatchOnFinalBars(t *testing.T) {
	eng := engine.New(engine.DefaultOptions())

	input, err := indicator.ResolveInput(indicator.InputClose)
	require.NoError(t, err)

	var finalValues []float64
	var finalCloses []float64
	trackCloses := func(u engine.Update) {
		if u.IsFinal {
			finalValues = append(finalValues, u.Value)
		}
	}

	_, err = eng.Register("AAPL", []models.Timeframe{models.Seconds(1)},
		func() (indicator.Indicator, error) { return indicator.NewSMA(3, input) },
		trackCloses, engine.DefaultSubscriptionOptions())
	require.NoError(t, err)

	t0 := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	prices := []float64{10, 20, 30, 40, 50, 60}
	for i, price := range prices {
		require.NoError(t, eng.OnTrade(&models.Trade{
			Symbol: "AAPL", Timestamp: t0.Add(time.Duration(i) * time.Second),
			Price: price, Size: 1,
		}))
		finalCloses = append(finalCloses, price)
	}
	eng.Flush("AAPL")

	// One trade per second bucket: closes equal trade prices.
	require.Len(t, finalValues, len(prices))
	var sum float64
	for i, px := range finalCloses {
		sum += px
		if i >= 3 {
			sum -= finalCloses[i-3]
		}
		count := i + 1
		if count > 3 {
			count = 3
		}
		assert.InDelta(t, sum/float64(count), finalValues[i], 1e-10, "bar %d", i)
	}
}

// Unregistering one of many subscriptions only silences that one.
func TestPipeline_SelectiveUnregister(t *testing.T) {
	eng := engine.New(engine.DefaultOptions())

	input, err := indicator.ResolveInput(indicator.InputClose)
	require.NoError(t, err)
	smaFactory := func() (indicator.Indicator, error) { return indicator.NewSMA(2, input) }

	var aCount, bCount int
	ha, err := eng.Register("AAPL", []models.Timeframe{models.Tick}, smaFactory,
		func(engine.Update) { aCount++ }, engine.DefaultSubscriptionOptions())
	require.NoError(t, err)
	_, err = eng.Register("AAPL", []models.Timeframe{models.Tick}, smaFactory,
		func(engine.Update) { bCount++ }, engine.DefaultSubscriptionOptions())
	require.NoError(t, err)

	t0 := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	require.NoError(t, eng.OnTrade(&models.Trade{Symbol: "AAPL", Timestamp: t0, Price: 10, Size: 1}))
	require.NoError(t, ha.Close())
	require.NoError(t, eng.OnTrade(&models.Trade{Symbol: "AAPL", Timestamp: t0.Add(time.Second), Price: 11, Size: 1}))

	assert.Equal(t, 1, aCount)
	assert.Equal(t, 2, bCount)
}
