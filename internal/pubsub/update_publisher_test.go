package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/streamta/internal/config"
	"github.com/mohamedkhairy/streamta/internal/engine"
	"github.com/mohamedkhairy/streamta/internal/models"
)

// fakeStreamClient captures published batches in memory.
type fakeStreamClient struct {
	mu      sync.Mutex
	batches [][]map[string]interface{}
}

func (f *fakeStreamClient) PublishBatchToStream(ctx context.Context, stream string, messages []map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]map[string]interface{}, len(messages))
	copy(batch, messages)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStreamClient) Close() error { return nil }

func (f *fakeStreamClient) messages() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]interface{}
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func testPublisher(batchSize int) (*UpdatePublisher, *fakeStreamClient) {
	client := &fakeStreamClient{}
	pub := NewUpdatePublisher(client, config.PublisherConfig{
		StreamName:   "indicator.updates",
		BatchSize:    batchSize,
		BatchTimeout: 10 * time.Millisecond,
	})
	return pub, client
}

func update(isFinal bool, value float64) engine.Update {
	return engine.Update{
		Symbol:    "AAPL",
		Timeframe: models.Minutes(1),
		IsFinal:   isFinal,
		Value:     value,
	}
}

func TestPublisher_FlushesOnBatchSize(t *testing.T) {
	pub, client := testPublisher(2)
	cb := pub.Callback()

	cb(update(true, 1))
	assert.Empty(t, client.messages())

	cb(update(true, 2))
	msgs := client.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "AAPL", msgs[0]["symbol"])
	assert.Equal(t, "1m", msgs[0]["timeframe"])
	assert.Contains(t, msgs[0]["update"], "\"Value\":1")
}

func TestPublisher_DropsProvisionalUpdates(t *testing.T) {
	pub, client := testPublisher(1)
	cb := pub.Callback()

	cb(update(false, 1))
	assert.Empty(t, client.messages())

	cb(update(true, 2))
	assert.Len(t, client.messages(), 1)
}

func TestPublisher_TickerFlush(t *testing.T) {
	pub, client := testPublisher(100)
	pub.Start()
	defer pub.Stop()

	pub.Callback()(update(true, 1))

	assert.Eventually(t, func() bool {
		return len(client.messages()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPublisher_StopFlushesRemainder(t *testing.T) {
	pub, client := testPublisher(100)
	pub.Start()

	pub.Callback()(update(true, 1))
	pub.Callback()(update(true, 2))
	pub.Stop()

	assert.Len(t, client.messages(), 2)
}
