package pubsub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohamedkhairy/streamta/internal/config"
	"github.com/mohamedkhairy/streamta/internal/engine"
	"github.com/mohamedkhairy/streamta/pkg/logger"
)

var (
	publishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_publish_total",
			Help: "Total number of messages published to streams",
		},
		[]string{"stream"},
	)

	publishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_publish_errors_total",
			Help: "Total number of publish errors",
		},
		[]string{"stream"},
	)

	publishLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stream_publish_latency_seconds",
			Help:    "Publish latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"stream"},
	)
)

// UpdatePublisher batches finalized indicator updates onto a Redis stream.
// It plugs in as an engine callback sink; the engine itself never depends
// on it. Provisional updates are dropped here: downstream consumers only
// see immutable values.
type UpdatePublisher struct {
	cfg     config.PublisherConfig
	client  StreamClient
	batchMu sync.Mutex
	batch   []map[string]interface{}
	ticker  *time.Ticker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewUpdatePublisher creates a publisher over the given stream client.
func NewUpdatePublisher(client StreamClient, cfg config.PublisherConfig) *UpdatePublisher {
	ctx, cancel := context.WithCancel(context.Background())
	return &UpdatePublisher{
		cfg:    cfg,
		client: client,
		batch:  make([]map[string]interface{}, 0, cfg.BatchSize),
		ticker: time.NewTicker(cfg.BatchTimeout),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the periodic flush loop.
func (p *UpdatePublisher) Start() {
	p.wg.Add(1)
	go p.batchLoop()
}

// Callback returns the engine callback feeding this publisher.
func (p *UpdatePublisher) Callback() engine.Callback {
	return func(u engine.Update) {
		if !u.IsFinal {
			return
		}
		p.enqueue(u)
	}
}

func (p *UpdatePublisher) enqueue(u engine.Update) {
	payload, err := json.Marshal(u)
	if err != nil {
		logger.Warn("Failed to marshal update", logger.ErrorField(err))
		return
	}

	p.batchMu.Lock()
	p.batch = append(p.batch, map[string]interface{}{
		"symbol":    u.Symbol,
		"timeframe": u.Timeframe.String(),
		"update":    string(payload),
	})
	shouldFlush := len(p.batch) >= p.cfg.BatchSize
	p.batchMu.Unlock()

	if shouldFlush {
		p.flush()
	}
}

func (p *UpdatePublisher) batchLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			// Flush remaining items on shutdown
			p.flush()
			return
		case <-p.ticker.C:
			p.flush()
		}
	}
}

func (p *UpdatePublisher) flush() {
	p.batchMu.Lock()
	if len(p.batch) == 0 {
		p.batchMu.Unlock()
		return
	}
	messages := p.batch
	p.batch = make([]map[string]interface{}, 0, p.cfg.BatchSize)
	p.batchMu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.client.PublishBatchToStream(ctx, p.cfg.StreamName, messages); err != nil {
		publishErrors.WithLabelValues(p.cfg.StreamName).Add(float64(len(messages)))
		logger.Error("Failed to publish updates",
			logger.ErrorField(err),
			logger.String("stream", p.cfg.StreamName),
			logger.Int("count", len(messages)),
		)
		return
	}

	publishTotal.WithLabelValues(p.cfg.StreamName).Add(float64(len(messages)))
	publishLatency.WithLabelValues(p.cfg.StreamName).Observe(time.Since(start).Seconds())
}

// Stop flushes outstanding updates and stops the loop.
func (p *UpdatePublisher) Stop() {
	p.cancel()
	p.ticker.Stop()
	p.wg.Wait()
}
