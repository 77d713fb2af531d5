package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohamedkhairy/streamta/internal/api"
	"github.com/mohamedkhairy/streamta/internal/config"
	"github.com/mohamedkhairy/streamta/internal/data"
	"github.com/mohamedkhairy/streamta/internal/engine"
	"github.com/mohamedkhairy/streamta/internal/models"
	"github.com/mohamedkhairy/streamta/internal/pubsub"
	"github.com/mohamedkhairy/streamta/pkg/indicator"
	"github.com/mohamedkhairy/streamta/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	timeframes, err := cfg.Timeframes()
	if err != nil {
		logger.Fatal("Invalid timeframe configuration", logger.ErrorField(err))
	}

	logger.Info("Starting streaming indicator engine",
		logger.String("environment", cfg.Environment),
		logger.Int("symbols", len(cfg.MarketData.Symbols)),
		logger.Int("timeframes", len(timeframes)),
		logger.Int("catalog", len(indicator.Catalog())),
	)

	// Initialize engine
	eng := engine.New(engine.Options{
		EmitProvisionalUpdates: cfg.Engine.EmitProvisionalUpdates,
		SuppressQuotes:         cfg.Engine.SuppressQuotes,
	})

	// Optional Redis update publisher
	var publisher *pubsub.UpdatePublisher
	var callback engine.Callback
	if cfg.Redis.Enabled {
		redisClient, err := pubsub.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize Redis client", logger.ErrorField(err))
		}
		defer redisClient.Close()

		publisher = pubsub.NewUpdatePublisher(redisClient, cfg.Publisher)
		publisher.Start()
		defer publisher.Stop()
		callback = publisher.Callback()
	} else {
		callback = func(u engine.Update) {
			logger.Debug("Indicator update",
				logger.String("symbol", u.Symbol),
				logger.String("timeframe", u.Timeframe.String()),
				logger.Bool("final", u.IsFinal),
				logger.Float64("value", u.Value),
			)
		}
	}

	// Register the full catalog for every configured symbol
	opts := engine.DefaultSubscriptionOptions()
	for _, symbol := range cfg.MarketData.Symbols {
		handles, err := eng.RegisterAll(symbol, timeframes, callback, opts, nil)
		if err != nil {
			logger.Fatal("Failed to register indicators",
				logger.String("symbol", symbol),
				logger.ErrorField(err),
			)
		}
		logger.Info("Registered indicators",
			logger.String("symbol", symbol),
			logger.Int("subscriptions", len(handles)),
		)
	}

	// Initialize market data provider
	var provider data.Provider
	switch cfg.MarketData.Provider {
	case "websocket":
		wsConfig := data.DefaultWebSocketConfig(cfg.MarketData.WebSocketURL)
		wsConfig.ReconnectDelay = cfg.MarketData.ReconnectDelay
		wsConfig.MaxReconnectDelay = cfg.MarketData.MaxReconnectDelay
		provider = data.NewWebSocketProvider(wsConfig)
	default:
		provider = data.NewMockProvider(0, 1)
	}

	if err := provider.SubscribeTrades(cfg.MarketData.Symbols, func(t *models.Trade) {
		if err := eng.OnTrade(t); err != nil {
			logger.Warn("Trade rejected",
				logger.String("symbol", t.Symbol),
				logger.ErrorField(err),
			)
		}
	}); err != nil {
		logger.Fatal("Failed to subscribe trades", logger.ErrorField(err))
	}
	if err := provider.SubscribeQuotes(cfg.MarketData.Symbols, func(q *models.Quote) {
		if err := eng.OnQuote(q); err != nil {
			logger.Warn("Quote rejected",
				logger.String("symbol", q.Symbol),
				logger.ErrorField(err),
			)
		}
	}); err != nil {
		logger.Fatal("Failed to subscribe quotes", logger.ErrorField(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := provider.Start(ctx); err != nil {
		logger.Fatal("Failed to start provider", logger.ErrorField(err))
	}

	// HTTP surface: catalog, stats, health, metrics
	handler := api.NewHandler(eng)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.API.Port),
		Handler: handler.Router(),
	}
	go func() {
		logger.Info("API listening", logger.Int("port", cfg.API.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("API server failed", logger.ErrorField(err))
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutting down", logger.String("signal", sig.String()))

	if err := provider.Stop(); err != nil {
		logger.Warn("Provider stop failed", logger.ErrorField(err))
	}

	// Flush open buckets so the last partial bars reach subscribers
	for _, symbol := range cfg.MarketData.Symbols {
		eng.Flush(symbol)
	}

	_ = server.Shutdown(context.Background())
	logger.Info("Shutdown complete")
}
