package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sokoflow/marketplace/internal/config"
	"github.com/sokoflow/marketplace/internal/messaging"
	"github.com/sokoflow/marketplace/internal/notifier"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load("notifier", "8086")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	handler := notifier.NewHandler(cfg.NotifyServiceURL, httpClient, logger)

	orderConsumer := messaging.NewConsumer(brokers, cfg.OrderCreatedTopic, "notifier")
	defer func() { _ = orderConsumer.Close() }()
	paymentConsumer := messaging.NewConsumer(brokers, cfg.PaymentConfirmedTopic, "notifier")
	defer func() { _ = paymentConsumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting notifier", "brokers", brokers)

	var wg sync.WaitGroup
	consume := func(c *messaging.Consumer, h messaging.HandlerFunc, topic string) {
		defer wg.Done()
		if err := c.Consume(ctx, h); err != nil {
			if ctx.Err() == context.Canceled {
				logger.Info("consumer stopped", "topic", topic)
				return
			}
			logger.Error("consumer error", "error", err, "topic", topic)
			cancel()
		}
	}

	wg.Add(2)
	go consume(orderConsumer, handler.HandleOrderCreated, cfg.OrderCreatedTopic)
	go consume(paymentConsumer, handler.HandlePaymentConfirmed, cfg.PaymentConfirmedTopic)
	wg.Wait()
}
