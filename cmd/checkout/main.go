package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/sokoflow/marketplace/internal/catalog"
	"github.com/sokoflow/marketplace/internal/checkout"
	"github.com/sokoflow/marketplace/internal/config"
	"github.com/sokoflow/marketplace/internal/messaging"
	"github.com/sokoflow/marketplace/internal/orders"
	"github.com/sokoflow/marketplace/internal/payment"
	"github.com/sokoflow/marketplace/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load("checkout", "8081")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.AppName, "0.1.0", cfg.OTELExporterEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.AppName, "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var orderProducer, paymentProducer *messaging.Producer
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		orderProducer = messaging.NewProducer(brokers, cfg.OrderCreatedTopic)
		defer func() { _ = orderProducer.Close() }()
		paymentProducer = messaging.NewProducer(brokers, cfg.PaymentConfirmedTopic)
		defer func() { _ = paymentProducer.Close() }()
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	catalogRepo := catalog.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	attemptRepo := payment.NewAttemptRepository(db)
	momoClient := payment.NewClient(cfg.MomoServiceURL, httpClient)

	var paymentPublisher payment.EventPublisher
	if paymentProducer != nil {
		paymentPublisher = paymentProducer
	}
	finalizer := payment.NewFinalizer(orderRepo, attemptRepo, paymentPublisher, logger)

	var orderPublisher checkout.EventPublisher
	if orderProducer != nil {
		orderPublisher = orderProducer
	}
	svc := checkout.NewService(catalogRepo, orderRepo, attemptRepo, momoClient, finalizer, orderPublisher, logger)
	handler := checkout.NewHandler(svc, catalogRepo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(handler.HandleSubmit))
	mux.HandleFunc("GET /payments/{referenceId}", telemetry.WithHTTPRoute(handler.HandlePaymentStatus))
	mux.HandleFunc("POST /payments/{referenceId}/cancel", telemetry.WithHTTPRoute(handler.HandleCancelPayment))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(handler.HandleGetOrder))
	mux.HandleFunc("GET /sellers/{sellerId}/orders", telemetry.WithHTTPRoute(handler.HandleListSellerOrders))
	mux.HandleFunc("GET /items", telemetry.WithHTTPRoute(handler.HandleListItems))
	mux.HandleFunc("GET /items/{itemId}", telemetry.WithHTTPRoute(handler.HandleGetItem))
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, cfg.AppName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting checkout service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
