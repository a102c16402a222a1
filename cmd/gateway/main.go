package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sokoflow/marketplace/internal/config"
	"github.com/sokoflow/marketplace/internal/gateway"
	"github.com/sokoflow/marketplace/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load("gateway", "8080")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.AppName, "0.1.0", cfg.OTELExporterEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	checkoutProxy := gateway.NewServiceProxy(cfg.CheckoutServiceURL, httpClient)
	catalogProxy := gateway.NewServiceProxy(cfg.CheckoutServiceURL, httpClient)
	handler := gateway.NewHandler(checkoutProxy, catalogProxy, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(handler.HandleCheckout))
	mux.HandleFunc("GET /payments/{referenceId}", telemetry.WithHTTPRoute(handler.HandleCheckout))
	mux.HandleFunc("POST /payments/{referenceId}/cancel", telemetry.WithHTTPRoute(handler.HandleCheckout))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(handler.HandleCheckout))
	mux.HandleFunc("GET /sellers/{sellerId}/orders", telemetry.WithHTTPRoute(handler.HandleCheckout))
	mux.HandleFunc("GET /catalog", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("GET /catalog/{itemId}", telemetry.WithHTTPRoute(handler.HandleCatalog))

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
		logger.Info("starting gateway service", "port", cfg.Port)
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
