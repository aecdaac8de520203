package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/docmap"
	"github.com/kailas-cloud/vecgate/internal/metrics"
	chiTransport "github.com/kailas-cloud/vecgate/internal/transport/chi"
	gatewayuc "github.com/kailas-cloud/vecgate/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/vecgate/internal/usecase/health"
	"github.com/kailas-cloud/vecgate/internal/version"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			if port > 0 {
				a.cfg.HTTP.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides http.port)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger

	logger.Info("Starting vecgate API server",
		zap.String("version", version.String()),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("collection", cfg.Backend.Collection),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	// Registered explicitly, not from init()
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterBackendMetrics()

	session, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("backend: %w", err)
	}

	docStore, err := docmap.Open(cfg.DocMap.Driver, cfg.DocMap.Path, logger)
	if err != nil {
		return fmt.Errorf("document map: %w", err)
	}
	defer func() { _ = docStore.Close() }()

	docs, err := docStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load document map: %w", err)
	}
	logger.Info("Document map loaded", zap.Int("documents", docs.Len()))

	cache := openCache(ctx, cfg.Embedding.Cache, logger)
	if cache != nil {
		defer cache.Close()
	}

	base := newProvider(cfg.Embedding, logger)
	queryEmbedder := buildEmbedder(base, cfg.Embedding, cfg.Embedding.QueryInstruction, cache, logger)

	gatewaySvc := gatewayuc.New(session, queryEmbedder, docs, gatewayuc.Config{
		Collection: cfg.Backend.Collection,
		DefaultK:   cfg.Search.DefaultK,
		MaxK:       cfg.Search.MaxK,
	}, logger)

	// Pass a nil interface, not a typed nil pointer, when the cache is off.
	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}
	healthSvc := healthuc.New(session, newEmbeddingHealthChecker(base), cachePinger)

	server := chiTransport.NewServer(gatewaySvc, healthSvc, logger)
	handler := newRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr), zap.String("mode", session.Mode().String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// newRouter mounts the gateway at the root and under /api for the bundled frontend.
func newRouter(server *chiTransport.Server, apiKeys []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	server.Routes(r)
	r.Route("/api", server.Routes)

	return r
}
