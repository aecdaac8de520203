package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/backend"
	"github.com/kailas-cloud/vecgate/internal/config"
	"github.com/kailas-cloud/vecgate/internal/db"
	dbValkey "github.com/kailas-cloud/vecgate/internal/db/valkey"
	"github.com/kailas-cloud/vecgate/internal/domain"
	logpkg "github.com/kailas-cloud/vecgate/internal/logger"
	"github.com/kailas-cloud/vecgate/internal/metrics"
	"github.com/kailas-cloud/vecgate/internal/repository/embcache"
	"github.com/kailas-cloud/vecgate/internal/transport/endee"
	"github.com/kailas-cloud/vecgate/internal/transport/mockembed"
	openaiEmb "github.com/kailas-cloud/vecgate/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vecgate/internal/usecase/embedding"
)

const cacheReadinessTimeout = 5 * time.Second

// app carries what every subcommand needs after startup.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

// loadApp reads the config (--config wins over ENV) and builds the logger.
func loadApp(cmd *cobra.Command) (*app, error) {
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return &app{env: env, cfg: cfg, logger: logger}, nil
}

// openBackend creates the Endee client and probes it once.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend.Session, error) {
	client, err := endee.New(endee.Config{
		BaseURL: cfg.Backend.BaseURL,
		Token:   cfg.Backend.Token,
		Timeout: time.Duration(cfg.Backend.RequestTimeoutMS) * time.Millisecond,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return backend.NewSession(ctx, client, backend.Config{
		Dimension:    cfg.Backend.Dimension,
		ProbeTimeout: time.Duration(cfg.Backend.ProbeTimeoutMS) * time.Millisecond,
		Logger:       logger,
	}), nil
}

// openCache connects the embedding cache. It returns nil when no addresses are configured
// or the store is not ready; the gateway then embeds every request.
func openCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) db.Store {
	if len(cfg.Addrs) == 0 {
		return nil
	}
	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		logger.Warn("embedding cache disabled", zap.Error(err))
		return nil
	}
	if err := store.WaitForReady(ctx, cacheReadinessTimeout); err != nil {
		logger.Warn("embedding cache not ready, disabled", zap.Error(err))
		store.Close()
		return nil
	}
	logger.Info("embedding cache connected", zap.Strings("addrs", cfg.Addrs))
	return store
}

// provider is the base of the embedder chain.
type provider interface {
	domain.Embedder
	domain.BatchEmbedder
	domain.HealthChecker
}

func newProvider(cfg config.EmbeddingConfig, logger *zap.Logger) provider {
	if cfg.Provider == "mock" {
		logger.Warn("using mock embedding provider", zap.Int("dimensions", cfg.Dimensions))
		return mockembed.NewEmbedder(cfg.Dimensions)
	}
	return openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})
}

// chainEmbedder is what the use cases consume from the chain.
type chainEmbedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented -> Instruction.
// store must be a nil interface when the cache is disabled.
func buildEmbedder(
	base provider,
	cfg config.EmbeddingConfig,
	instruction string,
	store db.Store,
	logger *zap.Logger,
) chainEmbedder {
	var embedder domain.Embedder = base
	if store != nil {
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		embedder = embcache.New(base, store, cfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Provider, cfg.Model, cfg.Dimensions, logger,
	)

	// Instruction prefix is outermost so cache keys include it.
	if instruction != "" {
		return domain.NewInstructionEmbedder(instrumented, instruction)
	}
	return instrumented
}

// embeddingHealthChecker reports provider health through the health use case.
type embeddingHealthChecker struct {
	checker domain.HealthChecker
}

func newEmbeddingHealthChecker(checker domain.HealthChecker) *embeddingHealthChecker {
	return &embeddingHealthChecker{checker: checker}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if err := h.checker.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}
