package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/docmap"
	"github.com/kailas-cloud/vecgate/internal/metrics"
	ingestuc "github.com/kailas-cloud/vecgate/internal/usecase/ingest"
)

func newIngestCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the collection and document map from *.txt files",
		Long: "ingest splits every *.txt file in the data directory into paragraphs, embeds them, " +
			"recreates the backend collection and replaces the document map.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			if dataDir != "" {
				a.cfg.Ingest.DataDir = dataDir
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := runIngest(ctx, a)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ingested %d chunks (dimension %d, %d batches, %d tokens)\n",
				report.Chunks, report.Dimension, report.Batches, report.Tokens)
			return err
		},
	}

	cmd.Flags().StringVarP(&dataDir, "data-dir", "d", "", "directory with *.txt sources (overrides ingest.data_dir)")
	return cmd
}

func runIngest(ctx context.Context, a *app) (ingestuc.Report, error) {
	cfg, logger := a.cfg, a.logger

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterBackendMetrics()

	chunks, err := ingestuc.ReadChunks(cfg.Ingest.DataDir)
	if err != nil {
		return ingestuc.Report{}, err
	}
	logger.Info("Read source chunks", zap.String("dir", cfg.Ingest.DataDir), zap.Int("chunks", len(chunks)))

	session, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return ingestuc.Report{}, fmt.Errorf("backend: %w", err)
	}

	docStore, err := docmap.Open(cfg.DocMap.Driver, cfg.DocMap.Path, logger)
	if err != nil {
		return ingestuc.Report{}, fmt.Errorf("document map: %w", err)
	}
	defer func() { _ = docStore.Close() }()

	cache := openCache(ctx, cfg.Embedding.Cache, logger)
	if cache != nil {
		defer cache.Close()
	}

	// Documents are embedded without the query instruction.
	docEmbedder := buildEmbedder(newProvider(cfg.Embedding, logger), cfg.Embedding, "", cache, logger)

	svc := ingestuc.New(session, docEmbedder, docStore, ingestuc.Config{
		Collection:     cfg.Backend.Collection,
		SpaceType:      cfg.Backend.SpaceType,
		Precision:      cfg.Backend.Precision,
		M:              cfg.Backend.HNSWM,
		EFConstruction: cfg.Backend.HNSWEFConstruct,
		BatchSize:      cfg.Ingest.BatchSize,
		PollAttempts:   cfg.Ingest.DeletePollAttempts,
		PollInterval:   time.Duration(cfg.Ingest.DeletePollIntervalMS) * time.Millisecond,
	}, logger)

	return svc.Run(ctx, chunks)
}
