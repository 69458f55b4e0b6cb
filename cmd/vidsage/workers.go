package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/ai"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/eventbus"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/repository/postgresql"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/transcript"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/worker"
)

func transcriptWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcript-worker",
		Short: "Run the transcript acquisition worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig("transcript-worker")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bus, err := eventbus.Dial(cfg.AMQPURL, cfg.Exchange, log)
			if err != nil {
				return err
			}
			defer bus.Close()

			client := &http.Client{Timeout: 30 * time.Second}
			fetcher := transcript.NewChainFetcher(log,
				transcript.NewInnerTubeFetcher(client, cfg.CaptionLanguages),
				transcript.NewTimedTextFetcher(client, cfg.CaptionLanguages),
			)

			runner := worker.NewRunner(bus, worker.NewTranscriptWorker(fetcher, log), cfg.MaxAttempts, log)
			if err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("transcript worker stopped")
			return nil
		},
	}
}

func embeddingWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "embedding-worker",
		Short: "Run the chunking and embedding worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig("embedding-worker")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			bus, err := eventbus.Dial(cfg.AMQPURL, cfg.Exchange, log)
			if err != nil {
				return err
			}
			defer bus.Close()

			embedder, err := ai.NewOpenAIEmbedder(ai.Config{
				BaseURL:        cfg.OpenAIBaseURL,
				Token:          cfg.OpenAIToken,
				EmbeddingModel: cfg.EmbeddingModel,
				BatchSize:      cfg.EmbedBatchSize,
			})
			if err != nil {
				return err
			}

			w, err := worker.NewEmbeddingWorker(postgresql.NewChunkRepository(pool), embedder, worker.EmbeddingConfig{
				ChunkSize:    cfg.ChunkSize,
				ChunkOverlap: cfg.ChunkOverlap,
				BatchSize:    cfg.EmbedBatchSize,
				Concurrency:  cfg.EmbedConcurrency,
			}, log)
			if err != nil {
				return err
			}
			defer w.Release()

			runner := worker.NewRunner(bus, w, cfg.MaxAttempts, log)
			if err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("embedding worker stopped")
			return nil
		},
	}
}
