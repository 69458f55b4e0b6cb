package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	_ "github.com/Thiwanka-Sandakalum/VidSage-sub000/docs"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/ai"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/eventbus"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/rag"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/repository/postgresql"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/service"
	httptransport "github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/transport/http"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/worker"
)

// serveCmd runs the API gateway: the HTTP surface plus the status
// consumer that folds pipeline events back into the job table.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API gateway and status consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig("api-gateway")
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

			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			if err := rdb.Ping(ctx).Err(); err != nil {
				return err
			}
			defer rdb.Close()

			bus, err := eventbus.Dial(cfg.AMQPURL, cfg.Exchange, log)
			if err != nil {
				return err
			}
			defer bus.Close()

			aiCfg := ai.Config{
				BaseURL:         cfg.OpenAIBaseURL,
				Token:           cfg.OpenAIToken,
				EmbeddingModel:  cfg.EmbeddingModel,
				GenerationModel: cfg.GenerationModel,
				BatchSize:       cfg.EmbedBatchSize,
			}
			embedder, err := ai.NewOpenAIEmbedder(aiCfg)
			if err != nil {
				return err
			}
			generator, err := ai.NewOpenAIGenerator(aiCfg)
			if err != nil {
				return err
			}

			jobRepo := postgresql.NewJobRepository(pool)
			chunkRepo := postgresql.NewChunkRepository(pool)
			lock := service.NewSubmitLock(rdb, cfg.ClaimTTL)

			videoSvc := service.NewVideoService(jobRepo, bus, lock, log)
			answerer := rag.NewAnswerer(jobRepo, chunkRepo, embedder, generator, cfg.TopKLimit, log)

			handler := httptransport.NewHandler(videoSvc, answerer, log)
			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           httptransport.Routes(handler, log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			statusRunner := worker.NewRunner(bus, worker.NewStatusWorker(jobRepo, lock, log), cfg.MaxAttempts, log)

			errCh := make(chan error, 2)
			go func() {
				log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			go func() {
				if err := statusRunner.Run(ctx); !errors.Is(err, context.Canceled) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				stop()
				log.WithError(err).Error("component failed, shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("http shutdown incomplete")
			}
			log.Info("gateway stopped")
			return nil
		},
	}
}
