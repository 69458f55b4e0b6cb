package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/ai"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/chunker"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/event"
)

const (
	embeddingService = "embedding-worker"
	stepEmbedding    = "embedding_generation"
)

// ChunkStore is the port onto chunk storage.
type ChunkStore interface {
	ReplaceForVideo(ctx context.Context, videoID string, chunks []entity.Chunk) error
}

// EmbeddingWorker turns transcript.downloaded into embedding.completed:
// chunk the transcript, embed every chunk, replace the video's stored
// chunk set. Any single embedding failure aborts the whole batch; nothing
// is written until every vector exists, so a retry never sees a partial
// set.
type EmbeddingWorker struct {
	store    ChunkStore
	embedder ai.Embedder
	pool     *ants.Pool

	chunkSize    int
	chunkOverlap int
	batchSize    int

	log *logrus.Entry
}

type EmbeddingConfig struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Concurrency  int
}

func NewEmbeddingWorker(store ChunkStore, embedder ai.Embedder, cfg EmbeddingConfig, log *logrus.Logger) (*EmbeddingWorker, error) {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 32
	}
	pool, err := ants.NewPool(cfg.Concurrency)
	if err != nil {
		return nil, err
	}
	return &EmbeddingWorker{
		store:        store,
		embedder:     embedder,
		pool:         pool,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		batchSize:    cfg.BatchSize,
		log:          log.WithField("component", "embedding-worker"),
	}, nil
}

// Release frees the embedding pool. The worker must not be used after.
func (w *EmbeddingWorker) Release() {
	w.pool.Release()
}

func (w *EmbeddingWorker) Queue() string { return "embedding-worker" }

func (w *EmbeddingWorker) Events() []event.Type {
	return []event.Type{event.TypeTranscriptDownloaded}
}

func (w *EmbeddingWorker) Handle(ctx context.Context, evt event.Event) (*event.Event, *entity.StepError) {
	td := evt.TranscriptDownloaded
	if td == nil {
		return nil, entity.NewPermanentStepError(embeddingService, stepEmbedding,
			errors.New("unexpected event type "+string(evt.Type)))
	}

	pieces := chunker.Split(td.Transcript, w.chunkSize, w.chunkOverlap)
	if len(pieces) == 0 {
		// An empty transcript will be just as empty on redelivery.
		return nil, entity.NewPermanentStepError(embeddingService, stepEmbedding,
			errors.New("transcript produced no chunks"))
	}

	vectors, err := w.embedAll(ctx, pieces)
	if err != nil {
		return nil, entity.NewStepError(embeddingService, stepEmbedding, err)
	}

	chunks := make([]entity.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = entity.Chunk{
			ID:        uuid.New(),
			VideoID:   td.VideoID,
			Index:     p.Index,
			Text:      p.Text,
			Embedding: vectors[i],
			CharStart: p.CharStart,
			CharEnd:   p.CharEnd,
		}
	}

	if err := w.store.ReplaceForVideo(ctx, td.VideoID, chunks); err != nil {
		return nil, entity.NewStepError(embeddingService, stepEmbedding, err)
	}

	w.log.WithFields(logrus.Fields{
		"job_id":   td.JobID,
		"video_id": td.VideoID,
		"chunks":   len(chunks),
	}).Info("chunks embedded and stored")

	next := event.NewEmbeddingCompleted(event.EmbeddingCompleted{
		JobID:      td.JobID,
		VideoID:    td.VideoID,
		ChunkCount: len(chunks),
	})
	return &next, nil
}

// embedAll embeds the chunk texts in batches submitted to the worker
// pool. Batches preserve order; the first failure wins and the whole
// result is discarded.
func (w *EmbeddingWorker) embedAll(ctx context.Context, pieces []chunker.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(pieces))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for start := 0; start < len(pieces); start += w.batchSize {
		end := start + w.batchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		start, end := start, end

		wg.Add(1)
		submitErr := w.pool.Submit(func() {
			defer wg.Done()

			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = pieces[i].Text
			}

			vecs, err := w.embedder.EmbedTexts(ctx, texts)
			if err == nil && len(vecs) != len(texts) {
				err = fmt.Errorf("embedding batch mismatch: expected %d, received %d", len(texts), len(vecs))
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			copy(vectors[start:end], vecs)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}
