package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/event"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/metrics"
)

const (
	statusService = "api-gateway"
	stepStatus    = "status_update"
)

// StatusRepo is the slice of job storage the status worker writes.
type StatusRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	MarkEmbedding(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, chunkCount int) error
	MarkFailed(ctx context.Context, id uuid.UUID, jobErr entity.JobError) error
}

// ClaimReleaser frees the per-video submission claim once a job reaches a
// terminal state.
type ClaimReleaser interface {
	Release(ctx context.Context, videoID string) error
}

// StatusWorker folds pipeline progress events back into the job table.
// All its writes are either guarded or absorbing, so replayed events
// leave the row as it is.
type StatusWorker struct {
	repo StatusRepo
	lock ClaimReleaser
	log  *logrus.Entry
}

func NewStatusWorker(repo StatusRepo, lock ClaimReleaser, log *logrus.Logger) *StatusWorker {
	return &StatusWorker{
		repo: repo,
		lock: lock,
		log:  log.WithField("component", "status-worker"),
	}
}

func (w *StatusWorker) Queue() string { return "gateway-status" }

func (w *StatusWorker) Events() []event.Type {
	return []event.Type{
		event.TypeTranscriptDownloaded,
		event.TypeEmbeddingCompleted,
		event.TypeProcessingFailed,
	}
}

func (w *StatusWorker) Handle(ctx context.Context, evt event.Event) (*event.Event, *entity.StepError) {
	jobID, err := uuid.Parse(evt.CorrelationID())
	if err != nil {
		// A garbled job id will never parse on redelivery either.
		return nil, entity.NewPermanentStepError(statusService, stepStatus,
			fmt.Errorf("bad job id %q: %w", evt.CorrelationID(), err))
	}

	switch {
	case evt.TranscriptDownloaded != nil:
		if err := w.repo.MarkEmbedding(ctx, jobID); err != nil {
			return nil, entity.NewStepError(statusService, stepStatus, err)
		}

	case evt.EmbeddingCompleted != nil:
		if err := w.repo.MarkCompleted(ctx, jobID, evt.EmbeddingCompleted.ChunkCount); err != nil {
			return nil, entity.NewStepError(statusService, stepStatus, err)
		}
		metrics.JobsTerminal.WithLabelValues(string(entity.StatusCompleted)).Inc()
		w.releaseClaim(ctx, jobID)
		w.log.WithField("job_id", jobID).Info("job completed")

	case evt.ProcessingFailed != nil:
		p := evt.ProcessingFailed
		jobErr := entity.JobError{Service: p.Service, Step: p.Step, Message: p.Error}
		if err := w.repo.MarkFailed(ctx, jobID, jobErr); err != nil {
			return nil, entity.NewStepError(statusService, stepStatus, err)
		}
		metrics.JobsTerminal.WithLabelValues(string(entity.StatusFailed)).Inc()
		w.releaseClaim(ctx, jobID)
		w.log.WithFields(logrus.Fields{
			"job_id":  jobID,
			"service": p.Service,
			"step":    p.Step,
		}).Warn("job failed")

	default:
		return nil, entity.NewPermanentStepError(statusService, stepStatus,
			errors.New("unexpected event type "+string(evt.Type)))
	}

	return nil, nil
}

func (w *StatusWorker) releaseClaim(ctx context.Context, jobID uuid.UUID) {
	job, err := w.repo.GetByID(ctx, jobID)
	if err != nil {
		w.log.WithError(err).WithField("job_id", jobID).Warn("could not load job to release claim")
		return
	}
	if err := w.lock.Release(ctx, job.VideoID); err != nil {
		w.log.WithError(err).WithField("video_id", job.VideoID).Warn("could not release submission claim")
	}
}
