package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/event"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/metrics"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/repository/postgresql"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/videoid"
)

// ErrNotFound is returned when a job id has no record.
var ErrNotFound = errors.New("job not found")

// ErrSubmissionInFlight is returned when another submission holds the
// claim for the video but its job row is not yet visible. The client can
// simply retry.
var ErrSubmissionInFlight = errors.New("submission for this video already in flight")

// ErrPublishFailed wraps an event-bus failure during submission. The job
// exists but is already marked failed; the caller reports the failure
// rather than pretending the pipeline started.
var ErrPublishFailed = errors.New("could not publish submission event")

// JobRepository is the port the service needs from job storage.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	FindCompletedByVideo(ctx context.Context, videoID string) (*entity.Job, error)
	FindActiveByVideo(ctx context.Context, videoID string) (*entity.Job, error)
	MarkTranscribing(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, jobErr entity.JobError) error
}

// Publisher is the small port onto the event bus used at submission time.
type Publisher interface {
	Publish(ctx context.Context, evt event.Event) error
}

// Locker claims and releases the per-video submission lock.
type Locker interface {
	Claim(ctx context.Context, videoID, jobID string) (bool, error)
	Release(ctx context.Context, videoID string) error
}

// VideoService owns job creation and status reads for the gateway.
type VideoService struct {
	repo JobRepository
	bus  Publisher
	lock Locker
	log  *logrus.Entry
}

func NewVideoService(repo JobRepository, bus Publisher, lock Locker, log *logrus.Logger) *VideoService {
	return &VideoService{
		repo: repo,
		bus:  bus,
		lock: lock,
		log:  log.WithField("component", "video-service"),
	}
}

// SubmitResult reports the job a submission resolved to. Deduplicated is
// true when an existing job was returned instead of a new one being
// created (completed fast path or lost claim race).
type SubmitResult struct {
	Job          *entity.Job
	Deduplicated bool
}

// Submit accepts a video URL and either starts the pipeline for it or
// resolves to the job that already covers it. No event is published on
// the deduplicated paths.
func (s *VideoService) Submit(ctx context.Context, url, userID string) (*SubmitResult, error) {
	vid, err := videoid.FromURL(url)
	if err != nil {
		return nil, err
	}

	// Fast path: the video was already processed to completion.
	if done, err := s.repo.FindCompletedByVideo(ctx, vid); err == nil {
		return &SubmitResult{Job: done, Deduplicated: true}, nil
	} else if !errors.Is(err, postgresql.ErrNotFound) {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}

	jobID := uuid.New()
	claimed, err := s.lock.Claim(ctx, vid, jobID.String())
	if err != nil {
		return nil, fmt.Errorf("submission claim: %w", err)
	}
	if !claimed {
		// Lost the race: hand back whatever job the winner created.
		if active, err := s.repo.FindActiveByVideo(ctx, vid); err == nil {
			return &SubmitResult{Job: active, Deduplicated: true}, nil
		}
		if done, err := s.repo.FindCompletedByVideo(ctx, vid); err == nil {
			return &SubmitResult{Job: done, Deduplicated: true}, nil
		}
		return nil, ErrSubmissionInFlight
	}

	job := &entity.Job{ID: jobID, VideoID: vid, Status: entity.StatusPending}
	if userID != "" {
		job.UserID = &userID
	}
	if err := s.repo.Create(ctx, job); err != nil {
		s.releaseClaim(ctx, vid)
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := s.repo.MarkTranscribing(ctx, jobID); err != nil {
		s.releaseClaim(ctx, vid)
		return nil, fmt.Errorf("advance job: %w", err)
	}
	job.Status = entity.StatusTranscribing

	evt := event.NewVideoSubmitted(event.VideoSubmitted{
		JobID:    jobID.String(),
		VideoID:  vid,
		VideoURL: url,
		UserID:   userID,
	})
	if err := s.bus.Publish(ctx, evt); err != nil {
		// The pipeline never started; the job must not look in flight.
		markErr := s.repo.MarkFailed(ctx, jobID, entity.JobError{
			Service: "api-gateway",
			Step:    "submit",
			Message: err.Error(),
		})
		if markErr != nil {
			s.log.WithError(markErr).WithField("job_id", jobID).Error("could not mark job failed after publish failure")
		}
		s.releaseClaim(ctx, vid)
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	metrics.JobsSubmitted.Inc()
	s.log.WithFields(logrus.Fields{
		"job_id":   jobID,
		"video_id": vid,
	}).Info("video submitted")

	return &SubmitResult{Job: job}, nil
}

// Status is the read-only projection behind the polling endpoint.
func (s *VideoService) Status(ctx context.Context, jobID uuid.UUID) (*entity.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, postgresql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *VideoService) releaseClaim(ctx context.Context, videoID string) {
	if err := s.lock.Release(ctx, videoID); err != nil {
		s.log.WithError(err).WithField("video_id", videoID).Warn("could not release submission claim")
	}
}
