package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/event"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/logging"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/repository/postgresql"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/service"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/videoid"
)

// ---- fakes ----

type fakeRepo struct {
	jobs map[uuid.UUID]*entity.Job

	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: map[uuid.UUID]*entity.Job{}}
}

func (r *fakeRepo) Create(ctx context.Context, job *entity.Job) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.jobs[job.ID]; ok {
		return errors.New("duplicate job id")
	}
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, postgresql.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *fakeRepo) FindCompletedByVideo(ctx context.Context, videoID string) (*entity.Job, error) {
	for _, j := range r.jobs {
		if j.VideoID == videoID && j.Status == entity.StatusCompleted {
			cp := *j
			return &cp, nil
		}
	}
	return nil, postgresql.ErrNotFound
}

func (r *fakeRepo) FindActiveByVideo(ctx context.Context, videoID string) (*entity.Job, error) {
	for _, j := range r.jobs {
		if j.VideoID == videoID && !j.Status.Terminal() {
			cp := *j
			return &cp, nil
		}
	}
	return nil, postgresql.ErrNotFound
}

func (r *fakeRepo) MarkTranscribing(ctx context.Context, id uuid.UUID) error {
	j, ok := r.jobs[id]
	if !ok || j.Status != entity.StatusPending {
		return postgresql.ErrNotFound
	}
	j.Status = entity.StatusTranscribing
	return nil
}

func (r *fakeRepo) MarkFailed(ctx context.Context, id uuid.UUID, jobErr entity.JobError) error {
	j, ok := r.jobs[id]
	if !ok {
		return nil
	}
	j.Status = entity.StatusFailed
	j.Error = &jobErr
	return nil
}

type fakeBus struct {
	published []event.Event
	err       error
}

func (b *fakeBus) Publish(ctx context.Context, evt event.Event) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, evt)
	return nil
}

type fakeLock struct {
	held     map[string]string
	released []string
}

func newFakeLock() *fakeLock { return &fakeLock{held: map[string]string{}} }

func (l *fakeLock) Claim(ctx context.Context, videoID, jobID string) (bool, error) {
	if _, ok := l.held[videoID]; ok {
		return false, nil
	}
	l.held[videoID] = jobID
	return true, nil
}

func (l *fakeLock) Release(ctx context.Context, videoID string) error {
	delete(l.held, videoID)
	l.released = append(l.released, videoID)
	return nil
}

func newService(repo *fakeRepo, bus *fakeBus, lock *fakeLock) *service.VideoService {
	return service.NewVideoService(repo, bus, lock, logging.New("test", "error"))
}

// ---- tests ----

func TestSubmit_NewVideo(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	lock := newFakeLock()
	svc := newService(repo, bus, lock)

	res, err := svc.Submit(context.Background(), "https://youtube.com/watch?v=abc12345678", "user-1")
	require.NoError(t, err)
	require.False(t, res.Deduplicated)

	// job exists and was advanced past pending before publishing
	stored := repo.jobs[res.Job.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "abc12345678", stored.VideoID)
	assert.Equal(t, entity.StatusTranscribing, stored.Status)

	// exactly one event, correlated to the new job
	require.Len(t, bus.published, 1)
	evt := bus.published[0]
	assert.Equal(t, event.TypeVideoSubmitted, evt.Type)
	assert.Equal(t, res.Job.ID.String(), evt.CorrelationID())
	assert.Equal(t, "abc12345678", evt.VideoSubmitted.VideoID)
}

func TestSubmit_InvalidURL(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	svc := newService(repo, bus, newFakeLock())

	_, err := svc.Submit(context.Background(), "https://example.com/clip", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, videoid.ErrInvalidURL)

	// nothing created, nothing published
	assert.Empty(t, repo.jobs)
	assert.Empty(t, bus.published)
}

func TestSubmit_CompletedFastPath(t *testing.T) {
	repo := newFakeRepo()
	done := &entity.Job{ID: uuid.New(), VideoID: "abc12345678", Status: entity.StatusCompleted}
	repo.jobs[done.ID] = done

	bus := &fakeBus{}
	svc := newService(repo, bus, newFakeLock())

	res, err := svc.Submit(context.Background(), "https://youtu.be/abc12345678", "")
	require.NoError(t, err)

	assert.True(t, res.Deduplicated)
	assert.Equal(t, done.ID, res.Job.ID)
	assert.Empty(t, bus.published, "fast path must not publish")
	assert.Len(t, repo.jobs, 1, "fast path must not create a job")
}

func TestSubmit_PublishFailureMarksJobFailed(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{err: errors.New("broker unreachable")}
	lock := newFakeLock()
	svc := newService(repo, bus, lock)

	_, err := svc.Submit(context.Background(), "https://youtube.com/watch?v=abc12345678", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrPublishFailed)

	require.Len(t, repo.jobs, 1)
	for _, j := range repo.jobs {
		assert.Equal(t, entity.StatusFailed, j.Status)
		require.NotNil(t, j.Error)
		assert.Equal(t, "submit", j.Error.Step)
		assert.Equal(t, "api-gateway", j.Error.Service)
	}

	// claim released so a retry can proceed
	assert.Contains(t, lock.released, "abc12345678")
}

func TestSubmit_LostClaimReturnsActiveJob(t *testing.T) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	lock := newFakeLock()
	svc := newService(repo, bus, lock)

	// first submission wins the claim and is still in flight
	first, err := svc.Submit(context.Background(), "https://youtube.com/watch?v=abc12345678", "")
	require.NoError(t, err)

	// second submission for the same video loses the claim
	second, err := svc.Submit(context.Background(), "https://youtu.be/abc12345678", "")
	require.NoError(t, err)

	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.Job.ID, second.Job.ID)
	assert.Len(t, bus.published, 1, "loser must not publish")
	assert.Len(t, repo.jobs, 1, "loser must not create a second job")
}

func TestStatus(t *testing.T) {
	repo := newFakeRepo()
	job := &entity.Job{ID: uuid.New(), VideoID: "abc12345678", Status: entity.StatusEmbedding}
	repo.jobs[job.ID] = job
	svc := newService(repo, &fakeBus{}, newFakeLock())

	got, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusEmbedding, got.Status)

	_, err = svc.Status(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
