package postgresql

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
)

var ErrNotFound = errors.New("not found")

// JobRepository persists jobs, one row per job id. Terminal writes are
// idempotent overwrites so duplicate delivery of a terminal event
// re-applies the same state. A partial unique index on
// (video_id) WHERE status='completed' keeps at most one completed job per
// video even across racing submissions.
type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobColumns = `
id, video_id, user_id, status, current_step, chunk_count,
error_service, error_step, error_message, created_at, updated_at`

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	const q = `
INSERT INTO jobs (id, video_id, user_id, status)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at;
`
	err := r.pool.QueryRow(ctx, q, job.ID, job.VideoID, job.UserID, string(job.Status)).
		Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return err
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1;`
	return r.scanJob(r.pool.QueryRow(ctx, q, id))
}

// FindCompletedByVideo is the de-duplication read: the one completed job
// for a video, if any.
func (r *JobRepository) FindCompletedByVideo(ctx context.Context, videoID string) (*entity.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE video_id = $1 AND status = 'completed';`
	return r.scanJob(r.pool.QueryRow(ctx, q, videoID))
}

// FindActiveByVideo returns the newest in-flight job for a video. Used
// when a submission loses the claim race.
func (r *JobRepository) FindActiveByVideo(ctx context.Context, videoID string) (*entity.Job, error) {
	const q = `
SELECT ` + jobColumns + `
FROM jobs
WHERE video_id = $1 AND status IN ('pending', 'transcribing', 'embedding')
ORDER BY created_at DESC
LIMIT 1;
`
	return r.scanJob(r.pool.QueryRow(ctx, q, videoID))
}

// MarkTranscribing advances a freshly created job into the pipeline.
func (r *JobRepository) MarkTranscribing(ctx context.Context, id uuid.UUID) error {
	const q = `
UPDATE jobs
SET status = 'transcribing', current_step = 'transcript_download', updated_at = now()
WHERE id = $1 AND status = 'pending';
`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkEmbedding records that the transcript stage finished. The status
// guard keeps the write monotonic; a duplicate or late delivery after a
// terminal transition is a silent no-op.
func (r *JobRepository) MarkEmbedding(ctx context.Context, id uuid.UUID) error {
	const q = `
UPDATE jobs
SET status = 'embedding', current_step = 'embedding_generation', updated_at = now()
WHERE id = $1 AND status = 'transcribing';
`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkCompleted is an idempotent overwrite: replaying the same completion
// leaves the row unchanged. A job that already failed stays failed.
func (r *JobRepository) MarkCompleted(ctx context.Context, id uuid.UUID, chunkCount int) error {
	const q = `
UPDATE jobs
SET status = 'completed', chunk_count = $2, current_step = NULL,
    error_service = NULL, error_step = NULL, error_message = NULL,
    updated_at = now()
WHERE id = $1 AND status <> 'failed';
`
	_, err := r.pool.Exec(ctx, q, id, chunkCount)
	return err
}

// MarkFailed is unconditional: failed is absorbing, and re-applying the
// same failure is safe under duplicate delivery.
func (r *JobRepository) MarkFailed(ctx context.Context, id uuid.UUID, jobErr entity.JobError) error {
	const q = `
UPDATE jobs
SET status = 'failed', current_step = $2,
    error_service = $3, error_step = $2, error_message = $4,
    updated_at = now()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, q, id, jobErr.Step, jobErr.Service, jobErr.Message)
	return err
}

func (r *JobRepository) scanJob(row pgx.Row) (*entity.Job, error) {
	var (
		job        entity.Job
		statusText string
		errService *string
		errStep    *string
		errMessage *string
	)
	err := row.Scan(
		&job.ID,
		&job.VideoID,
		&job.UserID,
		&statusText,
		&job.CurrentStep,
		&job.ChunkCount,
		&errService,
		&errStep,
		&errMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	job.Status = entity.JobStatus(statusText)
	if errService != nil || errStep != nil || errMessage != nil {
		job.Error = &entity.JobError{}
		if errService != nil {
			job.Error.Service = *errService
		}
		if errStep != nil {
			job.Error.Step = *errStep
		}
		if errMessage != nil {
			job.Error.Message = *errMessage
		}
	}
	return &job, nil
}
