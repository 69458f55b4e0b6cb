package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusPending      JobStatus = "pending"
	StatusTranscribing JobStatus = "transcribing"
	StatusEmbedding    JobStatus = "embedding"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
)

// Terminal reports whether no further transitions may leave this status.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobError captures which service failed a job, at which step, and why.
// Set only on failed jobs.
type JobError struct {
	Service string `json:"service"`
	Step    string `json:"step"`
	Message string `json:"message"`
}

// Job is the tracked unit of asynchronous work for one video submission.
// Exactly one row exists per ID; at most one job per VideoID ever reaches
// StatusCompleted (later submissions short-circuit to it).
type Job struct {
	ID          uuid.UUID `json:"job_id"`
	VideoID     string    `json:"video_id"`
	UserID      *string   `json:"user_id,omitempty"`
	Status      JobStatus `json:"status"`
	CurrentStep *string   `json:"current_step,omitempty"`
	ChunkCount  *int      `json:"chunk_count,omitempty"`
	Error       *JobError `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
