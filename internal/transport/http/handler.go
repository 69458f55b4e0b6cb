package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/rag"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/service"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/videoid"
)

// VideoSubmitter is the slice of the video service the handler calls.
type VideoSubmitter interface {
	Submit(ctx context.Context, url, userID string) (*service.SubmitResult, error)
	Status(ctx context.Context, jobID uuid.UUID) (*entity.Job, error)
}

// Answerer serves the generation endpoint.
type Answerer interface {
	Answer(ctx context.Context, videoID, query string, topK int) (*rag.Answer, error)
}

type Handler struct {
	videos   VideoSubmitter
	answerer Answerer
	validate *validator.Validate
	log      *logrus.Entry
}

func NewHandler(videos VideoSubmitter, answerer Answerer, log *logrus.Logger) *Handler {
	return &Handler{
		videos:   videos,
		answerer: answerer,
		validate: validator.New(),
		log:      log.WithField("component", "http"),
	}
}

type apiError struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Message: msg})
}

type processVideoDTO struct {
	URL    string `json:"url" validate:"required,url"`
	UserID string `json:"user_id" validate:"omitempty,max=128"`
}

type processVideoResp struct {
	JobID   string           `json:"job_id"`
	VideoID string           `json:"video_id"`
	Status  entity.JobStatus `json:"status"`
	Message string           `json:"message"`
}

type jobStatusResp struct {
	JobID       string           `json:"job_id"`
	VideoID     string           `json:"video_id"`
	Status      entity.JobStatus `json:"status"`
	CurrentStep *string          `json:"current_step,omitempty"`
	ChunkCount  *int             `json:"chunk_count,omitempty"`
	Error       *entity.JobError `json:"error,omitempty"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

type generateDTO struct {
	VideoID string `json:"video_id" validate:"required,len=11"`
	Query   string `json:"query" validate:"required,min=1,max=2000"`
	TopK    int    `json:"top_k" validate:"omitempty,min=1,max=50"`
}

// ProcessVideo godoc
// @Summary Submit a video for processing
// @Description Starts the caption ingestion pipeline for a YouTube URL. Returns the existing job when the video was already processed or is in flight.
// @Tags videos
// @Accept json
// @Produce json
// @Param request body processVideoDTO true "video submission"
// @Success 200 {object} processVideoResp "existing job"
// @Success 202 {object} processVideoResp "new job accepted"
// @Failure 400 {object} apiError
// @Failure 409 {object} apiError
// @Failure 502 {object} apiError
// @Router /videos/process [post]
func (h *Handler) ProcessVideo(w http.ResponseWriter, r *http.Request) {
	var dto processVideoDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.videos.Submit(r.Context(), dto.URL, dto.UserID)
	switch {
	case err == nil:
	case errors.Is(err, videoid.ErrInvalidURL):
		writeErr(w, http.StatusBadRequest, "not a recognizable YouTube URL")
		return
	case errors.Is(err, service.ErrSubmissionInFlight):
		writeErr(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, service.ErrPublishFailed):
		writeErr(w, http.StatusBadGateway, "could not start processing, try again")
		return
	default:
		h.log.WithError(err).Error("submit failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	code := http.StatusAccepted
	message := "processing started"
	if res.Deduplicated {
		code = http.StatusOK
		if res.Job.Status == entity.StatusCompleted {
			message = "video already processed"
		} else {
			message = "processing already in flight"
		}
	}
	writeJSON(w, code, processVideoResp{
		JobID:   res.Job.ID.String(),
		VideoID: res.Job.VideoID,
		Status:  res.Job.Status,
		Message: message,
	})
}

// JobStatus godoc
// @Summary Get processing status for a job
// @Tags videos
// @Produce json
// @Param jobID path string true "job id (uuid)"
// @Success 200 {object} jobStatusResp
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Router /videos/{jobID}/status [get]
func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.videos.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "job not found")
			return
		}
		h.log.WithError(err).Error("status lookup failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, jobStatusResp{
		JobID:       job.ID.String(),
		VideoID:     job.VideoID,
		Status:      job.Status,
		CurrentStep: job.CurrentStep,
		ChunkCount:  job.ChunkCount,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   job.UpdatedAt.Format(time.RFC3339),
	})
}

// Generate godoc
// @Summary Answer a question about a processed video
// @Description Retrieves the transcript chunks most relevant to the query and generates an answer grounded on them.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body generateDTO true "question"
// @Success 200 {object} rag.Answer
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError
// @Failure 500 {object} apiError
// @Router /chat/generate [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var dto generateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	ans, err := h.answerer.Answer(r.Context(), dto.VideoID, dto.Query, dto.TopK)
	switch {
	case err == nil:
	case errors.Is(err, rag.ErrNotFound):
		writeErr(w, http.StatusNotFound, "video not processed")
		return
	case errors.Is(err, rag.ErrNotReady):
		writeErr(w, http.StatusConflict, "video still processing")
		return
	case errors.Is(err, rag.ErrNoContext):
		writeErr(w, http.StatusNotFound, "no transcript content for video")
		return
	default:
		h.log.WithError(err).Error("generation failed")
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, ans)
}
