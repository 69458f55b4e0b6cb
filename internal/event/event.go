// Package event defines the messages exchanged between pipeline stages.
// Each event is immutable after publish and correlates to exactly one job
// through its job identifier.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type Type string

const (
	TypeVideoSubmitted       Type = "video.submitted"
	TypeTranscriptDownloaded Type = "transcript.downloaded"
	TypeEmbeddingCompleted   Type = "embedding.completed"
	TypeProcessingFailed     Type = "processing.failed"
)

// VideoSubmitted starts the pipeline for a newly accepted job.
type VideoSubmitted struct {
	JobID    string `json:"job_id"`
	VideoID  string `json:"video_id"`
	VideoURL string `json:"video_url"`
	UserID   string `json:"user_id,omitempty"`
}

// TranscriptDownloaded carries the full transcript text to the embedding
// stage. The text travels inside the event; the stages share no other state.
type TranscriptDownloaded struct {
	JobID      string `json:"job_id"`
	VideoID    string `json:"video_id"`
	VideoURL   string `json:"video_url,omitempty"`
	Transcript string `json:"transcript"`
	Language   string `json:"language,omitempty"`
	Source     string `json:"source,omitempty"`
}

// EmbeddingCompleted marks the job's successful terminal transition.
type EmbeddingCompleted struct {
	JobID      string `json:"job_id"`
	VideoID    string `json:"video_id"`
	ChunkCount int    `json:"chunk_count"`
}

// ProcessingFailed marks the job's failed terminal transition, naming the
// originating service and step.
type ProcessingFailed struct {
	JobID   string `json:"job_id"`
	Service string `json:"service"`
	Step    string `json:"step"`
	Error   string `json:"error"`
}

// Event is a tagged union of the four event kinds. Exactly one payload
// field is non-nil, matching Type. Handlers switch on the typed payloads
// and never inspect raw maps.
type Event struct {
	ID   string
	Type Type

	VideoSubmitted       *VideoSubmitted
	TranscriptDownloaded *TranscriptDownloaded
	EmbeddingCompleted   *EmbeddingCompleted
	ProcessingFailed     *ProcessingFailed
}

func NewVideoSubmitted(p VideoSubmitted) Event {
	return Event{ID: uuid.NewString(), Type: TypeVideoSubmitted, VideoSubmitted: &p}
}

func NewTranscriptDownloaded(p TranscriptDownloaded) Event {
	return Event{ID: uuid.NewString(), Type: TypeTranscriptDownloaded, TranscriptDownloaded: &p}
}

func NewEmbeddingCompleted(p EmbeddingCompleted) Event {
	return Event{ID: uuid.NewString(), Type: TypeEmbeddingCompleted, EmbeddingCompleted: &p}
}

func NewProcessingFailed(p ProcessingFailed) Event {
	return Event{ID: uuid.NewString(), Type: TypeProcessingFailed, ProcessingFailed: &p}
}

// CorrelationID returns the job identifier the event belongs to.
func (e Event) CorrelationID() string {
	switch e.Type {
	case TypeVideoSubmitted:
		return e.VideoSubmitted.JobID
	case TypeTranscriptDownloaded:
		return e.TranscriptDownloaded.JobID
	case TypeEmbeddingCompleted:
		return e.EmbeddingCompleted.JobID
	case TypeProcessingFailed:
		return e.ProcessingFailed.JobID
	}
	return ""
}

func (e Event) payload() any {
	switch e.Type {
	case TypeVideoSubmitted:
		return e.VideoSubmitted
	case TypeTranscriptDownloaded:
		return e.TranscriptDownloaded
	case TypeEmbeddingCompleted:
		return e.EmbeddingCompleted
	case TypeProcessingFailed:
		return e.ProcessingFailed
	}
	return nil
}

// envelope is the wire shape: {"event_type": ..., "payload": {...}}.
type envelope struct {
	EventType Type            `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// Encode serializes the event into its wire envelope.
func (e Event) Encode() ([]byte, error) {
	p := e.payload()
	if p == nil {
		return nil, fmt.Errorf("event: unknown type %q", e.Type)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{EventType: e.Type, Payload: raw})
}

// Decode parses a wire envelope into a typed event. The message id comes
// from the transport, not the body, so the caller sets it.
func Decode(id string, body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("event: decode envelope: %w", err)
	}

	e := Event{ID: id, Type: env.EventType}
	var dst any
	switch env.EventType {
	case TypeVideoSubmitted:
		e.VideoSubmitted = &VideoSubmitted{}
		dst = e.VideoSubmitted
	case TypeTranscriptDownloaded:
		e.TranscriptDownloaded = &TranscriptDownloaded{}
		dst = e.TranscriptDownloaded
	case TypeEmbeddingCompleted:
		e.EmbeddingCompleted = &EmbeddingCompleted{}
		dst = e.EmbeddingCompleted
	case TypeProcessingFailed:
		e.ProcessingFailed = &ProcessingFailed{}
		dst = e.ProcessingFailed
	default:
		return Event{}, fmt.Errorf("event: unknown type %q", env.EventType)
	}

	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return Event{}, fmt.Errorf("event: decode %s payload: %w", env.EventType, err)
	}
	return e, nil
}
