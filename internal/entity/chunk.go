package entity

import "github.com/google/uuid"

// Chunk is one overlapping slice of a video's transcript, the unit indexed
// for similarity search. Chunks for a video are always written as a full
// replacement set, never updated in place.
type Chunk struct {
	ID        uuid.UUID `json:"chunk_id"`
	VideoID   string    `json:"video_id"`
	Index     int       `json:"chunk_index"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
	CharStart int       `json:"char_start"`
	CharEnd   int       `json:"char_end"`
}

// ScoredChunk is a chunk returned from similarity search with its
// relevance score (higher is closer).
type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}
