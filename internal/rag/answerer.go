// Package rag answers questions about a processed video by retrieving
// the most relevant transcript chunks and prompting a generation model
// with them as context.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/ai"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/repository/postgresql"
)

// ErrNotFound means no job has ever completed for the video.
var ErrNotFound = errors.New("video not processed")

// ErrNotReady means processing is still in flight for the video.
var ErrNotReady = errors.New("video still processing")

// ErrNoContext means the video completed but holds no searchable chunks.
var ErrNoContext = errors.New("no transcript chunks for video")

// JobFinder is the read slice of job storage the answerer needs.
type JobFinder interface {
	FindCompletedByVideo(ctx context.Context, videoID string) (*entity.Job, error)
	FindActiveByVideo(ctx context.Context, videoID string) (*entity.Job, error)
}

// ChunkSearcher runs vector similarity search over a video's chunks.
type ChunkSearcher interface {
	SearchSimilar(ctx context.Context, videoID string, queryVec []float32, topK int) ([]entity.ScoredChunk, error)
}

// Source is one retrieved chunk cited in an answer.
type Source struct {
	ChunkID uuid.UUID `json:"chunk_id"`
	Index   int       `json:"chunk_index"`
	Text    string    `json:"text"`
	Score   float32   `json:"score"`
}

// Answer is the generated response with the chunks it was grounded on.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Model   string   `json:"model"`
}

// Answerer serves question answering for completed videos.
type Answerer struct {
	jobs     JobFinder
	chunks   ChunkSearcher
	embedder ai.Embedder
	gen      ai.Generator

	topKLimit int
	log       *logrus.Entry
}

func NewAnswerer(jobs JobFinder, chunks ChunkSearcher, embedder ai.Embedder, gen ai.Generator, topKLimit int, log *logrus.Logger) *Answerer {
	if topKLimit < 1 {
		topKLimit = 10
	}
	return &Answerer{
		jobs:      jobs,
		chunks:    chunks,
		embedder:  embedder,
		gen:       gen,
		topKLimit: topKLimit,
		log:       log.WithField("component", "answerer"),
	}
}

// Answer retrieves the topK chunks most similar to the query and asks the
// generation model to answer from them. The video must have a completed
// job; an in-flight one yields ErrNotReady so the client can poll.
func (a *Answerer) Answer(ctx context.Context, videoID, query string, topK int) (*Answer, error) {
	if topK < 1 || topK > a.topKLimit {
		topK = a.topKLimit
	}

	if _, err := a.jobs.FindCompletedByVideo(ctx, videoID); err != nil {
		if !errors.Is(err, postgresql.ErrNotFound) {
			return nil, fmt.Errorf("completion lookup: %w", err)
		}
		if _, err := a.jobs.FindActiveByVideo(ctx, videoID); err == nil {
			return nil, ErrNotReady
		}
		return nil, ErrNotFound
	}

	queryVec, err := a.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := a.chunks.SearchSimilar(ctx, videoID, queryVec, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	if len(scored) == 0 {
		return nil, ErrNoContext
	}

	text, err := a.gen.Generate(ctx, buildPrompt(query, scored))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]Source, len(scored))
	for i, sc := range scored {
		sources[i] = Source{
			ChunkID: sc.ID,
			Index:   sc.Index,
			Text:    sc.Text,
			Score:   sc.Score,
		}
	}

	a.log.WithFields(logrus.Fields{
		"video_id": videoID,
		"sources":  len(sources),
	}).Info("answer generated")

	return &Answer{Answer: text, Sources: sources, Model: a.gen.Model()}, nil
}

func buildPrompt(query string, scored []entity.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("You are answering a question about a video using excerpts from its transcript.\n")
	b.WriteString("Answer only from the excerpts below. If they do not contain the answer, say so.\n\n")
	for i, sc := range scored {
		fmt.Fprintf(&b, "Excerpt %d:\n%s\n\n", i+1, sc.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\nAnswer:")
	return b.String()
}
