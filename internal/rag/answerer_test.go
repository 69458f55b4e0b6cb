package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/logging"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/rag"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/repository/postgresql"
)

type fakeJobs struct {
	completed map[string]*entity.Job
	active    map[string]*entity.Job
}

func (f *fakeJobs) FindCompletedByVideo(ctx context.Context, videoID string) (*entity.Job, error) {
	if j, ok := f.completed[videoID]; ok {
		return j, nil
	}
	return nil, postgresql.ErrNotFound
}

func (f *fakeJobs) FindActiveByVideo(ctx context.Context, videoID string) (*entity.Job, error) {
	if j, ok := f.active[videoID]; ok {
		return j, nil
	}
	return nil, postgresql.ErrNotFound
}

type fakeSearcher struct {
	results []entity.ScoredChunk
	gotTopK int
	err     error
}

func (f *fakeSearcher) SearchSimilar(ctx context.Context, videoID string, queryVec []float32, topK int) ([]entity.ScoredChunk, error) {
	f.gotTopK = topK
	return f.results, f.err
}

type fakeEmbedder struct{ err error }

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.EmbedText(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type fakeGenerator struct {
	prompt string
	answer string
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

func (f *fakeGenerator) Model() string { return "test-model" }

func completedJobs(videoID string) *fakeJobs {
	return &fakeJobs{
		completed: map[string]*entity.Job{
			videoID: {ID: uuid.New(), VideoID: videoID, Status: entity.StatusCompleted},
		},
		active: map[string]*entity.Job{},
	}
}

func scoredChunks(texts ...string) []entity.ScoredChunk {
	out := make([]entity.ScoredChunk, len(texts))
	for i, txt := range texts {
		out[i] = entity.ScoredChunk{
			Chunk: entity.Chunk{ID: uuid.New(), VideoID: "abc12345678", Index: i, Text: txt},
			Score: 1 - float32(i)*0.1,
		}
	}
	return out
}

func TestAnswer_GroundsOnRetrievedChunks(t *testing.T) {
	search := &fakeSearcher{results: scoredChunks("first excerpt", "second excerpt")}
	gen := &fakeGenerator{answer: "the topic is Go"}
	a := rag.NewAnswerer(completedJobs("abc12345678"), search, &fakeEmbedder{}, gen, 10, logging.New("test", "error"))

	got, err := a.Answer(context.Background(), "abc12345678", "what is the topic?", 5)
	require.NoError(t, err)

	assert.Equal(t, "the topic is Go", got.Answer)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, 0, got.Sources[0].Index)
	assert.Equal(t, "first excerpt", got.Sources[0].Text)
	assert.Equal(t, 5, search.gotTopK)

	// prompt contains the excerpts and the question
	assert.True(t, strings.Contains(gen.prompt, "first excerpt"))
	assert.True(t, strings.Contains(gen.prompt, "what is the topic?"))
}

func TestAnswer_TopKClampedToLimit(t *testing.T) {
	search := &fakeSearcher{results: scoredChunks("x")}
	a := rag.NewAnswerer(completedJobs("abc12345678"), search, &fakeEmbedder{}, &fakeGenerator{answer: "ok"}, 10, logging.New("test", "error"))

	_, err := a.Answer(context.Background(), "abc12345678", "q", 500)
	require.NoError(t, err)
	assert.Equal(t, 10, search.gotTopK)

	_, err = a.Answer(context.Background(), "abc12345678", "q", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, search.gotTopK)
}

func TestAnswer_UnprocessedVideo(t *testing.T) {
	jobs := &fakeJobs{completed: map[string]*entity.Job{}, active: map[string]*entity.Job{}}
	a := rag.NewAnswerer(jobs, &fakeSearcher{}, &fakeEmbedder{}, &fakeGenerator{}, 10, logging.New("test", "error"))

	_, err := a.Answer(context.Background(), "abc12345678", "q", 5)
	assert.ErrorIs(t, err, rag.ErrNotFound)
}

func TestAnswer_InFlightVideo(t *testing.T) {
	jobs := &fakeJobs{
		completed: map[string]*entity.Job{},
		active: map[string]*entity.Job{
			"abc12345678": {ID: uuid.New(), VideoID: "abc12345678", Status: entity.StatusEmbedding},
		},
	}
	a := rag.NewAnswerer(jobs, &fakeSearcher{}, &fakeEmbedder{}, &fakeGenerator{}, 10, logging.New("test", "error"))

	_, err := a.Answer(context.Background(), "abc12345678", "q", 5)
	assert.ErrorIs(t, err, rag.ErrNotReady)
}

func TestAnswer_NoChunks(t *testing.T) {
	a := rag.NewAnswerer(completedJobs("abc12345678"), &fakeSearcher{}, &fakeEmbedder{}, &fakeGenerator{}, 10, logging.New("test", "error"))

	_, err := a.Answer(context.Background(), "abc12345678", "q", 5)
	assert.ErrorIs(t, err, rag.ErrNoContext)
}

func TestAnswer_GenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	a := rag.NewAnswerer(completedJobs("abc12345678"), &fakeSearcher{results: scoredChunks("x")}, &fakeEmbedder{}, gen, 10, logging.New("test", "error"))

	_, err := a.Answer(context.Background(), "abc12345678", "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate answer")
}
