package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/event"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/logging"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/transcript"
)

type stubFetcher struct {
	t   transcript.Transcript
	err error
}

func (f stubFetcher) Fetch(ctx context.Context, videoID string) (*transcript.Transcript, error) {
	if f.err != nil {
		return nil, f.err
	}
	t := f.t
	return &t, nil
}

func TestTranscriptWorker_ProducesDownloadedEvent(t *testing.T) {
	w := NewTranscriptWorker(stubFetcher{t: transcript.Transcript{
		Text:     "hello world",
		Language: "en",
		Source:   "timedtext",
	}}, logging.New("test", "error"))

	in := event.NewVideoSubmitted(event.VideoSubmitted{
		JobID:    "7b0c3c9e-5e1e-4d21-8f3a-1c2d3e4f5a6b",
		VideoID:  "abc12345678",
		VideoURL: "https://youtu.be/abc12345678",
	})

	next, stepErr := w.Handle(context.Background(), in)
	require.Nil(t, stepErr)
	require.NotNil(t, next)

	require.Equal(t, event.TypeTranscriptDownloaded, next.Type)
	td := next.TranscriptDownloaded
	assert.Equal(t, in.VideoSubmitted.JobID, td.JobID)
	assert.Equal(t, "abc12345678", td.VideoID)
	assert.Equal(t, "hello world", td.Transcript)
	assert.Equal(t, "en", td.Language)
	assert.Equal(t, "timedtext", td.Source)
}

func TestTranscriptWorker_FetchFailureIsTransient(t *testing.T) {
	w := NewTranscriptWorker(stubFetcher{err: errors.New("upstream 503")}, logging.New("test", "error"))

	next, stepErr := w.Handle(context.Background(), event.NewVideoSubmitted(event.VideoSubmitted{
		JobID:   "7b0c3c9e-5e1e-4d21-8f3a-1c2d3e4f5a6b",
		VideoID: "abc12345678",
	}))

	assert.Nil(t, next)
	require.NotNil(t, stepErr)
	assert.Equal(t, "transcript-worker", stepErr.Service)
	assert.Equal(t, "transcript_download", stepErr.Step)
	assert.False(t, stepErr.Permanent)
}

func TestTranscriptWorker_WrongEventIsPermanent(t *testing.T) {
	w := NewTranscriptWorker(stubFetcher{}, logging.New("test", "error"))

	next, stepErr := w.Handle(context.Background(), event.NewEmbeddingCompleted(event.EmbeddingCompleted{
		JobID: "7b0c3c9e-5e1e-4d21-8f3a-1c2d3e4f5a6b",
	}))

	assert.Nil(t, next)
	require.NotNil(t, stepErr)
	assert.True(t, stepErr.Permanent)
}
