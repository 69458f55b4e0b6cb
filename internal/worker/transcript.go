package worker

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/event"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/transcript"
)

const (
	transcriptService = "transcript-worker"
	stepTranscript    = "transcript_download"
)

// TranscriptWorker turns video.submitted into transcript.downloaded. It
// persists nothing: the transcript text rides inside the event to the
// next stage.
type TranscriptWorker struct {
	fetcher transcript.Fetcher
	log     *logrus.Entry
}

func NewTranscriptWorker(fetcher transcript.Fetcher, log *logrus.Logger) *TranscriptWorker {
	return &TranscriptWorker{
		fetcher: fetcher,
		log:     log.WithField("component", "transcript-worker"),
	}
}

func (w *TranscriptWorker) Queue() string { return "transcript-worker" }

func (w *TranscriptWorker) Events() []event.Type {
	return []event.Type{event.TypeVideoSubmitted}
}

func (w *TranscriptWorker) Handle(ctx context.Context, evt event.Event) (*event.Event, *entity.StepError) {
	vs := evt.VideoSubmitted
	if vs == nil {
		return nil, entity.NewPermanentStepError(transcriptService, stepTranscript,
			errors.New("unexpected event type "+string(evt.Type)))
	}

	t, err := w.fetcher.Fetch(ctx, vs.VideoID)
	if err != nil {
		return nil, entity.NewStepError(transcriptService, stepTranscript, err)
	}

	w.log.WithFields(logrus.Fields{
		"job_id":   vs.JobID,
		"video_id": vs.VideoID,
		"source":   t.Source,
		"length":   len(t.Text),
	}).Info("transcript acquired")

	next := event.NewTranscriptDownloaded(event.TranscriptDownloaded{
		JobID:      vs.JobID,
		VideoID:    vs.VideoID,
		VideoURL:   vs.VideoURL,
		Transcript: t.Text,
		Language:   t.Language,
		Source:     t.Source,
	})
	return &next, nil
}
