package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/entity"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/event"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/eventbus"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/logging"
)

type fakeBus struct {
	published   []event.Event
	republished []struct {
		Event    event.Event
		Attempts int
	}
	publishErr   error
	republishErr error
}

func (b *fakeBus) Publish(ctx context.Context, evt event.Event) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, evt)
	return nil
}

func (b *fakeBus) Republish(ctx context.Context, evt event.Event, attempts int) error {
	if b.republishErr != nil {
		return b.republishErr
	}
	b.republished = append(b.republished, struct {
		Event    event.Event
		Attempts int
	}{evt, attempts})
	return nil
}

func (b *fakeBus) Consume(ctx context.Context, queue string, types []event.Type, fn eventbus.HandlerFunc) error {
	return nil
}

type fakeHandler struct {
	next    *event.Event
	stepErr *entity.StepError
	calls   int
}

func (h *fakeHandler) Queue() string        { return "test-queue" }
func (h *fakeHandler) Events() []event.Type { return []event.Type{event.TypeVideoSubmitted} }

func (h *fakeHandler) Handle(ctx context.Context, evt event.Event) (*event.Event, *entity.StepError) {
	h.calls++
	return h.next, h.stepErr
}

func submittedDelivery(attempts int) eventbus.Delivery {
	return eventbus.Delivery{
		Event: event.NewVideoSubmitted(event.VideoSubmitted{
			JobID:    "7b0c3c9e-5e1e-4d21-8f3a-1c2d3e4f5a6b",
			VideoID:  "abc12345678",
			VideoURL: "https://youtu.be/abc12345678",
		}),
		Attempts: attempts,
	}
}

func TestRunner_SuccessPublishesFollowOn(t *testing.T) {
	bus := &fakeBus{}
	next := event.NewTranscriptDownloaded(event.TranscriptDownloaded{
		JobID:   "7b0c3c9e-5e1e-4d21-8f3a-1c2d3e4f5a6b",
		VideoID: "abc12345678",
	})
	h := &fakeHandler{next: &next}
	r := NewRunner(bus, h, 3, logging.New("test", "error"))

	v := r.handleDelivery(context.Background(), submittedDelivery(0))

	assert.Equal(t, eventbus.Ack, v)
	require.Len(t, bus.published, 1)
	assert.Equal(t, event.TypeTranscriptDownloaded, bus.published[0].Type)
	assert.Empty(t, bus.republished)
}

func TestRunner_TerminalStageAcksWithoutPublishing(t *testing.T) {
	bus := &fakeBus{}
	h := &fakeHandler{}
	r := NewRunner(bus, h, 3, logging.New("test", "error"))

	v := r.handleDelivery(context.Background(), submittedDelivery(0))

	assert.Equal(t, eventbus.Ack, v)
	assert.Empty(t, bus.published)
}

func TestRunner_TransientErrorSchedulesRetry(t *testing.T) {
	bus := &fakeBus{}
	h := &fakeHandler{stepErr: entity.NewStepError("transcript-worker", "transcript_download", errors.New("timeout"))}
	r := NewRunner(bus, h, 3, logging.New("test", "error"))

	v := r.handleDelivery(context.Background(), submittedDelivery(0))

	assert.Equal(t, eventbus.Ack, v)
	require.Len(t, bus.republished, 1)
	assert.Equal(t, 1, bus.republished[0].Attempts)
	assert.Equal(t, event.TypeVideoSubmitted, bus.republished[0].Event.Type)
	assert.Empty(t, bus.published, "no failure event while retries remain")
}

func TestRunner_ExhaustedRetriesPublishFailure(t *testing.T) {
	bus := &fakeBus{}
	h := &fakeHandler{stepErr: entity.NewStepError("transcript-worker", "transcript_download", errors.New("timeout"))}
	r := NewRunner(bus, h, 3, logging.New("test", "error"))

	v := r.handleDelivery(context.Background(), submittedDelivery(2))

	assert.Equal(t, eventbus.Ack, v)
	assert.Empty(t, bus.republished)
	require.Len(t, bus.published, 1)

	failed := bus.published[0]
	require.Equal(t, event.TypeProcessingFailed, failed.Type)
	assert.Equal(t, "7b0c3c9e-5e1e-4d21-8f3a-1c2d3e4f5a6b", failed.ProcessingFailed.JobID)
	assert.Equal(t, "transcript-worker", failed.ProcessingFailed.Service)
	assert.Equal(t, "transcript_download", failed.ProcessingFailed.Step)
}

func TestRunner_PermanentErrorSkipsRetries(t *testing.T) {
	bus := &fakeBus{}
	h := &fakeHandler{stepErr: entity.NewPermanentStepError("embedding-worker", "embedding_generation", errors.New("empty transcript"))}
	r := NewRunner(bus, h, 3, logging.New("test", "error"))

	v := r.handleDelivery(context.Background(), submittedDelivery(0))

	assert.Equal(t, eventbus.Ack, v)
	assert.Empty(t, bus.republished)
	require.Len(t, bus.published, 1)
	assert.Equal(t, event.TypeProcessingFailed, bus.published[0].Type)
}

func TestRunner_PublishErrorRequeues(t *testing.T) {
	bus := &fakeBus{publishErr: errors.New("broker gone")}
	next := event.NewTranscriptDownloaded(event.TranscriptDownloaded{JobID: "7b0c3c9e-5e1e-4d21-8f3a-1c2d3e4f5a6b"})
	h := &fakeHandler{next: &next}
	r := NewRunner(bus, h, 3, logging.New("test", "error"))

	v := r.handleDelivery(context.Background(), submittedDelivery(0))

	assert.Equal(t, eventbus.NackRequeue, v)
}

func TestRunner_RepublishErrorRequeues(t *testing.T) {
	bus := &fakeBus{republishErr: errors.New("broker gone")}
	h := &fakeHandler{stepErr: entity.NewStepError("transcript-worker", "transcript_download", errors.New("timeout"))}
	r := NewRunner(bus, h, 3, logging.New("test", "error"))

	v := r.handleDelivery(context.Background(), submittedDelivery(0))

	assert.Equal(t, eventbus.NackRequeue, v)
}
