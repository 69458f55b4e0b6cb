// Package transcript acquires caption text for a video. Two strategies
// exist: the innertube player API (primary) and the legacy timedtext
// endpoint (fallback). The worker tries them in order; only when every
// strategy fails does the job fail.
package transcript

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrNoTranscript means the strategy ran but the video has no usable
// captions.
var ErrNoTranscript = errors.New("no transcript available")

// Transcript is the acquired caption text with provenance.
type Transcript struct {
	Text     string
	Language string
	// Source names the strategy that produced the text.
	Source string
}

// Fetcher acquires the transcript for one video.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (*Transcript, error)
}

// ChainFetcher tries each fetcher in order and returns the first success.
type ChainFetcher struct {
	fetchers []Fetcher
	log      *logrus.Entry
}

func NewChainFetcher(log *logrus.Logger, fetchers ...Fetcher) *ChainFetcher {
	return &ChainFetcher{
		fetchers: fetchers,
		log:      log.WithField("component", "transcript-fetcher"),
	}
}

func (c *ChainFetcher) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	var errs []error
	for _, f := range c.fetchers {
		t, err := f.Fetch(ctx, videoID)
		if err == nil {
			return t, nil
		}
		c.log.WithError(err).WithFields(logrus.Fields{
			"video_id": videoID,
			"fetcher":  fmt.Sprintf("%T", f),
		}).Warn("transcript strategy failed")
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrNoTranscript
	}
	return nil, fmt.Errorf("all transcript strategies failed: %w", errors.Join(errs...))
}
