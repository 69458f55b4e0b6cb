package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// InnerTubeFetcher resolves caption tracks through the player API, which
// also exposes auto-generated tracks, then downloads the chosen track in
// timedtext XML form.
type InnerTubeFetcher struct {
	client    *http.Client
	playerURL string
	languages []string
}

func NewInnerTubeFetcher(client *http.Client, languages []string) *InnerTubeFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &InnerTubeFetcher{
		client:    client,
		playerURL: "https://www.youtube.com/youtubei/v1/player",
		languages: languages,
	}
}

type playerRequest struct {
	Context playerContext `json:"context"`
	VideoID string        `json:"videoId"`
}

type playerContext struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
}

type playerResponse struct {
	Captions struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated tracks
}

func (f *InnerTubeFetcher) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	tracks, err := f.listTracks(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("innertube: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("innertube: %w", ErrNoTranscript)
	}

	track := pickTrack(tracks, f.languages)
	text, err := f.fetchTrack(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("innertube: %w", err)
	}
	return &Transcript{Text: text, Language: track.LanguageCode, Source: "innertube"}, nil
}

func (f *InnerTubeFetcher) listTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	// The android client returns caption metadata without needing the
	// signature dance the web client requires.
	body, err := json.Marshal(playerRequest{
		Context: playerContext{Client: playerClient{
			ClientName:    "ANDROID",
			ClientVersion: "20.10.38",
		}},
		VideoID: videoID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.playerURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player api: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, err
	}

	var pr playerResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("player api: %w", err)
	}
	return pr.Captions.Renderer.CaptionTracks, nil
}

func (f *InnerTubeFetcher) fetchTrack(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("caption track: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}
	return parseTimedText(raw)
}

// pickTrack prefers a manual track in a preferred language, then any
// track in a preferred language, then the first track.
func pickTrack(tracks []captionTrack, languages []string) captionTrack {
	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t
			}
		}
	}
	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	return tracks[0]
}
