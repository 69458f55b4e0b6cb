package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// timedTextDoc is the legacy caption XML: <transcript><text start=".."
// dur="..">..</text></transcript>.
type timedTextDoc struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedTextCue `xml:"text"`
}

type timedTextCue struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Body  string `xml:",chardata"`
}

// parseTimedText flattens caption XML into plain text. Cues are
// HTML-entity encoded and may contain line breaks.
func parseTimedText(raw []byte) (string, error) {
	var doc timedTextDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("parse timedtext: %w", err)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, cue := range doc.Texts {
		text := html.UnescapeString(cue.Body)
		text = strings.Join(strings.Fields(text), " ")
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoTranscript
	}
	return strings.Join(parts, " "), nil
}

// TimedTextFetcher pulls captions from the public timedtext endpoint, one
// preferred language at a time. It only sees manually captioned tracks,
// which is why it is the fallback rather than the primary.
type TimedTextFetcher struct {
	client    *http.Client
	baseURL   string
	languages []string
}

func NewTimedTextFetcher(client *http.Client, languages []string) *TimedTextFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &TimedTextFetcher{
		client:    client,
		baseURL:   "https://video.google.com/timedtext",
		languages: languages,
	}
}

func (f *TimedTextFetcher) Fetch(ctx context.Context, videoID string) (*Transcript, error) {
	var lastErr error = ErrNoTranscript
	for _, lang := range f.languages {
		text, err := f.fetchLanguage(ctx, videoID, lang)
		if err != nil {
			lastErr = err
			continue
		}
		return &Transcript{Text: text, Language: lang, Source: "timedtext"}, nil
	}
	return nil, fmt.Errorf("timedtext: %w", lastErr)
}

func (f *TimedTextFetcher) fetchLanguage(ctx context.Context, videoID, lang string) (string, error) {
	q := url.Values{"v": {videoID}, "lang": {lang}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext %s/%s: status %d", videoID, lang, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}
	// The endpoint answers 200 with an empty body when the track is missing.
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "", ErrNoTranscript
	}
	return parseTimedText(raw)
}
